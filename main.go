package main

import (
	cmd "github.com/cozy-creator/house3d/cmd/house3d"
)

func main() {
	cmd.Execute()
}
