package generation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cozy-creator/house3d/internal/config"
	"github.com/cozy-creator/house3d/internal/types"
)

// Generator turns a project's input images into a model artifact path.
type Generator interface {
	Generate(ctx context.Context, projectID string, inputPaths []string) (string, error)
}

type GeneratorFunc func(ctx context.Context, projectID string, inputPaths []string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, projectID string, inputPaths []string) (string, error) {
	return f(ctx, projectID, inputPaths)
}

// Result is the JSON line the generation script prints last on stdout.
type Result struct {
	Success   bool   `json:"success"`
	ModelPath string `json:"modelPath"`
	Message   string `json:"message"`
}

const maxStderrTail = 512

// CommandGenerator runs an external program with the input paths appended
// to Args. The program receives HOUSE3D_PROJECT_ID and HOUSE3D_OUTPUT_DIR in
// its environment.
type CommandGenerator struct {
	Command   string
	Args      []string
	OutputDir string
}

func NewCommandGenerator(cfg *config.GenerationConfig) *CommandGenerator {
	return &CommandGenerator{
		Command:   cfg.Command,
		Args:      cfg.Args,
		OutputDir: cfg.OutputDir,
	}
}

func (g *CommandGenerator) Generate(ctx context.Context, projectID string, inputPaths []string) (string, error) {
	if g.Command == "" {
		return "", fmt.Errorf("%w: no generation command configured", types.ErrGeneration)
	}

	args := make([]string, 0, len(g.Args)+len(inputPaths))
	args = append(args, g.Args...)
	args = append(args, inputPaths...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.Command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(),
		"HOUSE3D_PROJECT_ID="+projectID,
		"HOUSE3D_OUTPUT_DIR="+g.OutputDir,
	)

	if g.OutputDir != "" {
		if err := os.MkdirAll(g.OutputDir, os.ModePerm); err != nil {
			return "", fmt.Errorf("%w: %w", types.ErrGeneration, err)
		}
	}

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	result, parseErr := ParseResult(stdout.Bytes())
	if parseErr != nil {
		if runErr != nil {
			return "", fmt.Errorf("%w: %v%s", types.ErrGeneration, runErr, stderrTail(stderr.String()))
		}
		return "", fmt.Errorf("%w: %v", types.ErrGeneration, parseErr)
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = "generator reported failure"
		}
		return "", fmt.Errorf("%w: %s", types.ErrGeneration, message)
	}
	if runErr != nil {
		return "", fmt.Errorf("%w: %v%s", types.ErrGeneration, runErr, stderrTail(stderr.String()))
	}

	modelPath := result.ModelPath
	if !filepath.IsAbs(modelPath) && g.OutputDir != "" {
		modelPath = filepath.Join(g.OutputDir, modelPath)
	}

	return modelPath, nil
}

// ParseResult finds the last line of output that decodes as a Result. Lines
// printed before it are progress messages.
func ParseResult(output []byte) (*Result, error) {
	var (
		found  *Result
		reader = bufio.NewScanner(bytes.NewReader(output))
	)
	reader.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var result Result
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			continue
		}
		found = &result
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}

	if found == nil {
		return nil, errors.New("generator printed no result")
	}
	if found.Success && found.ModelPath == "" {
		return nil, errors.New("generator result has no model path")
	}

	return found, nil
}

func stderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > maxStderrTail {
		stderr = stderr[len(stderr)-maxStderrTail:]
	}

	return ": " + stderr
}
