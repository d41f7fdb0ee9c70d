package templates

import "os"

const configTemplate = `# house3d configuration
port: 5000
host: localhost
environment: dev
filesystem_type: local
default_owner: admin
cors_origins: ['http://localhost:3000']

db:
  driver: sqlite
  dsn: "file:./data/house3d.db?cache=shared"

generation:
  command: python3
  args: ['python/generate_model.py']
  timeout: 10m
  workers: 4
  publish_artifacts: false

watchdog:
  interval: 1m
  max_age: 30m

rate_limit:
  requests: 100
  window: 15m

# pulsar:
#   url: "pulsar://localhost:6650"

# s3:
#   endpoint_url: ""
#   region_name: ""
#   bucket_name: ""
#   folder: "uploads"
#   public_url: ""
`

const envTemplate = `# Values here override config.yaml. Keys use the HOUSE3D_ prefix.
# HOUSE3D_PORT=5000
# HOUSE3D_DISABLE_AUTH=false
# HOUSE3D_DB_DSN=
# HOUSE3D_S3_ACCESS_KEY=
# HOUSE3D_S3_SECRET_KEY=
`

func GetConfigTemplate() string {
	return configTemplate
}

func GetEnvTemplate() string {
	return envTemplate
}

func WriteConfig(path string) error {
	return writeFile(path, GetConfigTemplate())
}

func WriteEnv(path string) error {
	return writeFile(path, GetEnvTemplate())
}

func writeFile(path, content string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	if err != nil {
		return err
	}

	return nil
}
