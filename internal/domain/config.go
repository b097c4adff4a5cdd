package domain

import "time"

// Config is the resolved lightpipe configuration (defaults < config file < env < flags).
type Config struct {
	Server    ServerConfig
	Pipelines PipelinesConfig
	Runtime   RuntimeConfig
	Port      PortConfig
}

type ServerConfig struct {
	Host string
	Port int
	Loop string
	App  string

	// Command and Args describe the server process; Args may reference
	// {{app}}, {{host}}, {{port}} and {{loop}}.
	Command string
	Args    []string

	// Requirements is the server's own dependency file. Skipped when missing.
	Requirements string
}

type PipelinesConfig struct {
	Dir              string
	Reset            bool
	RequirementsPath string
	URLs             []string

	// StagingDir holds tree checkouts before they are copied into Dir.
	// Empty means the system temp directory.
	StagingDir string
}

type RuntimeConfig struct {
	Python         string
	VersionRange   string
	PackageManager PackageManager
}

type PortConfig struct {
	Reclaim bool
	Grace   time.Duration
}

// PackageManager selects the tool used to install Python dependencies.
type PackageManager string

const (
	PackageManagerAuto PackageManager = "auto"
	PackageManagerPip  PackageManager = "pip"
	PackageManagerUV   PackageManager = "uv"
)

func (p PackageManager) Valid() bool {
	switch p {
	case PackageManagerAuto, PackageManagerPip, PackageManagerUV:
		return true
	}
	return false
}

// DefaultConfig mirrors the defaults of the classic start script.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    9099,
			Loop:    "auto",
			App:     "main:app",
			Command: "uvicorn",
			Args: []string{
				"{{app}}",
				"--host", "{{host}}",
				"--port", "{{port}}",
				"--forwarded-allow-ips", "*",
				"--loop", "{{loop}}",
			},
			Requirements: "requirements.txt",
		},
		Pipelines: PipelinesConfig{
			Dir: "./pipelines",
		},
		Runtime: RuntimeConfig{
			Python:         "python3",
			VersionRange:   ">=3.11.0",
			PackageManager: PackageManagerAuto,
		},
		Port: PortConfig{
			Reclaim: true,
			Grace:   time.Second,
		},
	}
}
