package envconfig

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/configfinder"
)

// envBindings maps config keys to the environment variables that set them.
// The unprefixed names are the ones the classic start script reads.
var envBindings = map[string][]string{
	"server.host":                 {"HOST"},
	"server.port":                 {"PORT"},
	"server.loop":                 {"UVICORN_LOOP"},
	"server.app":                  {"LIGHTPIPE_APP"},
	"server.command":              {"LIGHTPIPE_SERVER_COMMAND"},
	"server.requirements":         {"LIGHTPIPE_REQUIREMENTS"},
	"pipelines.dir":               {"PIPELINES_DIR"},
	"pipelines.reset":             {"RESET_PIPELINES_DIR"},
	"pipelines.requirements_path": {"PIPELINES_REQUIREMENTS_PATH"},
	"pipelines.urls":              {"PIPELINES_URLS"},
	"pipelines.staging_dir":       {"LIGHTPIPE_STAGING_DIR"},
	"runtime.python":              {"LIGHTPIPE_PYTHON"},
	"runtime.version_range":       {"LIGHTPIPE_PYTHON_RANGE"},
	"runtime.package_manager":     {"LIGHTPIPE_PACKAGE_MANAGER"},
	"port.reclaim":                {"LIGHTPIPE_RECLAIM_PORT"},
	"port.grace":                  {"LIGHTPIPE_RECLAIM_GRACE"},
}

// flagBindings maps config keys to command-line flag names.
var flagBindings = map[string]string{
	"server.host":     "host",
	"server.port":     "port",
	"server.loop":     "loop",
	"pipelines.dir":   "pipelines-dir",
	"pipelines.reset": "reset",
	"pipelines.urls":  "url",
}

// NoReclaimFlag disables port reclaiming when set.
const NoReclaimFlag = "no-reclaim"

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, lightpipe.yaml is
	// searched upward from WorkDir and used if found.
	ConfigFile string
	WorkDir    string

	// Flags, when set, override environment and file values for changed flags.
	Flags *pflag.FlagSet
}

// EnvVars lists every environment variable Load reads, sorted.
func EnvVars() []string {
	var out []string
	for _, names := range envBindings {
		out = append(out, names...)
	}
	sort.Strings(out)
	return out
}

// Load resolves the configuration: defaults < config file < env < changed flags.
func Load(opts Options) (domain.Config, error) {
	v := viper.New()
	setDefaults(v, domain.DefaultConfig())

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return domain.Config{}, invalid("envconfig.bindenv", "", err)
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return domain.Config{}, invalid("envconfig.bindflag", "", err)
				}
			}
		}
	}

	file, err := resolveConfigFile(opts)
	if err != nil {
		return domain.Config{}, err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return domain.Config{}, &domain.OpError{Op: "envconfig.read", Kind: domain.KindNotFound, Path: file, Err: err}
			}
			return domain.Config{}, invalid("envconfig.read", file, err)
		}
	}

	var dto configDTO
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(domain.SourceListSeparator),
	))
	if err := v.Unmarshal(&dto, hook); err != nil {
		return domain.Config{}, invalid("envconfig.decode", file, err)
	}

	cfg := dto.toDomain()

	if opts.Flags != nil {
		if f := opts.Flags.Lookup(NoReclaimFlag); f != nil && f.Changed && f.Value.String() == "true" {
			cfg.Port.Reclaim = false
		}
	}

	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted away.
func Validate(cfg domain.Config) error {
	var problems []string

	if strings.TrimSpace(cfg.Server.Host) == "" {
		problems = append(problems, "server host is empty")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range 1-65535", cfg.Server.Port))
	}
	if strings.TrimSpace(cfg.Server.Command) == "" {
		problems = append(problems, "server command is empty")
	}
	if strings.TrimSpace(cfg.Pipelines.Dir) == "" {
		problems = append(problems, "pipelines dir is empty")
	}
	if strings.TrimSpace(cfg.Runtime.Python) == "" {
		problems = append(problems, "python interpreter is empty")
	}
	if !cfg.Runtime.PackageManager.Valid() {
		problems = append(problems, fmt.Sprintf("unknown package manager %q (expected auto|pip|uv)", cfg.Runtime.PackageManager))
	}
	if cfg.Port.Grace < 0 {
		problems = append(problems, "port reclaim grace must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	return invalid("envconfig.validate", "", fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; ")))
}

func resolveConfigFile(opts Options) (string, error) {
	if f := strings.TrimSpace(opts.ConfigFile); f != "" {
		return f, nil
	}

	wd := opts.WorkDir
	if wd == "" {
		var err error
		wd, err = os.Getwd()
		if err != nil {
			return "", &domain.OpError{Op: "envconfig.getwd", Kind: domain.KindExecution, Err: err}
		}
	}
	return configfinder.NewFinder().FindFile(wd), nil
}

func setDefaults(v *viper.Viper, d domain.Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.loop", d.Server.Loop)
	v.SetDefault("server.app", d.Server.App)
	v.SetDefault("server.command", d.Server.Command)
	v.SetDefault("server.args", d.Server.Args)
	v.SetDefault("server.requirements", d.Server.Requirements)

	v.SetDefault("pipelines.dir", d.Pipelines.Dir)
	v.SetDefault("pipelines.reset", d.Pipelines.Reset)
	v.SetDefault("pipelines.requirements_path", d.Pipelines.RequirementsPath)
	v.SetDefault("pipelines.urls", []string{})
	v.SetDefault("pipelines.staging_dir", d.Pipelines.StagingDir)

	v.SetDefault("runtime.python", d.Runtime.Python)
	v.SetDefault("runtime.version_range", d.Runtime.VersionRange)
	v.SetDefault("runtime.package_manager", string(d.Runtime.PackageManager))

	v.SetDefault("port.reclaim", d.Port.Reclaim)
	v.SetDefault("port.grace", d.Port.Grace)
}

func invalid(op, path string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Path: path, Err: err}
}

type configDTO struct {
	Server struct {
		Host         string   `mapstructure:"host"`
		Port         int      `mapstructure:"port"`
		Loop         string   `mapstructure:"loop"`
		App          string   `mapstructure:"app"`
		Command      string   `mapstructure:"command"`
		Args         []string `mapstructure:"args"`
		Requirements string   `mapstructure:"requirements"`
	} `mapstructure:"server"`

	Pipelines struct {
		Dir              string   `mapstructure:"dir"`
		Reset            bool     `mapstructure:"reset"`
		RequirementsPath string   `mapstructure:"requirements_path"`
		URLs             []string `mapstructure:"urls"`
		StagingDir       string   `mapstructure:"staging_dir"`
	} `mapstructure:"pipelines"`

	Runtime struct {
		Python         string `mapstructure:"python"`
		VersionRange   string `mapstructure:"version_range"`
		PackageManager string `mapstructure:"package_manager"`
	} `mapstructure:"runtime"`

	Port struct {
		Reclaim bool          `mapstructure:"reclaim"`
		Grace   time.Duration `mapstructure:"grace"`
	} `mapstructure:"port"`
}

func (d configDTO) toDomain() domain.Config {
	var urls []string
	for _, u := range d.Pipelines.URLs {
		urls = append(urls, domain.SplitSourceList(u)...)
	}

	return domain.Config{
		Server: domain.ServerConfig{
			Host:         strings.TrimSpace(d.Server.Host),
			Port:         d.Server.Port,
			Loop:         d.Server.Loop,
			App:          d.Server.App,
			Command:      d.Server.Command,
			Args:         d.Server.Args,
			Requirements: d.Server.Requirements,
		},
		Pipelines: domain.PipelinesConfig{
			Dir:              d.Pipelines.Dir,
			Reset:            d.Pipelines.Reset,
			RequirementsPath: strings.TrimSpace(d.Pipelines.RequirementsPath),
			URLs:             urls,
			StagingDir:       strings.TrimSpace(d.Pipelines.StagingDir),
		},
		Runtime: domain.RuntimeConfig{
			Python:         d.Runtime.Python,
			VersionRange:   d.Runtime.VersionRange,
			PackageManager: domain.PackageManager(strings.ToLower(strings.TrimSpace(d.Runtime.PackageManager))),
		},
		Port: domain.PortConfig{
			Reclaim: d.Port.Reclaim,
			Grace:   d.Port.Grace,
		},
	}
}
