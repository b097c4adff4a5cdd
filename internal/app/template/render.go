package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// Vars returns the placeholders available to server.command and server.args.
func Vars(cfg domain.ServerConfig) map[string]string {
	return map[string]string{
		"app":  cfg.App,
		"host": cfg.Host,
		"port": strconv.Itoa(cfg.Port),
		"loop": cfg.Loop,
	}
}

// LaunchSpec renders the server command and arguments for cfg.
func LaunchSpec(cfg domain.ServerConfig, dir string) (domain.LaunchSpec, error) {
	vars := Vars(cfg)

	command, err := RenderString(cfg.Command, vars)
	if err != nil {
		return domain.LaunchSpec{}, err
	}
	if strings.TrimSpace(command) == "" {
		return domain.LaunchSpec{}, &domain.OpError{
			Op:   "launch.render",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("%w: server command is empty", domain.ErrInvalidConfig),
		}
	}

	args := make([]string, 0, len(cfg.Args))
	for _, a := range cfg.Args {
		r, err := RenderString(a, vars)
		if err != nil {
			return domain.LaunchSpec{}, err
		}
		args = append(args, r)
	}

	return domain.LaunchSpec{Command: command, Args: args, Dir: dir}, nil
}

// RenderString replaces {{var}} placeholders with vars values.
// It returns an error if a variable is missing or a placeholder is malformed.
func RenderString(input string, vars map[string]string) (string, error) {
	if input == "" {
		return "", nil
	}

	var out strings.Builder
	rest := input
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			out.WriteString(rest)
			return out.String(), nil
		}

		out.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end == -1 {
			return "", renderError(input, "unclosed template expression")
		}

		key := strings.TrimSpace(rest[:end])
		if key == "" {
			return "", renderError(input, "empty template expression")
		}

		value, ok := vars[key]
		if !ok {
			return "", renderError(input, fmt.Sprintf("missing variable %q", key))
		}

		out.WriteString(value)
		rest = rest[end+2:]
	}
}

func renderError(input, msg string) error {
	return &domain.OpError{
		Op:   "launch.render",
		Kind: domain.KindInvalidConfig,
		Path: input,
		Err:  fmt.Errorf("%w: %s", domain.ErrInvalidConfig, msg),
	}
}
