// Package frontmatter reads the metadata block at the top of a pipeline file.
//
// A pipeline declares its metadata in the first """-delimited block:
//
//	"""
//	title: Llama Index Pipeline
//	requirements: llama-index, llama-index-llms-ollama
//	"""
package frontmatter

import (
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

const (
	delimiter       = `"""`
	requirementsKey = "requirements"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

var _ ports.RequirementsReader = (*Reader)(nil)

func (r *Reader) ReadRequirements(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		kind := domain.KindExecution
		if os.IsNotExist(err) {
			kind = domain.KindNotFound
		}
		return nil, &domain.OpError{Op: "frontmatter.read", Kind: kind, Path: path, Err: err}
	}

	block, ok := ExtractBlock(string(b))
	if !ok {
		return nil, nil
	}
	return ParseRequirements(block), nil
}

// ExtractBlock returns the text of the first """ block. Text after the opening
// delimiter on the same line belongs to the block. An unterminated block runs
// to the end of the content.
func ExtractBlock(content string) (string, bool) {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var out []string
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		idx := strings.Index(line, delimiter)
		if idx < 0 {
			if inBlock {
				out = append(out, line)
			}
			continue
		}

		if inBlock {
			if head := line[:idx]; strings.TrimSpace(head) != "" {
				out = append(out, head)
			}
			return strings.Join(out, "\n"), true
		}

		inBlock = true
		rest := line[idx+len(delimiter):]
		if end := strings.Index(rest, delimiter); end >= 0 {
			return rest[:end], true
		}
		if strings.TrimSpace(rest) != "" {
			out = append(out, rest)
		}
	}

	if !inBlock {
		return "", false
	}
	return strings.Join(out, "\n"), true
}

// ParseRequirements returns the package names listed under "requirements".
// The block is read as YAML; free-form blocks that are not valid YAML fall
// back to a line scan. Names are separated by commas and whitespace.
func ParseRequirements(block string) []string {
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(block), &meta); err == nil {
		for k, v := range meta {
			if strings.EqualFold(strings.TrimSpace(k), requirementsKey) {
				return splitNames(valueStrings(v))
			}
		}
		return nil
	}

	for _, line := range strings.Split(block, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if found && strings.EqualFold(strings.TrimSpace(key), requirementsKey) {
			return splitNames([]string{value})
		}
	}
	return nil
}

func valueStrings(v any) []string {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return cast.ToStringSlice(vv)
	default:
		return []string{cast.ToString(vv)}
	}
}

func splitNames(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})...)
	}
	return out
}
