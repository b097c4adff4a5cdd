package domain

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SourceKind identifies how a pipeline source location is fetched.
type SourceKind string

const (
	SourceBlob   SourceKind = "blob"   // GitHub blob URL, single file fetched raw
	SourceTree   SourceKind = "tree"   // GitHub tree URL, sparse shallow clone of a subtree
	SourceDirect SourceKind = "direct" // http(s) URL ending in a recognised extension
	SourceLocal  SourceKind = "local"  // filesystem path ending in a recognised extension
)

// SourceListSeparator separates items in PIPELINES_URLS.
const SourceListSeparator = ";"

// DirectExtensions are the file extensions accepted for direct and local sources.
var DirectExtensions = []string{".py"}

// Source is a parsed pipeline source location.
type Source struct {
	Raw  string
	Kind SourceKind

	// URL is the fetch location: the raw-file URL for blob, the repository
	// clone URL for tree, the URL itself for direct, the path for local.
	URL string

	// Tree sources only.
	Repo   string
	Ref    string
	Subdir string

	// FileName is the destination basename for single-file sources.
	FileName string
}

// SplitSourceList splits a ';'-separated list, trimming whitespace and
// surrounding double quotes. Empty items are dropped.
func SplitSourceList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, SourceListSeparator) {
		if v := cleanSourceItem(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseSources parses every item and fails on the first invalid one, so no
// source is acted upon unless the whole list is valid. Local sources must
// name an existing regular file.
func ParseSources(items []string) ([]Source, error) {
	out := make([]Source, 0, len(items))
	for _, item := range items {
		raw := cleanSourceItem(item)
		if raw == "" {
			continue
		}
		src, err := ParseSource(raw)
		if err != nil {
			return nil, err
		}
		if src.Kind == SourceLocal {
			if err := checkLocalFile(src.URL); err != nil {
				return nil, err
			}
		}
		out = append(out, src)
	}
	return out, nil
}

// ParseSource classifies a single source location.
func ParseSource(raw string) (Source, error) {
	raw = cleanSourceItem(raw)
	if raw == "" {
		return Source{}, invalidSource(raw, "empty source location")
	}

	if !strings.Contains(raw, "://") {
		if looksLikeHost(raw) {
			return Source{}, invalidSource(raw, "URL is missing an http(s) scheme")
		}
		if hasDirectExt(raw) {
			return Source{
				Raw:      raw,
				Kind:     SourceLocal,
				URL:      raw,
				FileName: filepath.Base(raw),
			}, nil
		}
		return Source{}, invalidSource(raw, "unrecognised source location")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Source{}, &OpError{Op: "source.parse", Kind: KindInvalidSource, Path: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Source{}, invalidSource(raw, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	if isGitHubHost(u.Host) {
		segs := splitPath(u.Path)
		if len(segs) >= 3 {
			switch segs[2] {
			case "blob":
				return parseBlob(raw, u, segs)
			case "tree":
				return parseTree(raw, u, segs)
			}
		}
	}

	if hasDirectExt(u.Path) {
		return Source{
			Raw:      raw,
			Kind:     SourceDirect,
			URL:      raw,
			FileName: path.Base(u.Path),
		}, nil
	}

	return Source{}, invalidSource(raw, "unrecognised source location")
}

func parseBlob(raw string, u *url.URL, segs []string) (Source, error) {
	// owner/repo/blob/ref/path...
	if len(segs) < 5 {
		return Source{}, invalidSource(raw, "blob URL must include a ref and a file path")
	}

	name := segs[len(segs)-1]
	if !validFileName(name) {
		return Source{}, invalidSource(raw, fmt.Sprintf("invalid file name %q", name))
	}

	q := u.Query()
	q.Set("raw", "true")
	fetch := *u
	fetch.RawQuery = q.Encode()
	fetch.Fragment = ""

	return Source{
		Raw:      raw,
		Kind:     SourceBlob,
		URL:      fetch.String(),
		Repo:     repoURL(u, segs),
		Ref:      segs[3],
		FileName: name,
	}, nil
}

func parseTree(raw string, u *url.URL, segs []string) (Source, error) {
	// owner/repo/tree/ref[/subdir...]
	if len(segs) < 4 {
		return Source{}, invalidSource(raw, "tree URL must include a ref")
	}

	repo := repoURL(u, segs)
	return Source{
		Raw:    raw,
		Kind:   SourceTree,
		URL:    repo,
		Repo:   repo,
		Ref:    segs[3],
		Subdir: strings.Join(segs[4:], "/"),
	}, nil
}

func repoURL(u *url.URL, segs []string) string {
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, segs[0], segs[1])
}

func isGitHubHost(host string) bool {
	h := strings.ToLower(host)
	return h == "github.com" || h == "www.github.com"
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// looksLikeHost reports whether a schemeless item starts with a host name,
// e.g. "github.com/owner/repo/blob/main/a.py".
func looksLikeHost(raw string) bool {
	first, _, ok := strings.Cut(filepath.ToSlash(raw), "/")
	if !ok || first == "" || strings.HasPrefix(first, ".") {
		return false
	}
	return strings.Contains(first, ".")
}

func validFileName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func checkLocalFile(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return &OpError{Op: "source.parse", Kind: KindInvalidSource, Path: p, Err: fmt.Errorf("%w: %v", ErrInvalidSource, err)}
	}
	if !info.Mode().IsRegular() {
		return invalidSource(p, "local source is not a regular file")
	}
	return nil
}

func hasDirectExt(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range DirectExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func cleanSourceItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}

func invalidSource(raw, msg string) error {
	return &OpError{
		Op:   "source.parse",
		Kind: KindInvalidSource,
		Path: raw,
		Err:  fmt.Errorf("%w: %s", ErrInvalidSource, msg),
	}
}
