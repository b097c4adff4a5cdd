package reportstore

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

const maskValue = "********"

// urlInText matches URLs embedded in free text such as error messages.
var urlInText = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*://[^\s"'<>()]+`)

type JSONStore struct {
	dir            string
	maskingEnabled bool
	writeIndex     bool
	now            func() time.Time
}

type Option func(*JSONStore)

// WithIndex enables a simple JSONL index: <dir>/index.jsonl
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithMasking toggles redaction of credentials in source URLs and launch env.
func WithMasking(enabled bool) Option {
	return func(s *JSONStore) { s.maskingEnabled = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

func NewJSONStore(dir string, opts ...Option) *JSONStore {
	s := &JSONStore{
		dir:            dir,
		maskingEnabled: true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ReportStore = (*JSONStore)(nil)

func (s *JSONStore) SaveReport(report domain.Report) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.mkdir",
			Kind: domain.KindExecution,
			Path: s.dir,
			Err:  err,
		}
	}

	ts := report.StartedAt
	if ts.IsZero() {
		ts = s.now()
		report.StartedAt = ts
	}
	ts = ts.UTC()

	mode := string(report.Mode)
	if mode == "" {
		mode = string(domain.ModeFull)
	}

	filename := fmt.Sprintf("%s_%s.json", ts.Format("20060102T150405Z"), mode)
	id := strings.TrimSuffix(filename, ".json")
	path := filepath.Join(s.dir, filename)

	toSave := report
	if s.maskingEnabled {
		toSave = maskReport(report)
	}

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	// tmp then rename
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.write",
			Kind: domain.KindExecution,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.OpError{
			Op:   "reportstore.rename",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	if s.writeIndex {
		_ = s.appendIndex(id, filename, report)
	}

	return id, nil
}

func (s *JSONStore) appendIndex(id, filename string, report domain.Report) error {
	type idx struct {
		ID        string    `json:"id"`
		ReportID  string    `json:"report_id,omitempty"`
		File      string    `json:"file"`
		Mode      string    `json:"mode"`
		Failed    bool      `json:"failed"`
		StartedAt time.Time `json:"started_at"`
	}
	line, err := json.Marshal(idx{
		ID:        id,
		ReportID:  report.ID,
		File:      filename,
		Mode:      string(report.Mode),
		Failed:    report.Failed(),
		StartedAt: report.StartedAt,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, "index.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// maskReport returns a masked copy (does NOT mutate the input).
func maskReport(r domain.Report) domain.Report {
	out := r

	out.Steps = make([]domain.StepResult, len(r.Steps))
	for i, st := range r.Steps {
		st.Message = maskText(st.Message)
		out.Steps[i] = st
	}

	out.Fetched = make([]domain.FetchResult, len(r.Fetched))
	for i, f := range r.Fetched {
		c := f
		c.Source.Raw = MaskURL(f.Source.Raw)
		c.Source.URL = MaskURL(f.Source.URL)
		c.Source.Repo = MaskURL(f.Source.Repo)
		out.Fetched[i] = c
	}

	if r.Launch != nil {
		l := *r.Launch
		l.Env = make([]string, len(r.Launch.Env))
		for i, kv := range r.Launch.Env {
			k, _, found := strings.Cut(kv, "=")
			if found && isSensitiveKey(k) {
				kv = k + "=" + maskValue
			}
			l.Env[i] = kv
		}
		out.Launch = &l
	}

	return out
}

// MaskURL hides userinfo passwords and sensitive query values. Non-URLs are returned unchanged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	changed := false
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), maskValue)
		} else {
			u.User = url.User(maskValue)
		}
		changed = true
	}

	q := u.Query()
	for k := range q {
		if isSensitiveKey(k) {
			q.Set(k, maskValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// maskText applies MaskURL to every URL found in s.
func maskText(s string) string {
	return urlInText.ReplaceAllStringFunc(s, MaskURL)
}

func isSensitiveKey(k string) bool {
	kk := strings.ToLower(k)
	return strings.Contains(kk, "token") ||
		strings.Contains(kk, "secret") ||
		strings.Contains(kk, "password") ||
		strings.Contains(kk, "key")
}
