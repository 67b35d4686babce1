package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shashiranjanraj/shopfront/pkg/mail"
)

// Env is what a scenario runs against.
type Env struct {
	Handler http.Handler
	// Token returns a bearer token for the named account.
	Token func(t *testing.T, account string) string
	// Mailer, when set, is checked against ExpectedMail.
	Mailer *mail.Fake
	// Settle runs after the request and before mail is checked, e.g. to
	// drain a queue.
	Settle func(t *testing.T)
}

// Runner builds a fresh Env for each scenario so scenarios never share
// state.
type Runner struct {
	Setup func(t *testing.T) Env
}

// Run executes the scenario at path as a subtest.
func (r Runner) Run(t *testing.T, path string) {
	t.Helper()
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, r.Setup(t), s)
	})
}

// RunDir runs every scenario in dir. Request and response body files
// (suffix _req.json or _res.json) are skipped.
func (r Runner) RunDir(t *testing.T, dir string) {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	ran := 0
	for _, p := range paths {
		if strings.HasSuffix(p, "_req.json") || strings.HasSuffix(p, "_res.json") {
			continue
		}
		r.Run(t, p)
		ran++
	}
	if ran == 0 {
		t.Fatalf("testkit: no scenarios in %s", dir)
	}
}

func runScenario(t *testing.T, env Env, s *Scenario) {
	var body io.Reader
	if p := s.RequestBodyPath(); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read request file: %v", s.Name, err)
		}
		body = bytes.NewReader(raw)
	}

	method := strings.ToUpper(s.RequestMethod)
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, s.RequestURL, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.As != "" {
		if env.Token == nil {
			t.Fatalf("[%s] scenario needs a login but Env.Token is nil", s.Name)
		}
		req.Header.Set("Authorization", "Bearer "+env.Token(t, s.As))
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.Handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read response file: %v", s.Name, err)
		}
		AssertJSONBody(t, s, expected, rec.Body.Bytes())
	}

	if env.Settle != nil {
		env.Settle(t)
	}
	if env.Mailer != nil {
		AssertMail(t, s, env.Mailer.Sent())
	}
}
