package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/verte-zerg/vezaxff/internal/config"
	"github.com/verte-zerg/vezaxff/internal/model"
)

type fakeAPI struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.keys = append(f.keys, r.URL.Query().Get("api_key"))
		f.mu.Unlock()

		start := r.URL.Query().Get("start")
		switch r.URL.Path {
		case "/v1/report/fights/abc":
			_, _ = w.Write([]byte(`{
				"fights": [
					{"id": 1, "boss": 0, "name": "Trash", "start_time": 0, "end_time": 500},
					{"id": 2, "boss": 755, "name": "General Vezax", "start_time": 1000, "end_time": 60000, "kill": false},
					{"id": 3, "boss": 755, "name": "General Vezax", "start_time": 100000, "end_time": 200000, "kill": true}
				],
				"friendlies": [{"id": 7, "name": "Tankalot"}, {"id": 9, "name": "Mendwell"}]
			}`))
		case "/v1/report/events/debuffs/abc":
			if start != "100000" {
				_, _ = w.Write([]byte(`{"events": []}`))
				return
			}
			_, _ = w.Write([]byte(`{"events": [
				{"type": "applydebuff", "timestamp": 102000, "targetID": 7},
				{"type": "removedebuff", "timestamp": 108000, "targetID": 7}
			]}`))
		case "/v1/report/events/damage-taken/abc":
			if start != "100000" {
				_, _ = w.Write([]byte(`{"events": []}`))
				return
			}
			_, _ = w.Write([]byte(`{"events": [
				{"type": "damage", "timestamp": 103000, "targetID": 9, "unmitigatedAmount": 12000}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeAPI) lastKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.keys) == 0 {
		return ""
	}
	return f.keys[len(f.keys)-1]
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(config.APIKeyEnv, "")
	return dir
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunWritesTableAndCSV(t *testing.T) {
	dir := setupEnv(t)
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	csvPath := filepath.Join(dir, "out.csv")
	metricsPath := filepath.Join(dir, "metrics.prom")
	out, err := runCmd(t,
		"--apiKey", "flag-key",
		"--logId", "abc",
		"--baseUrl", srv.URL,
		"--outputFile", csvPath,
		"--metricsFile", metricsPath,
	)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	for _, want := range []string{"*** GENERAL VEZAX ***", "Tankalot", "12,000", "200,000", "Results have been written to " + csvPath} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Mendwell") {
		t.Fatalf("victim should not be listed:\n%s", out)
	}
	if api.lastKey() != "flag-key" {
		t.Fatalf("unexpected api key %q", api.lastKey())
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(data), "Tankalot,1,12000,200000") {
		t.Fatalf("unexpected csv:\n%s", data)
	}
	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(metrics), "vezaxff_attempts_analyzed_total") {
		t.Fatalf("unexpected metrics:\n%s", metrics)
	}
}

func TestRunCSVFailureIsNotFatal(t *testing.T) {
	dir := setupEnv(t)
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	out, err := runCmd(t,
		"--apiKey", "k",
		"--logId", "abc",
		"--baseUrl", srv.URL,
		"--outputFile", filepath.Join(dir, "missing", "out.csv"),
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.Contains(out, "Results have been written") {
		t.Fatalf("unexpected success message:\n%s", out)
	}
	if !strings.Contains(out, "Tankalot") {
		t.Fatalf("table missing:\n%s", out)
	}
}

func TestRunRequiresKeyAndLog(t *testing.T) {
	setupEnv(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no key", []string{"--logId", "abc"}, "Api Key is required"},
		{"no log", []string{"--apiKey", "k"}, "Log ID is required"},
		{"negative grace", []string{"--apiKey", "k", "--logId", "abc", "--wipeGracePeriod", "-1"}, "wipeGracePeriod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.args...)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v\n%s", tt.want, err, out)
			}
		})
	}
}

func TestAPIKeyPrecedence(t *testing.T) {
	dir := setupEnv(t)
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	cfgPath := filepath.Join(dir, "vezaxff", "config.toml")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cfgPath, []byte("[api]\nkey = \"file-key\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	args := []string{"attempts", "--logId", "abc", "--baseUrl", srv.URL}
	if _, err := runCmd(t, args...); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if api.lastKey() != "file-key" {
		t.Fatalf("expected file key, got %q", api.lastKey())
	}

	t.Setenv(config.APIKeyEnv, "env-key")
	if _, err := runCmd(t, args...); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if api.lastKey() != "env-key" {
		t.Fatalf("expected env key, got %q", api.lastKey())
	}

	if _, err := runCmd(t, append(args, "--apiKey", "flag-key")...); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if api.lastKey() != "flag-key" {
		t.Fatalf("expected flag key, got %q", api.lastKey())
	}
}

func TestAttemptsCommand(t *testing.T) {
	dir := setupEnv(t)
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	cfgPath := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(cfgPath, []byte("[analysis]\nwipe-grace-period = 20\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCmd(t, "attempts", "--config", cfgPath, "--apiKey", "k", "--logId", "abc", "--baseUrl", srv.URL)
	if err != nil {
		t.Fatalf("attempts failed: %v", err)
	}
	for _, want := range []string{"wipe", "1000-40000", "kill", "100000-200000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Trash") {
		t.Fatalf("trash fight listed:\n%s", out)
	}

	out, err = runCmd(t, "attempts", "--config", cfgPath, "--apiKey", "k", "--logId", "abc", "--baseUrl", srv.URL, "--onlyKill")
	if err != nil {
		t.Fatalf("attempts failed: %v", err)
	}
	if !strings.Contains(out, "skipped") {
		t.Fatalf("expected wipe to be skipped:\n%s", out)
	}
}

func TestValidateConfig(t *testing.T) {
	base := model.Config{APIKey: "k", LogID: "abc", BaseURL: "http://x", Timeout: 1}
	if err := validateConfig(base); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	bad := base
	bad.Timeout = -1
	if err := validateConfig(bad); err == nil {
		t.Fatalf("expected negative timeout to fail")
	}
	bad = base
	bad.BaseURL = ""
	if err := validateConfig(bad); err == nil {
		t.Fatalf("expected empty base url to fail")
	}
}

func TestEnsureConfigFileWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensureConfigFile failed: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if cfg.API.Key != nil || cfg.Analysis.WipeGracePeriod != nil {
		t.Fatalf("template should be fully commented: %+v", cfg)
	}
}
