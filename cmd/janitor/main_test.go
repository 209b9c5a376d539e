package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeJanitor is a minimal Media Janitor server API
type fakeJanitor struct {
	mu       sync.Mutex
	requests []string
	server   *httptest.Server
}

func newFakeJanitor(t *testing.T) *fakeJanitor {
	t.Helper()
	f := &fakeJanitor{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/content/issues", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[
			{"jellyfin_id":"movie-1","name":"Inception","media_type":"movie","production_year":2010,"size_bytes":15000000000,"issues":["old","large"],"tmdb_id":27205},
			{"jellyfin_id":"request-42","name":"Dune Part Three","media_type":"movie","issues":["request"],"jellyseerr_request_id":42,"requested_by":"sam"}
		],"total_count":2,"total_size_bytes":15000000000}`))
	})
	mux.HandleFunc("POST /api/whitelist/content", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /api/whitelist/requests", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"Request already hidden"}`))
	})
	mux.HandleFunc("GET /api/whitelist/content", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"jellyfin_id":"movie-9","name":"Heat","created_at":"2025-01-01T00:00:00Z","expires_at":"2025-02-01T00:00:00Z"}]`))
	})
	mux.HandleFunc("DELETE /api/whitelist/content/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/settings/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jellyfin_configured":true,"jellyseerr_configured":true,"radarr_configured":true,"sonarr_configured":false}`))
	})
	mux.HandleFunc("DELETE /api/media/movie/27205", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"deleted"}`))
	})

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeJanitor) saw(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			return r
		}
	}
	return ""
}

func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "janitor.yaml")
	content := "database_path: " + filepath.Join(dir, "janitor.db") + "\n" +
		"server:\n  url: " + apiURL + "\n  token: secret-token\n" +
		"log:\n  level: error\n  format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{out: &out, in: strings.NewReader(stdin)}
	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	_ = a.close()
	return out.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestIssuesCommand(t *testing.T) {
	api := newFakeJanitor(t)
	cfgPath := writeConfig(t, api.server.URL)

	out, err := runCLI(t, cfgPath, "", "issues", "--filter", "old")
	if err != nil {
		t.Fatalf("issues: %v", err)
	}
	requireContains(t, out, "movie-1")
	requireContains(t, out, "request-42")
	requireContains(t, out, "13.97 GB")
	requireContains(t, out, "2 items")
	if got := api.saw("GET /api/content/issues"); !strings.Contains(got, "filter=old") {
		t.Errorf("issues query = %q", got)
	}

	if _, err := runCLI(t, cfgPath, "", "issues", "--filter", "tiny"); err == nil {
		t.Error("unknown filter accepted")
	}
}

func TestProtectCommand(t *testing.T) {
	api := newFakeJanitor(t)
	cfgPath := writeConfig(t, api.server.URL)

	out, err := runCLI(t, cfgPath, "", "protect", "movie-1", "--duration", "1month")
	if err != nil {
		t.Fatalf("protect: %v\n%s", err, out)
	}
	requireContains(t, out, "[ok] Protected Inception")
	if api.saw("POST /api/whitelist/content") == "" {
		t.Error("whitelist endpoint not called")
	}

	out, err = runCLI(t, cfgPath, "", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "protect")
	requireContains(t, out, "All time: removed=1")
}

func TestProtectRejectsBadCustomDate(t *testing.T) {
	api := newFakeJanitor(t)
	cfgPath := writeConfig(t, api.server.URL)

	if _, err := runCLI(t, cfgPath, "", "protect", "movie-1", "--duration", "custom"); err == nil {
		t.Fatal("blank custom date accepted")
	}
	if _, err := runCLI(t, cfgPath, "", "protect", "movie-1", "--date", "2020-01-01"); err == nil {
		t.Fatal("past custom date accepted")
	}
	if api.saw("POST /api/whitelist") != "" {
		t.Error("whitelist endpoint called for an invalid date")
	}
}

func TestHideConflictFails(t *testing.T) {
	api := newFakeJanitor(t)
	cfgPath := writeConfig(t, api.server.URL)

	out, err := runCLI(t, cfgPath, "", "hide", "42")
	if err == nil {
		t.Fatal("conflict reported as success")
	}
	requireContains(t, out, "[error] Request already hidden")
}

func TestDeleteCommand(t *testing.T) {
	api := newFakeJanitor(t)
	cfgPath := writeConfig(t, api.server.URL)

	out, err := runCLI(t, cfgPath, "no\n", "delete", "movie-1")
	if err != nil {
		t.Fatalf("delete aborted: %v", err)
	}
	requireContains(t, out, "Jellyfin, Radarr, Jellyseerr")
	requireContains(t, out, "Aborted")
	if api.saw("DELETE /api/media") != "" {
		t.Fatal("delete sent without confirmation")
	}

	out, err = runCLI(t, cfgPath, "", "delete", "movie-1", "--keep-requests", "--yes")
	if err != nil {
		t.Fatalf("delete: %v\n%s", err, out)
	}
	requireContains(t, out, "[ok] Deleted Inception")
	got := api.saw("DELETE /api/media/movie/27205")
	if !strings.Contains(got, "delete_from_arr=true") || !strings.Contains(got, "delete_from_jellyseerr=false") {
		t.Errorf("delete query = %q", got)
	}

	if _, err := runCLI(t, cfgPath, "", "delete", "movie-1", "--keep-arr", "--keep-requests", "--yes"); err == nil {
		t.Error("delete with no targets accepted")
	}
}

func TestWhitelistCommands(t *testing.T) {
	api := newFakeJanitor(t)
	cfgPath := writeConfig(t, api.server.URL)

	out, err := runCLI(t, cfgPath, "", "whitelist", "list", "content")
	if err != nil {
		t.Fatalf("whitelist list: %v", err)
	}
	requireContains(t, out, "Heat")
	requireContains(t, out, "until 2025-02-01")
	requireContains(t, out, "expired")

	out, err = runCLI(t, cfgPath, "", "whitelist", "remove", "content", "1")
	if err != nil {
		t.Fatalf("whitelist remove: %v", err)
	}
	requireContains(t, out, "[ok]")
	if api.saw("DELETE /api/whitelist/content/1") == "" {
		t.Error("remove endpoint not called")
	}

	if _, err := runCLI(t, cfgPath, "", "whitelist", "remove", "content", "7"); err == nil {
		t.Error("removing an unknown entry succeeded")
	}
}

func TestConfigCommands(t *testing.T) {
	api := newFakeJanitor(t)
	cfgPath := writeConfig(t, api.server.URL)

	out, err := runCLI(t, cfgPath, "", "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration is valid")

	out, err = runCLI(t, cfgPath, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, api.server.URL)
	if strings.Contains(out, "secret-token") {
		t.Error("config show printed the token")
	}
}
