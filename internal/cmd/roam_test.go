package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/salmonumbrella/outline-cli/internal/docfile"
	"github.com/salmonumbrella/outline-cli/internal/outline"
	"github.com/salmonumbrella/outline-cli/internal/secrets"
)

type memStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *memStore) SetToken(graph, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[graph] = token
	return nil
}

func (m *memStore) Token(graph string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[graph]
	if !ok {
		return "", secrets.ErrNotFound
	}
	return tok, nil
}

func (m *memStore) DeleteToken(graph string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, graph)
	return nil
}

func (m *memStore) Graphs() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for g := range m.tokens {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}

// useStore swaps the keyring for an in-memory store and records the
// backend each open asked for.
func useStore(t *testing.T) (*memStore, *[]string) {
	t.Helper()
	store := &memStore{tokens: map[string]string{}}
	var backends []string
	prev := openSecretsStore
	openSecretsStore = func(backend string) (tokenStore, error) {
		backends = append(backends, backend)
		return store, nil
	}
	t.Cleanup(func() { openSecretsStore = prev })
	return store, &backends
}

func useEnv(t *testing.T, env map[string]string) {
	t.Helper()
	prev := envGet
	envGet = func(k string) string { return env[k] }
	t.Cleanup(func() { envGet = prev })
}

// fakeRoam serves /api/graph/{graph}/write and /pull.
type fakeRoam struct {
	*httptest.Server
	mu     sync.Mutex
	paths  []string
	auth   []string
	writes []map[string]interface{}
	page   string
}

func newFakeRoam(t *testing.T, page string) *fakeRoam {
	t.Helper()
	f := &fakeRoam{page: page}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/write"):
			f.mu.Lock()
			f.writes = append(f.writes, body)
			f.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/pull"):
			_, _ = w.Write([]byte(`{"result": ` + f.page + `}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func TestAuthSetTokenStatusRemove(t *testing.T) {
	c := newCLI(t)
	store, _ := useStore(t)
	useEnv(t, nil)

	var change authChange
	c.mustJSON(&change, "-o", "json", "auth", "set-token", "abcd-1234-efgh-5678", "--graph", "notes")
	if change.Status != "stored" || change.Graph != "notes" {
		t.Fatalf("unexpected change: %+v", change)
	}
	if store.tokens["notes"] != "abcd-1234-efgh-5678" {
		t.Fatalf("token not stored: %v", store.tokens)
	}

	var st authStatus
	c.mustJSON(&st, "-o", "json", "auth", "status", "--graph", "notes")
	if !st.Authenticated || st.Source != "keyring" || st.Token != "abcd...5678" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if len(st.Stored) != 1 || st.Stored[0] != "notes" {
		t.Fatalf("stored = %v", st.Stored)
	}

	c.mustJSON(&change, "-o", "json", "auth", "remove", "--graph", "notes")
	if change.Status != "removed" {
		t.Fatalf("unexpected change: %+v", change)
	}
	st = authStatus{}
	c.mustJSON(&st, "-o", "json", "auth", "status", "--graph", "notes")
	if st.Authenticated || st.Source != "" {
		t.Fatalf("expected no token, got %+v", st)
	}
}

func TestAuthSetTokenFromStdinUsesConfig(t *testing.T) {
	c := newCLI(t)
	store, backends := useStore(t)
	useEnv(t, nil)

	if _, _, err := c.run("config", "set", "graph_name", "work"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, _, err := c.run("config", "set", "keyring_backend", "file"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, stderr, err := c.runStdin("secret-token\n", "auth", "set-token", "-"); err != nil {
		t.Fatalf("set-token: %v (%s)", err, stderr)
	}
	if store.tokens["work"] != "secret-token" {
		t.Fatalf("tokens = %v", store.tokens)
	}
	if len(*backends) != 1 || (*backends)[0] != "file" {
		t.Fatalf("backends = %v", *backends)
	}

	out, _, err := c.run("-o", "text", "auth", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Graph: work\n") || !strings.Contains(out, "Token: **** (keyring)") {
		t.Fatalf("unexpected status text: %q", out)
	}
}

func TestAuthStatusPrefersEnvToken(t *testing.T) {
	c := newCLI(t)
	useStore(t)
	useEnv(t, map[string]string{envRoamToken: "env-token-0123456789", envRoamGraph: "g"})

	var st authStatus
	c.mustJSON(&st, "-o", "json", "auth", "status")
	if !st.Authenticated || st.Graph != "g" || st.Source != "env" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestAuthSetTokenErrors(t *testing.T) {
	c := newCLI(t)
	useStore(t)
	useEnv(t, nil)

	if _, _, err := c.run("auth", "set-token", "tok"); err == nil || !strings.Contains(err.Error(), "graph name is required") {
		t.Fatalf("expected missing graph error, got %v", err)
	}
	if _, _, err := c.runStdin("\n", "auth", "set-token", "--graph", "g"); err == nil {
		t.Fatal("expected error for empty prompted token")
	}
}

func TestExportRoamPush(t *testing.T) {
	c := newCLI(t)
	useStore(t)
	useEnv(t, map[string]string{envRoamToken: "tok"})
	srv := newFakeRoam(t, "null")
	path := writeDoc(t, "steps.json", numberedDoc)

	var res pushResult
	c.mustJSON(&res, "-o", "json", "export", "roam", path, "--push", "--graph", "g", "--base-url", srv.URL)
	if res.Graph != "g" || res.Page != "Steps" || res.Actions != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(srv.writes) != 1 {
		t.Fatalf("writes = %d", len(srv.writes))
	}
	if srv.paths[0] != "/api/graph/g/write" || srv.auth[0] != "Bearer tok" {
		t.Fatalf("request = %v %v", srv.paths, srv.auth)
	}
	body := srv.writes[0]
	if body["action"] != "batch-actions" {
		t.Fatalf("action = %v", body["action"])
	}
	if actions, _ := body["actions"].([]interface{}); len(actions) != 4 {
		t.Fatalf("actions = %v", body["actions"])
	}
}

func TestExportRoamPushUsesStoredTokenAndConfig(t *testing.T) {
	c := newCLI(t)
	store, _ := useStore(t)
	useEnv(t, nil)
	srv := newFakeRoam(t, "null")
	store.tokens["g"] = "stored"
	path := writeDoc(t, "steps.json", numberedDoc)

	for _, kv := range [][2]string{{"graph_name", "g"}, {"roam_base_url", srv.URL}} {
		if _, _, err := c.run("config", "set", kv[0], kv[1]); err != nil {
			t.Fatalf("config set %s: %v", kv[0], err)
		}
	}
	out, _, err := c.run("-o", "text", "export", "roam", path, "--push", "--page", "Elsewhere")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if out != "pushed 4 action(s) to Elsewhere in g\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if srv.auth[0] != "Bearer stored" {
		t.Fatalf("auth = %v", srv.auth)
	}
}

func TestExportRoamPushWithoutToken(t *testing.T) {
	c := newCLI(t)
	useStore(t)
	useEnv(t, nil)
	srv := newFakeRoam(t, "null")
	path := writeDoc(t, "steps.json", numberedDoc)

	_, stderr, err := c.run("-o", "json", "export", "roam", path, "--push", "--graph", "g", "--base-url", srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	var env map[string]map[string]interface{}
	if err := json.Unmarshal([]byte(stderr), &env); err != nil {
		t.Fatalf("parse envelope: %v\n%s", err, stderr)
	}
	if env["error"]["type"] != "auth" {
		t.Fatalf("envelope = %v", env)
	}
	if len(srv.paths) != 0 {
		t.Fatalf("no request expected, got %v", srv.paths)
	}

	if _, _, err := c.run("export", "roam", path, "--push"); err == nil || !strings.Contains(err.Error(), "graph name is required") {
		t.Fatalf("expected missing graph error, got %v", err)
	}
}

const pulledPage = `{
  ":node/title": "Plan",
  ":block/uid": "page1",
  ":block/children": [
    {":block/string": "second", ":block/uid": "b2", ":block/order": 1},
    {":block/string": "first", ":block/uid": "b1", ":block/order": 0,
     ":children/view-type": ":numbered",
     ":block/children": [{":block/string": "nested", ":block/uid": "b3", ":block/order": 0}]}
  ]
}`

func TestImportPageFromGraph(t *testing.T) {
	c := newCLI(t)
	useStore(t)
	srv := newFakeRoam(t, pulledPage)
	useEnv(t, map[string]string{envRoamToken: "tok", envRoamGraph: "g", envRoamBaseURL: srv.URL})
	out := filepath.Join(t.TempDir(), "plan.yaml")

	var res struct {
		Title  string          `json:"title"`
		Out    string          `json:"out"`
		Blocks []outline.Block `json:"blocks"`
	}
	c.mustJSON(&res, "-o", "json", "import", "--page", "Plan", "--out", out)

	if res.Title != "Plan" || res.Out != out {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := strings.Join(keys(res.Blocks), ","); got != "b1,b3,b2" {
		t.Fatalf("keys = %s", got)
	}
	if res.Blocks[1].Type != outline.TypeNumberList || res.Blocks[1].Depth != 1 {
		t.Fatalf("nested block = %+v", res.Blocks[1])
	}
	if srv.paths[0] != "/api/graph/g/pull" {
		t.Fatalf("paths = %v", srv.paths)
	}

	saved, err := docfile.Load(out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved.Title != "Plan" || len(saved.Blocks) != 3 {
		t.Fatalf("saved = %+v", saved)
	}
}

func TestImportPageErrors(t *testing.T) {
	c := newCLI(t)
	useStore(t)
	srv := newFakeRoam(t, "null")
	useEnv(t, map[string]string{envRoamToken: "tok", envRoamGraph: "g"})

	_, stderr, err := c.run("-o", "json", "import", "--page", "Missing", "--base-url", srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	var env map[string]map[string]interface{}
	if err := json.Unmarshal([]byte(stderr), &env); err != nil {
		t.Fatalf("parse envelope: %v\n%s", err, stderr)
	}
	if env["error"]["type"] != "not_found" || env["error"]["page"] != "Missing" {
		t.Fatalf("envelope = %v", env)
	}

	path := writeDoc(t, "plan.md", "- a\n")
	if _, _, err := c.run("import", path, "--page", "Plan"); err == nil || !strings.Contains(err.Error(), "not both") {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if _, _, err := c.run("import"); err == nil || !strings.Contains(err.Error(), "--page is required") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}
