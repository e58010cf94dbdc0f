package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

func testDoc(t *testing.T) *outline.Document {
	t.Helper()
	blocks, _ := outline.RenumberDocument([]outline.Block{
		{Key: "t", Type: outline.TypeToggleList, Text: "fold"},
		{Key: "c", Type: outline.TypeBulletList, Depth: 1},
		{Key: "a", Type: outline.TypeNumberList},
		{Key: "b", Type: outline.TypeNumberList},
	})
	d, err := outline.NewDocument(blocks)
	require.NoError(t, err)
	return d
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestReadEndpoints(t *testing.T) {
	s := New(testDoc(t))

	rec, out := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	_, out = do(t, s, http.MethodGet, "/api/blocks", "")
	assert.Len(t, out["blocks"], 4)

	_, out = do(t, s, http.MethodGet, "/api/blocks?visible=true", "")
	assert.Len(t, out["blocks"], 3)

	_, out = do(t, s, http.MethodGet, "/api/tree", "")
	tree := out["tree"].([]any)
	require.Len(t, tree, 2)
	assert.Equal(t, "toggle-list", tree[0].(map[string]any)["type"])

	_, out = do(t, s, http.MethodGet, "/api/parents", "")
	parents := out["parents"].(map[string]any)
	assert.Equal(t, "t", parents["c"].(map[string]any)["parentKey"])
	assert.Equal(t, float64(1), parents["b"].(map[string]any)["order"])

	_, out = do(t, s, http.MethodGet, "/api/blocks/c/visible", "")
	assert.Equal(t, false, out["visible"])

	rec, out = do(t, s, http.MethodGet, "/api/blocks/zzz/visible", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, out["error"], "zzz")
}

func TestEditEndpoint(t *testing.T) {
	var saved []*outline.Document
	s := New(testDoc(t), WithPersist(func(d *outline.Document) error {
		saved = append(saved, d)
		return nil
	}))

	rec, out := do(t, s, http.MethodPost, "/api/edits", `{"op":"indent","start":"b"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["handled"])
	assert.Equal(t, float64(1), out["version"])
	require.Len(t, saved, 1)
	assert.Same(t, saved[0], s.Document())

	b, _ := s.Document().Block("b")
	assert.Equal(t, 1, b.Depth)
	assert.Equal(t, "a", b.Data.ParentKey)

	rec, out = do(t, s, http.MethodPost, "/api/edits", `{"op":"merge-backward","key":"t"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["handled"])

	rec, out = do(t, s, http.MethodPost, "/api/edits", `{"op":"outdent","start":"t"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["handled"])
	assert.Equal(t, float64(2), out["version"])
	assert.Len(t, saved, 2)
}

func TestEditErrors(t *testing.T) {
	s := New(testDoc(t))

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown field", `{"op":"indent","start":"a","bogus":1}`, http.StatusBadRequest},
		{"unknown op", `{"op":"split"}`, http.StatusBadRequest},
		{"missing key", `{"op":"merge-forward","key":"nope"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, s, http.MethodPost, "/api/edits", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
	assert.Equal(t, uint64(0), s.Document().Version())
}

func TestPersistFailureRejectsEdit(t *testing.T) {
	s := New(testDoc(t), WithPersist(func(*outline.Document) error {
		return errors.New("disk full")
	}))

	rec, out := do(t, s, http.MethodPost, "/api/edits", `{"op":"indent","start":"b"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, out["error"], "disk full")
	assert.Equal(t, uint64(0), s.Document().Version())
}

func TestConcurrentEditsAreSerialized(t *testing.T) {
	s := New(testDoc(t))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/edits", strings.NewReader(`{"op":"drag","keys":["b"],"target":"a"}`))
			s.ServeHTTP(httptest.NewRecorder(), req)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tree", nil))
		}()
	}
	wg.Wait()

	doc := s.Document()
	assert.Equal(t, 4, doc.Len())
	_, repaired := doc.Renumber()
	assert.False(t, repaired)
}
