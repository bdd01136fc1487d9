package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/langbridge/internal/domain/entity"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *UserIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The client refuses to talk to a server that does not identify as Elasticsearch.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewUserIndex(es, "users")
}

func TestDocument_OmitsCredentials(t *testing.T) {
	u := &entity.User{ID: "u1", FullName: "Ana", Email: "ana@example.com", Password: "hash", IsOnboarded: true, CreatedAt: time.Now()}
	doc := Document(u)
	assert.Equal(t, "u1", doc["id"])
	assert.NotContains(t, doc, "email")
	assert.NotContains(t, doc, "password")
}

func TestUserIndex_Index(t *testing.T) {
	var gotPath string
	var body map[string]any
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	err := x.Index(context.Background(), &entity.User{ID: "u1", FullName: "Ana", NativeLanguage: "spanish"})
	require.NoError(t, err)
	assert.Equal(t, "/users/_doc/u1", gotPath)
	assert.Equal(t, "spanish", body["native_language"])
}

func TestUserIndex_Search(t *testing.T) {
	var query map[string]any
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/_search"))
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &query)
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"u2","_source":{"id":"u2","full_name":"Ben"}}]}}`))
	})

	hits, err := x.Search(context.Background(), "ben", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ben", hits[0]["full_name"])
	assert.EqualValues(t, 5, query["size"])
}

func TestUserIndex_SearchErrorStatus(t *testing.T) {
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})
	_, err := x.Search(context.Background(), "x", 5)
	assert.Error(t, err)
}

func TestUserIndex_EnsureIndex(t *testing.T) {
	var created bool
	var mappingBody map[string]any
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			if created {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			assert.Equal(t, "/users", r.URL.Path)
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &mappingBody)
			created = true
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	require.NoError(t, x.EnsureIndex(context.Background()))
	require.True(t, created)
	assert.Contains(t, mappingBody, "mappings")

	// Second call sees the index and does not recreate it.
	mappingBody = nil
	require.NoError(t, x.EnsureIndex(context.Background()))
	assert.Nil(t, mappingBody)
}
