package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu      sync.Mutex
	indices map[string]bool
	docs    map[string][]json.RawMessage
}

func newFakeCluster(t *testing.T) (*fakeCluster, *httptest.Server) {
	t.Helper()
	f := &fakeCluster{indices: map[string]bool{}, docs: map[string][]json.RawMessage{}}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeCluster) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	index := parts[0]
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		if !f.indices[index] {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && len(parts) == 1:
		f.indices[index] = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "_doc":
		body, _ := io.ReadAll(r.Body)
		f.docs[index] = append(f.docs[index], body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case len(parts) == 2 && parts[1] == "_search":
		hits := make([]map[string]json.RawMessage, 0, len(f.docs[index]))
		for _, doc := range f.docs[index] {
			hits = append(hits, map[string]json.RawMessage{"_source": doc})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": hits}})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func TestNewClient_CreatesIndices(t *testing.T) {
	cluster, server := newFakeCluster(t)

	client, err := NewClient(context.Background(), &config.AppConfig{OpenSearchURL: server.URL, EnableLogging: true})
	require.NoError(t, err)
	assert.True(t, client.IsEnabled())
	assert.True(t, cluster.indices[SystemLogIndex])
	assert.True(t, cluster.indices[WebhookLogIndex])
}

func TestNewClient_DisabledSkipsSetup(t *testing.T) {
	cluster, server := newFakeCluster(t)

	client, err := NewClient(context.Background(), &config.AppConfig{OpenSearchURL: server.URL})
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.Empty(t, cluster.indices)
}

func TestClient_IsEnabledNil(t *testing.T) {
	var c *Client
	assert.False(t, c.IsEnabled())
}
