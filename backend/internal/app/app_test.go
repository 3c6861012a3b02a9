package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"graphpad/backend/internal/graph"
	"graphpad/backend/pkg/config"
	apperrors "graphpad/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// failingPingStore works like a memory store whose backing storage
// has gone unreachable
type failingPingStore struct {
	*graph.MemoryStore
}

func (s *failingPingStore) Ping(ctx context.Context) error {
	return errors.New("storage unreachable")
}

// newTestApp builds an instance and tears it down with the test
func newTestApp(t *testing.T, overlay map[string]any) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := New(overlay)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNewDefaultSecretKey(t *testing.T) {
	a := newTestApp(t, nil)

	assert.Equal(t, "dev", a.Config.SecretKey)
	assert.Equal(t, "development", a.Config.Env)
	assert.Equal(t, "memory", a.Config.GraphStore)
}

func TestNewOverlayWins(t *testing.T) {
	a := newTestApp(t, map[string]any{"SECRET_KEY": "prod-secret"})

	assert.Equal(t, "prod-secret", a.Config.SecretKey)
}

func TestNewPartialOverlayKeepsDefaults(t *testing.T) {
	a := newTestApp(t, map[string]any{"PORT": "9090"})

	assert.Equal(t, "9090", a.Config.Port)
	assert.Equal(t, "dev", a.Config.SecretKey)
	assert.Equal(t, "memory", a.Config.GraphStore)
}

func TestNewUnknownOverlayKeysKept(t *testing.T) {
	a := newTestApp(t, map[string]any{"FEATURE_FLAG": true})

	assert.Equal(t, true, a.Config.Extra["FEATURE_FLAG"])
	assert.Equal(t, "dev", a.Config.SecretKey)
}

func TestNewRejectsNonStringValue(t *testing.T) {
	_, err := New(map[string]any{"SECRET_KEY": 12345})

	assert.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
}

func TestNewStoresAreIndependent(t *testing.T) {
	ctx := context.Background()

	first := newTestApp(t, nil)
	second := newTestApp(t, nil)

	users, err := first.Store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, users)

	users, err = second.Store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, users)

	// A write through one instance never shows up in the other
	g := graph.NewGraph()
	g.Nodes = append(g.Nodes, graph.Node{ID: "a", Label: "A"})
	assert.NoError(t, first.Store.Put(ctx, "alice", g))

	users, err = first.Store.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice"}, users)

	users, err = second.Store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, users)
}

func TestNewRoutesRegistered(t *testing.T) {
	a := newTestApp(t, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/users", nil)
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string][]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Empty(t, response["users"])

	// Paths outside the collection stay unrouted
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/nope", nil)
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadyEndpoint(t *testing.T) {
	a := newTestApp(t, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ready", nil)
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ready", response["status"])
}

func TestReadyEndpointStoreUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &failingPingStore{MemoryStore: graph.NewMemoryStore()}
	a, err := NewWithConfig(config.Default(), store)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ready", nil)
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]string
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "unavailable", response["status"])
}

func TestNewDevAndOverlaidInstances(t *testing.T) {
	ctx := context.Background()

	plain := newTestApp(t, nil)
	overlaid := newTestApp(t, map[string]any{"SECRET_KEY": "prod-secret"})

	assert.Equal(t, "dev", plain.Config.SecretKey)
	assert.Equal(t, "prod-secret", overlaid.Config.SecretKey)

	users, err := plain.Store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, users)

	users, err = overlaid.Store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, users)
}
