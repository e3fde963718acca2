package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListTargets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListTargets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 500)")
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.False(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_ListTargets(t *testing.T) {
	t.Parallel()

	targets := []domain.TargetStatus{
		{ID: "azabu", Name: "Azabu", Phase: domain.PhaseOpened, SlotCount: 3, AvailableCount: 1},
		{ID: "gallery", Phase: domain.PhaseUnopened},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/targets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(targets)
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.ListTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "azabu", result[0].ID)
	assert.Equal(t, domain.PhaseOpened, result[0].Phase)
	assert.Equal(t, 1, result[0].AvailableCount)
}

func TestClient_GetTarget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/targets/azabu", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.TargetStatus{
			ID:    "azabu",
			Phase: domain.PhaseOpened,
			Slots: []domain.Slot{{Key: "9/1", Status: domain.StatusAvailable}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.GetTarget(context.Background(), "azabu")
	require.NoError(t, err)
	require.Len(t, got.Slots, 1)
	assert.Equal(t, "9/1", got.Slots[0].Key)
}

func TestClient_GetTargetNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"target not found: nope"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetTarget(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_CheckTarget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/targets/azabu/check", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.CheckResult{
			TargetID:  "azabu",
			Phase:     domain.PhaseOpened,
			Outcome:   "opened",
			SlotCount: 2,
			Notifications: []domain.NotificationEvent{
				{Kind: domain.NotifyFirstOpened, Delivered: true},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.CheckTarget(context.Background(), "azabu")
	require.NoError(t, err)
	assert.Equal(t, "opened", res.Outcome)
	assert.Equal(t, 2, res.SlotCount)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, domain.NotifyFirstOpened, res.Notifications[0].Kind)
}

func TestClient_ResetTarget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/targets/azabu/state", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.ResetTarget(context.Background(), "azabu")
	require.NoError(t, err)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	c := New("http://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, c.httpClient)
}
