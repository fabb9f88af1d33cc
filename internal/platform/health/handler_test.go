package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(New("test", "simulated"), "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		h := New("test", "simulated")
		h.RegisterCheck("storage", func(context.Context) error { return nil })

		rec := serve(h, "/health/ready")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "up", resp.Checks["storage"])
	})

	t.Run("one down", func(t *testing.T) {
		h := New("test", "live")
		h.RegisterCheck("storage", func(context.Context) error { return nil })
		h.RegisterCheck("backend", func(context.Context) error { return errors.New("circuit open") })

		rec := serve(h, "/health/ready")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "down: circuit open", resp.Checks["backend"])
	})

	t.Run("checks get a deadline", func(t *testing.T) {
		h := New("test", "simulated")
		var hasDeadline bool
		h.RegisterCheck("storage", func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		})
		serve(h, "/health/ready")
		assert.True(t, hasDeadline)
	})
}

func TestStatus(t *testing.T) {
	rec := serve(New("production", "live"), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "production", resp.Environment)
	assert.Equal(t, "live", resp.Backend)
	assert.Equal(t, Version, resp.Version)
}
