package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/backend"
)

func TestCatalogEmptyListShowsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/list-docs", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc := NewCatalogService(backend.NewClientWithHTTP(srv.URL, srv.Client()), nil)
	require.NoError(t, svc.Refresh(context.Background()))

	state := svc.State()
	assert.True(t, state.Loaded)
	assert.True(t, state.Empty)
	assert.Equal(t, EmptyCatalogPlaceholder, state.Placeholder)
	assert.Empty(t, state.Documents)
}

func TestCatalogFailureKeepsPreviousList(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"filename":"policy.pdf","upload_timestamp":"2024-05-01 10:00:00"},{"id":2,"filename":"faq.html"}]`))
	}))
	defer srv.Close()

	svc := NewCatalogService(backend.NewClientWithHTTP(srv.URL, srv.Client()), nil)
	require.NoError(t, svc.Refresh(context.Background()))

	fail.Store(true)
	err := svc.Refresh(context.Background())
	var statusErr *backend.StatusError
	require.True(t, errors.As(err, &statusErr))

	state := svc.State()
	assert.False(t, state.Empty)
	require.Len(t, state.Documents, 2)
	assert.Equal(t, "policy.pdf", state.Documents[0].Filename)
	assert.Equal(t, "2024-05-01 10:00:00", state.Documents[0].UploadedAt)
	assert.Equal(t, "faq.html", state.Documents[1].Filename)
}

func TestCatalogDeleteRefreshes(t *testing.T) {
	var lists int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/delete-doc":
			assert.Equal(t, http.MethodDelete, r.Method)
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"file_id":4}`, string(raw))
			_, _ = w.Write([]byte(`{"message":"deleted"}`))
		case "/list-docs":
			atomic.AddInt32(&lists, 1)
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	svc := NewCatalogService(backend.NewClientWithHTTP(srv.URL, srv.Client()), nil)
	require.NoError(t, svc.Delete(context.Background(), 4))
	assert.Equal(t, int32(1), atomic.LoadInt32(&lists))

	assert.ErrorIs(t, svc.Delete(context.Background(), 0), ErrInvalidDocument)
}
