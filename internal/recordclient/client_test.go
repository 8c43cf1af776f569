package recordclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bbsmart-api/pkg/retry"
)

func TestClientFetchAllEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/records/students", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"S1"},{"id":"S2"}]}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL + "/api/v1/records/", Token: "secret"})
	records, err := client.FetchAll(context.Background(), "students")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"id":"S2"}`, string(records[1]))
}

func TestClientFetchAllBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(` [{"id":"M101","credit":3}]`))
	}))
	defer srv.Close()

	records, err := New(Config{BaseURL: srv.URL}).FetchAll(context.Background(), "subjects")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestClientUpsertBatchPostsArray(t *testing.T) {
	var got []json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/students/batch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := New(Config{BaseURL: srv.URL}).UpsertBatch(context.Background(), "students", []json.RawMessage{
		json.RawMessage(`{"id":"S1"}`),
		json.RawMessage(`{"id":"S2"}`),
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestClientUpsertBatchSkipsEmpty(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	require.NoError(t, New(Config{BaseURL: srv.URL}).UpsertBatch(context.Background(), "students", nil))
	assert.False(t, called)
}

func TestClientClassifiesFailures(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":{"code":"VALIDATION_ERROR"}}`))
	}))
	defer srv.Close()
	client := New(Config{BaseURL: srv.URL})

	err := client.UpsertOne(context.Background(), "videos", json.RawMessage(`{"id":"v1"}`))
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)

	status.Store(http.StatusServiceUnavailable)
	err = client.Delete(context.Background(), "videos", "v1")
	require.Error(t, err)
	assert.False(t, retry.IsPermanent(err))
}

func TestClientDeleteEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/meeting-places/room%2F1", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(Config{BaseURL: srv.URL}).Delete(context.Background(), "meeting-places", "room/1"))
}
