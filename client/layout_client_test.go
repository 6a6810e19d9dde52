package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableJSON = `{"rows":[{"cells":[{"text":"XS2530201644"},{"text":"199'080"},{"text":"USD"}]}]}`

func TestExtractTableRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tableJSON))
	}))
	defer server.Close()

	c := NewLayoutClient(server.URL, 5*time.Second, 3)
	rows, err := c.ExtractTable(context.Background(), []byte("pdf-bytes-retry"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "XS2530201644", rows[0].Cells[0].Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExtractTableGivesUpAfterRetryBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewLayoutClient(server.URL, 5*time.Second, 2)
	_, err := c.ExtractTable(context.Background(), []byte("pdf-bytes-exhaust"))
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExtractTableDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewLayoutClient(server.URL, 5*time.Second, 3)
	_, err := c.ExtractTable(context.Background(), []byte("pdf-bytes-badreq"))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExtractTableCachesByChecksum(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tableJSON))
	}))
	defer server.Close()

	c := NewLayoutClient(server.URL, 5*time.Second, 3)
	doc := []byte("pdf-bytes-cache")

	_, err := c.ExtractTable(context.Background(), doc)
	require.NoError(t, err)
	rows, err := c.ExtractTable(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Same document checksum: the second call never reaches the backend.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
