package httpclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(http.StatusTooManyRequests))
	assert.True(t, IsRetryableStatus(http.StatusBadGateway))
	assert.False(t, IsRetryableStatus(http.StatusOK))
	assert.False(t, IsRetryableStatus(http.StatusUnauthorized))
	assert.False(t, IsRetryableStatus(http.StatusNotFound))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(errors.New("boom")))
	assert.True(t, IsRetryableError(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
	assert.True(t, IsRetryableError(&net.DNSError{Err: "no such host", Name: "sheets.invalid"}))
	assert.True(t, IsRetryableError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
}

func TestNewRetriesOnce(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(
		WithBaseURL(srv.URL),
		WithTimeout(time.Second),
		WithRetryWaitTime(time.Millisecond),
		WithRetryMaxWaitTime(time.Millisecond),
	)

	resp, err := client.R().Get("/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.Equal(t, int32(2), calls.Load())
}
