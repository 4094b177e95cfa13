package turnstile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

func newTestVerifier(t *testing.T, cfg config.TurnstileConfig) Verifier {
	t.Helper()
	v, err := New(Params{Config: cfg, Logger: logger.New(logger.Options{ServiceName: "test"})})
	require.NoError(t, err)
	return v
}

func TestVerifyDisabledAlwaysPasses(t *testing.T) {
	v := newTestVerifier(t, config.TurnstileConfig{Enabled: false})
	ok, err := v.Verify(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "top-secret", r.Form.Get("secret"))
		assert.Equal(t, "tok-123", r.Form.Get("response"))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	v := newTestVerifier(t, config.TurnstileConfig{
		Enabled:   true,
		Secret:    "top-secret",
		VerifyURL: srv.URL,
		Timeout:   time.Second,
	})
	ok, err := v.Verify(context.Background(), "tok-123", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := newTestVerifier(t, config.TurnstileConfig{
		Enabled:   true,
		Secret:    "top-secret",
		VerifyURL: srv.URL,
		Timeout:   time.Second,
	})
	ok, err := v.Verify(context.Background(), "bad", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyFailsClosedWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	v := newTestVerifier(t, config.TurnstileConfig{
		Enabled:   true,
		Secret:    "top-secret",
		VerifyURL: srv.URL,
		Timeout:   time.Second,
	})
	ok, err := v.Verify(context.Background(), "tok", "")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestVerifyEmptyTokenFails(t *testing.T) {
	v := newTestVerifier(t, config.TurnstileConfig{
		Enabled: true,
		Secret:  "top-secret",
	})
	ok, err := v.Verify(context.Background(), "  ", "")
	require.NoError(t, err)
	assert.False(t, ok)
}
