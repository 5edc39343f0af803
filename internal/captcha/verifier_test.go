package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/monitoring"
)

// newProvider 启动模拟验证接口并统计调用次数
func newProvider(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestVerifier(url, secret string, metrics *monitoring.Metrics) *Verifier {
	return NewVerifier(config.CaptchaConfig{
		Secret:    secret,
		VerifyURL: url,
		Timeout:   2 * time.Second,
	}, nil, metrics)
}

func TestVerifySuccess(t *testing.T) {
	srv, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok-123", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "hostname": "localhost"}`))
	})

	metrics := monitoring.NewMetrics(nil)
	v := newTestVerifier(srv.URL, "s3cret", metrics)

	assert.True(t, v.Verify(context.Background(), "tok-123"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CaptchaChecks.WithLabelValues(OutcomeSuccess)))
}

func TestVerifyEmptyTokenMakesNoCall(t *testing.T) {
	srv, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	})
	v := newTestVerifier(srv.URL, "s3cret", nil)

	assert.False(t, v.Verify(context.Background(), ""))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestVerifyEmptySecretMakesNoCall(t *testing.T) {
	srv, calls := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	})
	v := newTestVerifier(srv.URL, "", nil)

	assert.False(t, v.Verify(context.Background(), "tok"))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestVerifyFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
		}},
		{"success absent", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"hostname": "localhost"}`))
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>oops</html>`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success": true}`))
		}},
		{"success not boolean", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": "yes"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newProvider(t, tt.handler)
			v := newTestVerifier(srv.URL, "s3cret", nil)

			assert.False(t, v.Verify(context.Background(), "tok"))
			// 失败也只请求一次，不重试
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestVerifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	metrics := monitoring.NewMetrics(nil)
	v := newTestVerifier(url, "s3cret", metrics)

	assert.False(t, v.Verify(context.Background(), "tok"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CaptchaChecks.WithLabelValues(OutcomeError)))
}

func TestVerifyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	v := NewVerifier(config.CaptchaConfig{
		Secret:    "s3cret",
		VerifyURL: srv.URL,
		Timeout:   50 * time.Millisecond,
	}, nil, nil)

	start := time.Now()
	assert.False(t, v.Verify(context.Background(), "tok"))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestVerifyCanceledContext(t *testing.T) {
	srv, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	})
	v := newTestVerifier(srv.URL, "s3cret", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, v.Verify(ctx, "tok"))
}
