package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewTeesJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("production", &buf)
	require.NoError(t, err)

	l.Info("Order fulfilled", zap.String("order_id", "o-1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "Order fulfilled", entry["msg"])
	assert.Equal(t, "o-1", entry["order_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewIndependentLoggers(t *testing.T) {
	var first, second bytes.Buffer
	a, err := New("production", &first)
	require.NoError(t, err)
	b, err := New("production", &second)
	require.NoError(t, err)

	a.Info("only first")
	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
	b.Info("only second")
	assert.NotContains(t, first.String(), "only second")
}

func TestRequestIDAnnotatesLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		FromContext(c, base).Info("handled")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}
