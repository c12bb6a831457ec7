package log

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf})

	r := gin.New()
	r.Use(GinMiddleware(logger, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/stats", func(c *gin.Context) {
		l := Ctx(c.Request.Context())
		l.Info().Msg("inside handler")
		c.Status(http.StatusOK)
	})

	t.Run("propagates request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.Header.Set(headerRequestID, "req-42")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Header().Get(headerRequestID))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)
		for _, line := range lines {
			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(line, &entry))
			assert.Equal(t, "req-42", entry[FieldRequestID])
		}
	})

	t.Run("generates request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(headerRequestID))
	})

	t.Run("quiet paths log below info", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, buf.Len())
	})
}
