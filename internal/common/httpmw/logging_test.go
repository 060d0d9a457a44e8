package httpmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/common/logger"
)

func TestRequestLogger_LogsMethodPathAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logPath := filepath.Join(t.TempDir(), "requests.log")
	log, err := logger.New(logger.Config{Level: "info", Format: "json", OutputPath: logPath})
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequestLogger(log))
	router.GET("/widgets", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	require.NoError(t, log.Sync())
	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	body := string(raw)
	require.Contains(t, body, `"method":"GET"`)
	require.Contains(t, body, `"path":"/widgets"`)
	require.Contains(t, body, `"status":418`)
}
