package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.GET("/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	var resp Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func TestSuccess(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		Success(c, gin.H{"token": "abc"})
	})

	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", data["token"])
}

func TestSuccess_NilData(t *testing.T) {
	resp := parseResponse(t, serve(t, func(c *gin.Context) {
		Success(c, nil)
	}))
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Nil(t, resp.Data)
}

func TestSuccessPage(t *testing.T) {
	resp := parseResponse(t, serve(t, func(c *gin.Context) {
		SuccessPage(c, 42, 2, 10, []string{"a", "b"})
	}))

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["total"])
	assert.Equal(t, float64(2), data["page"])
	assert.Equal(t, float64(10), data["page_size"])

	items, ok := data["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(*gin.Context, string)
		wantCode int
	}{
		{"param", ParamError, CodeParamError},
		{"auth", AuthError, CodeAuthFailed},
		{"permission", PermissionError, CodePermissionDenied},
		{"not found", NotFoundError, CodeResourceNotFound},
		{"quota", QuotaError, CodeQuotaExceeded},
		{"banned", BannedError, CodeUserBanned},
		{"server", ServerError, CodeServerError},
		{"upstream", UpstreamError, CodeUpstreamError},
	}

	for _, tt := range tests {
		t.Run(tt.name+" default message", func(t *testing.T) {
			w := serve(t, func(c *gin.Context) { tt.fn(c, "") })
			assert.Equal(t, http.StatusOK, w.Code)

			resp := parseResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, DefaultMessage(tt.wantCode), resp.Message)
			assert.NotEmpty(t, resp.Message)
			assert.Nil(t, resp.Data)
		})

		t.Run(tt.name+" custom message", func(t *testing.T) {
			resp := parseResponse(t, serve(t, func(c *gin.Context) { tt.fn(c, "custom") }))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, "custom", resp.Message)
		})
	}
}

func TestError_UnknownCode(t *testing.T) {
	resp := parseResponse(t, serve(t, func(c *gin.Context) {
		Error(c, 9999, "")
	}))
	assert.Equal(t, 9999, resp.Code)
	assert.Empty(t, resp.Message)
}

func TestAttachment(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		Attachment(c, "ramadan-day-1-mercy.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ramadan-day-1-mercy.png"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes())
}
