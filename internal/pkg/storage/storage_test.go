package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ramadan_bot_server/config"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 5, 23, 0, 0, 0, time.UTC)

	a := ObjectKey(now, "ramadan-day-5-mercy.png")
	b := ObjectKey(now, "ramadan-day-5-mercy.png")

	assert.True(t, strings.HasPrefix(a, "flyers/2026/03/05/"))
	assert.True(t, strings.HasSuffix(a, "-ramadan-day-5-mercy.png"))
	assert.NotEqual(t, a, b)
}

func TestLocal_PutDelete(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/flyers/")
	require.NoError(t, err)

	url, err := l.Put(context.Background(), "2026/03/a.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/flyers/2026/03/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "2026", "03", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	require.NoError(t, l.Delete(context.Background(), "2026/03/a.png"))
	_, err = os.Stat(filepath.Join(dir, "2026", "03", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	require.NoError(t, l.Delete(context.Background(), "2026/03/a.png"))
}

func TestLocal_KeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(filepath.Join(dir, "store"), "/flyers")
	require.NoError(t, err)

	_, err = l.Put(context.Background(), "../../evil.png", []byte("x"), "image/png")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "evil.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "store", "evil.png"))
	assert.NoError(t, err)
}

func TestLocal_EmptyDir(t *testing.T) {
	_, err := NewLocal("", "/flyers")
	assert.Error(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "local", LocalDir: t.TempDir(), PublicBaseURL: "/flyers"}}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := s.(*Local)
	assert.True(t, ok)

	cfg.Storage.Backend = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestS3_PutDelete(t *testing.T) {
	var mu sync.Mutex
	requests := map[string]string{}
	var body []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		requests[r.Method] = r.URL.Path
		switch r.Method {
		case http.MethodPut:
			body, _ = io.ReadAll(r.Body)
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	s, err := NewS3(context.Background(), &config.S3Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "ramadan",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "flyers/a.png", []byte("png-data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/flyers/a.png", url)

	require.NoError(t, s.Delete(context.Background(), "flyers/a.png"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/ramadan/flyers/a.png", requests[http.MethodPut])
	assert.Equal(t, "/ramadan/flyers/a.png", requests[http.MethodDelete])
	assert.Contains(t, string(body), "png-data")
}

func TestS3_URLWithoutPublicURL(t *testing.T) {
	s := &S3{bucket: "ramadan"}
	assert.Equal(t, "https://ramadan.s3.amazonaws.com/k.png", s.URL("k.png"))
}
