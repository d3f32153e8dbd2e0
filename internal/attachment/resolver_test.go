package attachment_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifyd/internal/attachment"
	"github.com/shaharia-lab/notifyd/internal/logger"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func encoded(t *testing.T, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch format {
	case "png":
		require.NoError(t, png.Encode(&buf, testImage()))
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	case "gif":
		require.NoError(t, gif.Encode(&buf, testImage(), nil))
	}
	return buf.Bytes()
}

func serve(contentType string, status int, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

func newResolver(t *testing.T, opts attachment.Options) (*attachment.HTTPResolver, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "attachments")
	opts.Dir = dir
	return attachment.NewResolver(opts, telemetry.NewMetrics(), logger.Discard()), dir
}

func stagedFiles(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestResolve_PNG(t *testing.T) {
	srv := httptest.NewServer(serve("image/png", http.StatusOK, encoded(t, "png")))
	defer srv.Close()

	r, dir := newResolver(t, attachment.Options{})
	att := r.Resolve(context.Background(), srv.URL+"/image")

	require.NotNil(t, att)
	assert.NotEmpty(t, att.ID)
	assert.Equal(t, "png", att.Ext)
	assert.Equal(t, "image/png", att.MIMEType)
	assert.Equal(t, 4, att.Width)
	assert.Equal(t, 3, att.Height)
	assert.Equal(t, dir, filepath.Dir(att.Path))
	assert.Equal(t, ".png", filepath.Ext(att.Path))
	assert.FileExists(t, att.Path)
}

func TestResolve_ExtensionFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		format  string
		wantExt string
	}{
		{name: "url extension", path: "/pictures/cat.gif", format: "gif", wantExt: "gif"},
		{name: "jpg fallback", path: "/pictures/cat", format: "jpeg", wantExt: "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(serve("application/octet-stream", http.StatusOK, encoded(t, tt.format)))
			defer srv.Close()

			r, _ := newResolver(t, attachment.Options{})
			att := r.Resolve(context.Background(), srv.URL+tt.path)
			require.NotNil(t, att)
			assert.Equal(t, tt.wantExt, att.Ext)
		})
	}
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		path    string
	}{
		{name: "not found", handler: serve("image/png", http.StatusNotFound, nil)},
		{name: "server error", handler: serve("image/png", http.StatusInternalServerError, encoded(t, "png"))},
		{name: "non-image body", handler: serve("image/png", http.StatusOK, []byte("hello, not an image"))},
		{name: "empty body", handler: serve("image/png", http.StatusOK, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			r, dir := newResolver(t, attachment.Options{})
			assert.Nil(t, r.Resolve(context.Background(), srv.URL+"/img.png"))
			assert.Empty(t, stagedFiles(t, dir))
		})
	}
}

func TestResolve_TooLarge(t *testing.T) {
	body := encoded(t, "png")
	srv := httptest.NewServer(serve("image/png", http.StatusOK, body))
	defer srv.Close()

	r, dir := newResolver(t, attachment.Options{MaxBytes: int64(len(body) - 1)})
	assert.Nil(t, r.Resolve(context.Background(), srv.URL))
	assert.Empty(t, stagedFiles(t, dir))
}

func TestResolve_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	r, _ := newResolver(t, attachment.Options{Timeout: 50 * time.Millisecond})
	start := time.Now()
	assert.Nil(t, r.Resolve(context.Background(), srv.URL))
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolve_BadURL(t *testing.T) {
	r, _ := newResolver(t, attachment.Options{})
	for _, raw := range []string{"", "::not a url", "ftp://example.com/a.png", "file:///etc/passwd", "http://"} {
		t.Run(raw, func(t *testing.T) {
			assert.Nil(t, r.Resolve(context.Background(), raw))
		})
	}
}

func TestExtension(t *testing.T) {
	mustURL := func(s string) *url.URL {
		u, err := url.Parse(s)
		require.NoError(t, err)
		return u
	}
	assert.Equal(t, "webp", attachment.Extension("image/webp", mustURL("https://x.test/a.png")))
	assert.Equal(t, "png", attachment.Extension("", mustURL("https://x.test/a.PNG")))
	assert.Equal(t, "jpg", attachment.Extension("text/html", mustURL("https://x.test/a")))
	assert.Equal(t, "jpg", attachment.Extension("", mustURL("https://x.test/a.p$g")))
	assert.Equal(t, "jpg", attachment.Extension("", nil))
}
