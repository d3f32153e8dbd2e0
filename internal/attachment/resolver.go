// Package attachment downloads remote images and stages them as local files
// that can be attached to notification content.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	// Register the webp decoder with image.Decode, which imaging uses.
	_ "golang.org/x/image/webp"

	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

// Default bounds applied when Options leaves them zero.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 10 << 20
	fallbackExt     = "jpg"
)

// Outcome labels recorded in metrics.
const (
	OutcomeResolved   = "resolved"
	OutcomeBadURL     = "bad_url"
	OutcomeFetch      = "fetch_failed"
	OutcomeStatus     = "bad_status"
	OutcomeTooLarge   = "too_large"
	OutcomeWrite      = "write_failed"
	OutcomeNotAnImage = "not_an_image"
)

// mimeExtensions maps declared content types to file extensions.
var mimeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Resolver turns an image URL into a staged attachment.
type Resolver interface {
	// Resolve returns nil when the image cannot be fetched or staged. It never
	// fails the caller's operation.
	Resolve(ctx context.Context, rawURL string) *notification.Attachment
}

// Options configures an HTTPResolver.
type Options struct {
	// Dir is the staging directory. It is created on first use.
	Dir string
	// Timeout bounds the single download attempt.
	Timeout time.Duration
	// MaxBytes rejects bodies larger than this.
	MaxBytes int64
	// Transport overrides the base round tripper. Outbound requests are
	// always wrapped with otelhttp.
	Transport http.RoundTripper
}

// HTTPResolver downloads over HTTP(S) with one bounded attempt.
type HTTPResolver struct {
	dir      string
	maxBytes int64
	client   *http.Client
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// NewResolver creates an HTTPResolver.
func NewResolver(opts Options, metrics *telemetry.Metrics, logger *slog.Logger) *HTTPResolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &HTTPResolver{
		dir:      opts.Dir,
		maxBytes: opts.MaxBytes,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		metrics: metrics,
		logger:  logger,
	}
}

var errTooLarge = errors.New("attachment exceeds size limit")

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, rawURL string) *notification.Attachment {
	att, result, err := r.resolve(ctx, rawURL)
	r.metrics.Attachment(result)
	if err != nil {
		r.logger.Warn("attachment not resolved",
			"url", rawURL, "outcome", result, "error", err)
		return nil
	}
	r.logger.Debug("attachment staged", "url", rawURL, "path", att.Path)
	return att
}

func (r *HTTPResolver) resolve(ctx context.Context, rawURL string) (*notification.Attachment, string, error) {
	u, err := parseImageURL(rawURL)
	if err != nil {
		return nil, OutcomeBadURL, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, OutcomeBadURL, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, OutcomeFetch, fmt.Errorf("fetching attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, OutcomeStatus, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, OutcomeTooLarge, errTooLarge
	}

	mimeType := mediaType(resp.Header.Get("Content-Type"))
	ext := Extension(mimeType, u)

	filePath, err := r.stage(resp.Body, ext)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, OutcomeTooLarge, err
		}
		return nil, OutcomeWrite, err
	}

	att, err := wrap(filePath, ext, mimeType)
	if err != nil {
		_ = os.Remove(filePath)
		return nil, OutcomeNotAnImage, err
	}
	return att, OutcomeResolved, nil
}

// stage writes body into a fresh file under the staging directory.
func (r *HTTPResolver) stage(body io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(r.dir, 0750); err != nil {
		return "", fmt.Errorf("creating attachment directory %q: %w", r.dir, err)
	}

	filePath := filepath.Join(r.dir, uuid.NewString()+"."+ext)
	//nolint:gosec // file name is generated, directory is configured
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("creating attachment file: %w", err)
	}

	// One extra byte detects bodies that exceed the limit.
	n, copyErr := io.Copy(f, io.LimitReader(body, r.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("writing attachment: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("closing attachment: %w", closeErr)
	case n > r.maxBytes:
		err = errTooLarge
	case n == 0:
		err = errors.New("empty attachment body")
	}
	if err != nil {
		_ = os.Remove(filePath)
		return "", err
	}
	return filePath, nil
}

// wrap validates that the staged file is a decodable image and records its
// dimensions.
func wrap(filePath, ext, mimeType string) (*notification.Attachment, error) {
	img, err := imaging.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("decoding attachment image: %w", err)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension("." + ext)
	}
	b := img.Bounds()
	return &notification.Attachment{
		ID:       uuid.NewString(),
		Path:     filePath,
		Ext:      ext,
		MIMEType: mimeType,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

func parseImageURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parsing attachment url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported attachment url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("attachment url has no host")
	}
	return u, nil
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// Extension picks the staged file extension: the declared MIME type first,
// then the URL path's extension, then jpg.
func Extension(mimeType string, u *url.URL) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}
	if u != nil {
		if ext := strings.TrimPrefix(path.Ext(u.Path), "."); ext != "" && isSafeExt(ext) {
			return strings.ToLower(ext)
		}
	}
	return fallbackExt
}

func isSafeExt(ext string) bool {
	if len(ext) > 8 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
