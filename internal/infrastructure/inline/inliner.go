// Package inline converts signature images into base64 data URL payloads
// so that rendered documents carry no external image references.
package inline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/campus/docgen/internal/domain/document"
	"github.com/campus/docgen/internal/infrastructure/backend"
	"github.com/campus/docgen/internal/infrastructure/storage"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrNotAnImage is returned when a fetched payload is not an image
var ErrNotAnImage = errors.New("payload is not an image")

// Fetcher downloads a reference with the school backend's credentials
type Fetcher interface {
	FetchBinary(ctx context.Context, ref string, maxBytes int64) ([]byte, string, error)
}

// ObjectGetter reads s3:// references
type ObjectGetter interface {
	Get(ctx context.Context, ref string, maxBytes int64) ([]byte, string, error)
}

// Config holds inlining settings
type Config struct {
	Concurrency     int
	Timeout         time.Duration
	MaxImageBytes   int64
	FallbackEnabled bool
}

// Inliner fetches signature images and encodes them
type Inliner struct {
	primary Fetcher
	objects ObjectGetter
	public  *http.Client
	cfg     Config
	logger  *zap.Logger
	group   singleflight.Group
}

// Option configures the Inliner
type Option func(*Inliner)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(i *Inliner) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithObjectStorage enables s3:// signature references
func WithObjectStorage(objects ObjectGetter) Option {
	return func(i *Inliner) {
		i.objects = objects
	}
}

// WithPublicClient sets the HTTP client of the unauthenticated fallback
func WithPublicClient(hc *http.Client) Option {
	return func(i *Inliner) {
		if hc != nil {
			i.public = hc
		}
	}
}

// New creates an Inliner using primary for authenticated downloads
func New(primary Fetcher, cfg Config, opts ...Option) *Inliner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	i := &Inliner{
		primary: primary,
		cfg:     cfg,
		logger:  zap.NewNop(),
		public:  &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inline converts the asset's image. Failures are logged and reported as
// false; they never abort document generation.
//
// Concurrent calls for the same reference and the same forwarded token share
// one fetch. The shared fetch does not inherit the caller's cancellation and
// is bounded by the configured timeout instead, so a caller that goes away
// only stops waiting.
func (i *Inliner) Inline(ctx context.Context, asset document.SignatureAsset) (document.InlinedImage, bool) {
	if !asset.HasImage() {
		return document.InlinedImage{}, false
	}
	ref := strings.TrimSpace(asset.SignatureImageURL)

	fetchCtx := context.WithoutCancel(ctx)
	ch := i.group.DoChan(flightKey(ctx, ref), func() (any, error) {
		return i.inline(fetchCtx, ref)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		i.logger.Debug("signature inlining abandoned",
			zap.String("signature_id", asset.ID),
			zap.Error(ctx.Err()),
		)
		return document.InlinedImage{}, false
	case res = <-ch:
	}

	if res.Err != nil {
		i.logger.Warn("signature image could not be inlined",
			zap.String("signature_id", asset.ID),
			zap.String("url", ref),
			zap.Error(res.Err),
		)
		return document.InlinedImage{}, false
	}

	img := res.Val.(document.InlinedImage)
	i.logger.Debug("signature image inlined",
		zap.String("signature_id", asset.ID),
		zap.String("media_type", img.MediaType),
		zap.Bool("shared", res.Shared),
	)
	return img, true
}

// flightKey scopes fetch sharing to callers presenting the same credentials
func flightKey(ctx context.Context, ref string) string {
	token := backend.TokenFromContext(ctx)
	if token == "" {
		return ref
	}
	sum := sha256.Sum256([]byte(token))
	return ref + "#" + hex.EncodeToString(sum[:])
}

// InlineAll converts every asset with an image, at most Concurrency at a
// time. Only successful conversions are present in the result, keyed by
// asset ID.
func (i *Inliner) InlineAll(ctx context.Context, assets []document.SignatureAsset) map[string]document.InlinedImage {
	var (
		mu     sync.Mutex
		result = make(map[string]document.InlinedImage, len(assets))
		seen   = make(map[string]struct{}, len(assets))
	)

	var g errgroup.Group
	g.SetLimit(i.cfg.Concurrency)

	for _, asset := range assets {
		if !asset.HasImage() {
			continue
		}
		if _, dup := seen[asset.ID]; dup {
			continue
		}
		seen[asset.ID] = struct{}{}

		g.Go(func() error {
			img, ok := i.Inline(ctx, asset)
			if !ok {
				return nil
			}
			mu.Lock()
			result[asset.ID] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (i *Inliner) inline(ctx context.Context, ref string) (document.InlinedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	if storage.IsObjectURL(ref) {
		if i.objects == nil {
			return document.InlinedImage{}, fmt.Errorf("object storage is not configured for %s", ref)
		}
		data, contentType, err := i.objects.Get(ctx, ref, i.cfg.MaxImageBytes)
		if err != nil {
			return document.InlinedImage{}, err
		}
		return encode(data, contentType)
	}

	img, primaryErr := i.fetchPrimary(ctx, ref)
	if primaryErr == nil {
		return img, nil
	}
	if !i.cfg.FallbackEnabled || !isAbsoluteHTTP(ref) || ctx.Err() != nil {
		return document.InlinedImage{}, primaryErr
	}

	i.logger.Debug("authenticated image fetch failed, retrying without credentials",
		zap.String("url", ref),
		zap.Error(primaryErr),
	)
	data, contentType, err := backend.FetchPublic(ctx, i.public, ref, i.cfg.MaxImageBytes)
	if err != nil {
		return document.InlinedImage{}, fmt.Errorf("primary: %v; fallback: %w", primaryErr, err)
	}
	return encode(data, contentType)
}

func (i *Inliner) fetchPrimary(ctx context.Context, ref string) (document.InlinedImage, error) {
	if i.primary == nil {
		return document.InlinedImage{}, errors.New("no authenticated fetcher")
	}
	data, contentType, err := i.primary.FetchBinary(ctx, ref, i.cfg.MaxImageBytes)
	if err != nil {
		return document.InlinedImage{}, err
	}
	return encode(data, contentType)
}

// encode picks the media type from the response header, sniffing the
// payload when the header is missing or generic
func encode(data []byte, contentType string) (document.InlinedImage, error) {
	if len(data) == 0 {
		return document.InlinedImage{}, errors.New("empty image payload")
	}
	mediaType := MediaType(data, contentType)
	if !strings.HasPrefix(mediaType, "image/") {
		return document.InlinedImage{}, fmt.Errorf("%w: %s", ErrNotAnImage, mediaType)
	}
	return document.NewInlinedImage(mediaType, data), nil
}

// MediaType returns the image media type of data
func MediaType(data []byte, contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	mt := mimetype.Detect(data).String()
	if idx := strings.IndexByte(mt, ';'); idx >= 0 {
		mt = mt[:idx]
	}
	return mt
}

func isAbsoluteHTTP(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
