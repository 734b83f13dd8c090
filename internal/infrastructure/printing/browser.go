package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 45 * time.Second
	defaultImageTimeout  = 10 * time.Second
	defaultSettleDelay   = 150 * time.Millisecond
	defaultScaleFactor   = 2.0
)

// Config contains configuration for the Chrome based renderers
type Config struct {
	// Mode is "snapshot" (default) or "print"
	Mode string
	// RemoteURL is the DevTools websocket of a running Chrome. When empty a
	// browser process is launched.
	RemoteURL  string
	Headless   bool
	NoSandbox  bool
	DisableGPU bool
	// RenderTimeout bounds one whole render
	RenderTimeout time.Duration
	// ImageTimeout bounds the preload barrier
	ImageTimeout time.Duration
	// SettleDelay is observed after the barrier before capturing
	SettleDelay time.Duration
	// ScaleFactor oversamples the capture region
	ScaleFactor     float64
	ViewportWidth   int
	PrintBackground bool
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeSnapshot
	}
	if c.RenderTimeout == 0 {
		c.RenderTimeout = defaultRenderTimeout
	}
	if c.ImageTimeout == 0 {
		c.ImageTimeout = defaultImageTimeout
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = defaultSettleDelay
	}
	if c.ScaleFactor <= 0 {
		c.ScaleFactor = defaultScaleFactor
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = DefaultPageWidth
	}
}

// Rendering modes
const (
	ModeSnapshot = "snapshot"
	ModePrint    = "print"
)

// browser owns the Chrome allocator shared by every render
type browser struct {
	config      Config
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func newBrowser(config Config, logger *zap.Logger) *browser {
	b := &browser{config: config, logger: logger}

	if config.RemoteURL != "" {
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
		return b
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", config.DisableGPU),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return b
}

// newTab opens a tab that is closed when ctx is done or cancel is called
func (b *browser) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			b.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	stop := context.AfterFunc(ctx, tabCancel)
	return tabCtx, func() {
		stop()
		tabCancel()
	}
}

func (b *browser) close() {
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

// imageWaiters returns one waiter per <img> below selector
func imageWaiters(tabCtx context.Context, selector string) ([]ImageWaiter, error) {
	var count int
	countJS := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector+" img")
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(countJS, &count)); err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	waiters := make([]ImageWaiter, 0, count)
	for i := 0; i < count; i++ {
		js := fmt.Sprintf(`new Promise((resolve) => {
			const img = document.querySelectorAll(%q)[%d];
			if (!img) { resolve(false); return; }
			if (img.complete) { resolve(img.naturalWidth > 0); return; }
			img.addEventListener('load', () => resolve(true), { once: true });
			img.addEventListener('error', () => resolve(false), { once: true });
		})`, selector+" img", i)

		waiters = append(waiters, func(ctx context.Context) (bool, error) {
			var loaded bool
			err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(c context.Context) error {
				// bound the evaluation by the barrier timeout
				c, cancel := context.WithCancel(c)
				defer context.AfterFunc(ctx, cancel)()
				defer cancel()
				return chromedp.Evaluate(js, &loaded, awaitPromise).Do(c)
			}))
			if err != nil && ctx.Err() != nil {
				return false, ctx.Err()
			}
			return loaded, err
		})
	}
	return waiters, nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// renderErr classifies a chromedp failure
func renderErr(ctx context.Context, code, message string, timeout time.Duration, err error) *RenderError {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
	case context.Canceled:
		return NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	}
	return NewRenderError(code, message, err)
}
