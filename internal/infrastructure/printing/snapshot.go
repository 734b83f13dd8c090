package printing

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// initial viewport height; the capture follows the element's full height
const viewportHeight = 1123

// SnapshotRenderer captures the rendered document as a bitmap and places
// it on a single PDF page
type SnapshotRenderer struct {
	*browser
}

// NewSnapshotRenderer creates the snapshot pipeline
func NewSnapshotRenderer(config Config, logger *zap.Logger) *SnapshotRenderer {
	config.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotRenderer{browser: newBrowser(config, logger)}
}

// Render runs barrier, capture and composition for req
func (r *SnapshotRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	startTime := time.Now()

	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.config.RenderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tabCtx, tabCancel := r.newTab(ctx)
	defer tabCancel()

	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(r.config.ViewportWidth), viewportHeight),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 255, G: 255, B: 255, A: 1}),
		chromedp.Navigate("about:blank"),
		setContent(req.HTML),
		chromedp.WaitReady(CaptureSelector, chromedp.ByQuery),
	)
	if err != nil {
		r.logger.Error("failed to load document page", zap.Error(err))
		return nil, renderErr(ctx, ErrCodeRenderFailed, "failed to load document page", timeout, err)
	}

	waiters, err := imageWaiters(tabCtx, CaptureSelector)
	if err != nil {
		return nil, renderErr(ctx, ErrCodeRenderFailed, "failed to inspect document images", timeout, err)
	}
	images, err := AwaitImages(ctx, waiters, r.config.ImageTimeout, r.config.SettleDelay)
	if err != nil {
		return nil, renderErr(ctx, ErrCodeRenderFailed, "image preload interrupted", timeout, err)
	}
	if images.Failed > 0 || images.TimedOut > 0 {
		r.logger.Warn("capturing with images that did not load",
			zap.Int("failed", images.Failed),
			zap.Int("timed_out", images.TimedOut),
		)
	}

	var shot []byte
	if err := chromedp.Run(tabCtx,
		chromedp.ScreenshotScale(CaptureSelector, r.config.ScaleFactor, &shot, chromedp.ByQuery),
	); err != nil {
		r.logger.Error("snapshot capture failed", zap.Error(err))
		return nil, renderErr(ctx, ErrCodeCaptureFailed, "snapshot capture failed", timeout, err)
	}

	pdfData, err := ComposePDF(shot, req.Title, req.PaperSize, req.Margins)
	if err != nil {
		return nil, err
	}

	renderDuration := time.Since(startTime)
	r.logger.Info("PDF rendered successfully",
		zap.String("mode", ModeSnapshot),
		zap.Int("bytes", len(pdfData)),
		zap.Int("images", images.Total()),
		zap.Duration("duration", renderDuration))

	return &RenderResult{
		PDFData:        pdfData,
		PageCount:      1,
		RenderDuration: renderDuration,
		Images:         images,
	}, nil
}

// Close releases the browser
func (r *SnapshotRenderer) Close() error {
	r.close()
	return nil
}

func setContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		frameTree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
	})
}

var _ PDFRenderer = (*SnapshotRenderer)(nil)
