package printing

import (
	"bytes"
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromedpRenderer prints the document page with Chrome's own PDF printer.
// Text stays selectable but layout follows Chrome's pagination.
type ChromedpRenderer struct {
	*browser
}

// NewChromedpRenderer creates the print mode renderer
func NewChromedpRenderer(config Config, logger *zap.Logger) *ChromedpRenderer {
	config.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromedpRenderer{browser: newBrowser(config, logger)}
}

// Render converts HTML content to PDF
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
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

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		setContent(req.HTML),
		chromedp.WaitReady(CaptureSelector, chromedp.ByQuery),
	); err != nil {
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

	params := r.buildPrintParams(req)

	var pdfData []byte
	err = chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(params.printBackground).
			WithPaperWidth(params.paperWidth).
			WithPaperHeight(params.paperHeight).
			WithMarginTop(params.marginTop).
			WithMarginRight(params.marginRight).
			WithMarginBottom(params.marginBottom).
			WithMarginLeft(params.marginLeft).
			WithPreferCSSPageSize(false).
			Do(ctx)
		if err != nil {
			return err
		}
		pdfData = data
		return nil
	}))
	if err != nil {
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, renderErr(ctx, ErrCodeRenderFailed, "chromedp execution failed", timeout, err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	pageCount := estimatePageCount(pdfData)
	renderDuration := time.Since(startTime)

	r.logger.Info("PDF rendered successfully",
		zap.String("mode", ModePrint),
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", pageCount),
		zap.Duration("duration", renderDuration))

	return &RenderResult{
		PDFData:        pdfData,
		PageCount:      pageCount,
		RenderDuration: renderDuration,
		Images:         images,
	}, nil
}

// printParams holds the parameters for PDF printing, in inches
type printParams struct {
	paperWidth      float64
	paperHeight     float64
	marginTop       float64
	marginRight     float64
	marginBottom    float64
	marginLeft      float64
	printBackground bool
}

func (r *ChromedpRenderer) buildPrintParams(req *RenderRequest) *printParams {
	width, height := req.PaperSize.Dimensions()
	return &printParams{
		paperWidth:      mmToInches(width),
		paperHeight:     mmToInches(height),
		marginTop:       mmToInches(req.Margins.Top),
		marginRight:     mmToInches(req.Margins.Right),
		marginBottom:    mmToInches(req.Margins.Bottom),
		marginLeft:      mmToInches(req.Margins.Left),
		printBackground: r.config.PrintBackground,
	}
}

// Close releases resources held by the renderer
func (r *ChromedpRenderer) Close() error {
	r.close()
	return nil
}

// NewRenderer creates the renderer selected by config.Mode
func NewRenderer(config Config, logger *zap.Logger) PDFRenderer {
	if config.Mode == ModePrint {
		return NewChromedpRenderer(config, logger)
	}
	return NewSnapshotRenderer(config, logger)
}

// mmToInches converts millimeters to inches
func mmToInches(mm float64) float64 {
	return mm / 25.4
}

// estimatePageCount counts page objects in a PDF
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page"))
	// "/Type /Pages" also matches the prefix
	count -= bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
