package printing

import (
	"context"
	"testing"
	"time"

	"github.com/campus/docgen/internal/domain/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRequest_Validation(t *testing.T) {
	tests := []struct {
		name     string
		req      *RenderRequest
		wantCode string
	}{
		{
			name:     "nil request",
			req:      nil,
			wantCode: ErrCodeInvalidHTML,
		},
		{
			name:     "whitespace only HTML",
			req:      &RenderRequest{HTML: "   \n\t  ", PaperSize: document.PaperSizeA4},
			wantCode: ErrCodeInvalidHTML,
		},
		{
			name:     "invalid paper size",
			req:      &RenderRequest{HTML: "<html>test</html>", PaperSize: document.PaperSize("LETTER")},
			wantCode: ErrCodeInvalidPaperSize,
		},
		{
			name:     "margins too large",
			req:      &RenderRequest{HTML: "<html>test</html>", PaperSize: document.PaperSizeA4, Margins: document.Margins{Top: 80}},
			wantCode: ErrCodeInvalidMargins,
		},
		{
			name: "valid A4 request",
			req:  &RenderRequest{HTML: "<html>test</html>", PaperSize: document.PaperSizeA4, Margins: document.DefaultMargins()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, tt.wantCode, renderErr.Code)
		})
	}
}

func TestRenderError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewRenderError(ErrCodeRenderTimeout, "timed out", cause)

	assert.Equal(t, "timed out: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "plain", NewRenderError(ErrCodeRenderFailed, "plain", nil).Error())
}

func TestRenderErr_Classification(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	assert.Equal(t, ErrCodeRenderTimeout, renderErr(expired, ErrCodeCaptureFailed, "x", time.Second, nil).Code)

	assert.Equal(t, ErrCodeCaptureFailed, renderErr(context.Background(), ErrCodeCaptureFailed, "x", time.Second, nil).Code)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var c Config
	c.applyDefaults()

	assert.Equal(t, ModeSnapshot, c.Mode)
	assert.Equal(t, defaultScaleFactor, c.ScaleFactor)
	assert.Equal(t, DefaultPageWidth, c.ViewportWidth)
	assert.Equal(t, defaultImageTimeout, c.ImageTimeout)
	assert.Equal(t, defaultSettleDelay, c.SettleDelay)
}

func TestBuildPrintParams(t *testing.T) {
	r := &ChromedpRenderer{browser: &browser{config: Config{PrintBackground: true}}}

	params := r.buildPrintParams(&RenderRequest{PaperSize: document.PaperSizeA4, Margins: document.DefaultMargins()})
	assert.InDelta(t, 8.27, params.paperWidth, 0.01)
	assert.InDelta(t, 11.69, params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(10), params.marginLeft, 0.0001)
	assert.True(t, params.printBackground)

	a5 := r.buildPrintParams(&RenderRequest{PaperSize: document.PaperSizeA5})
	assert.InDelta(t, mmToInches(148), a5.paperWidth, 0.0001)
}

func TestEstimatePageCount(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Kids [3 0 R 4 0 R] >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF")))
}

func TestNewRenderer_SelectsMode(t *testing.T) {
	snap := NewRenderer(Config{}, nil)
	defer snap.Close()
	assert.IsType(t, &SnapshotRenderer{}, snap)

	printer := NewRenderer(Config{Mode: ModePrint}, nil)
	defer printer.Close()
	assert.IsType(t, &ChromedpRenderer{}, printer)
}
