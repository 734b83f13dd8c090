// Package printing turns hydrated documents into PDF files.
//
// The default snapshot pipeline renders the document page in headless
// Chrome, waits for every image in the capture region, screenshots the
// region at an oversampling factor and places the bitmap on a single page:
//
//	html, err := BuildDocumentHTML(page)
//	renderer, err := NewRenderer(cfg, logger)
//	result, err := renderer.Render(ctx, &RenderRequest{
//	    HTML:      html,
//	    PaperSize: document.PaperSizeA4,
//	    Margins:   document.DefaultMargins(),
//	})
//
// The print mode hands the same HTML to Chrome's own PDF printer instead.
package printing
