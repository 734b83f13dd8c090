package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/campus/docgen/internal/domain/document"
	"github.com/microcosm-cc/bluemonday"
)

// CaptureSelector is the element that is screenshotted in snapshot mode
const CaptureSelector = "#document"

// DefaultPageWidth is an A4 page at 96 CSS pixels per inch
const DefaultPageWidth = 794

// DocumentPage is the view model of one rendered document
type DocumentPage struct {
	Document   document.HydratedDocument
	SchoolName string
	// Signature is nil when no signature was selected or it could not be inlined
	Signature *SignatureBlock
	// Width of the capture region in CSS pixels
	Width int
}

// SignatureBlock is an inlined signature shown below the body
type SignatureBlock struct {
	Name  string
	Image document.InlinedImage
}

// markup keeps the layout letters are authored with: inline formatting,
// block elements, headings, lists, tables, links and text alignment.
// Images and scripts are dropped; the only image is the inlined signature.
var markup = newMarkupPolicy()

func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements(
		"b", "strong", "i", "em", "u", "s", "sub", "sup", "small", "span", "br",
		"p", "div", "blockquote", "hr", "h1", "h2", "h3", "h4", "h5", "h6", "a",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowLists()
	p.AllowTables()
	p.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("p", "div", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()
	p.AllowStyles("font-weight").MatchingEnum("normal", "bold").Globally()
	return p
}

var pageTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; background: #ffffff; }
  #document {
    box-sizing: border-box;
    width: {{.Width}}px;
    padding: 56px 64px;
    background: #ffffff;
    color: #1f2328;
    font-family: "Helvetica Neue", Arial, sans-serif;
    font-size: 14px;
    line-height: 1.6;
  }
  .school { font-size: 12px; color: #57606a; text-transform: uppercase; letter-spacing: 0.08em; }
  h1 { font-size: 20px; margin: 24px 0 16px; }
  .to { margin-bottom: 24px; font-weight: 600; }
  .body { text-align: justify; }
  .signature { margin-top: 40px; }
  .signature img { display: block; max-height: 90px; max-width: 260px; }
  .signature .name { border-top: 1px solid #8c959f; display: inline-block; padding-top: 4px; min-width: 200px; }
  .footer { margin-top: 40px; font-size: 12px; color: #57606a; }
</style>
</head>
<body>
<div id="document">
  {{- if .SchoolName}}<div class="school">{{.SchoolName}}</div>{{end}}
  <h1>{{.Title}}</h1>
  {{- if .To}}<div class="to">{{.To}}</div>{{end}}
  <div class="body">{{.Body}}</div>
  {{- with .Signature}}
  <div class="signature">
    <img src="{{.Src}}" alt="{{.Name}}">
    <div class="name">{{.Name}}</div>
  </div>
  {{- end}}
  {{- if .Footer}}<div class="footer">{{.Footer}}</div>{{end}}
</div>
</body>
</html>
`))

type pageView struct {
	Title      string
	To         template.HTML
	Body       template.HTML
	Footer     template.HTML
	SchoolName string
	Width      int
	Signature  *signatureView
}

type signatureView struct {
	Name string
	Src  template.URL
}

// BuildDocumentHTML renders the page that is captured into the PDF.
// Template markup is sanitized and line breaks are kept.
func BuildDocumentHTML(page DocumentPage) (string, error) {
	width := page.Width
	if width <= 0 {
		width = DefaultPageWidth
	}

	view := pageView{
		Title:      page.Document.Title,
		To:         textBlock(page.Document.To),
		Body:       textBlock(page.Document.Body),
		Footer:     textBlock(page.Document.Footer),
		SchoolName: page.SchoolName,
		Width:      width,
	}
	if sig := page.Signature; sig != nil && !sig.Image.IsZero() && strings.HasPrefix(sig.Image.MediaType, "image/") {
		view.Signature = &signatureView{
			Name: sig.Name,
			// #nosec G203 -- media type checked above, payload is base64
			Src: template.URL(sig.Image.DataURL()),
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render document page: %w", err)
	}
	return buf.String(), nil
}

// textBlock sanitizes s and turns newlines into line breaks
func textBlock(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	clean := markup.Sanitize(strings.ReplaceAll(s, "\r\n", "\n"))
	// #nosec G203 -- sanitized above
	return template.HTML(lineBreaks(clean))
}

// lineBreaks turns newlines into <br> except between two tags, so authored
// table and list markup keeps its structure
func lineBreaks(s string) string {
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		if i == len(lines)-1 {
			break
		}
		if strings.HasSuffix(strings.TrimSpace(line), ">") && strings.HasPrefix(strings.TrimSpace(lines[i+1]), "<") {
			b.WriteByte('\n')
			continue
		}
		b.WriteString("<br>\n")
	}
	return b.String()
}
