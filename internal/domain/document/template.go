package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DocumentTemplate is a letter template authored in the school backend.
// Title, To, Body and Footer may contain {Placeholder} tokens.
type DocumentTemplate struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	To     string `json:"to,omitempty"`
	Body   string `json:"body"`
	Footer string `json:"footer,omitempty"`
}

// FileName returns the download file name derived from the title.
func (t DocumentTemplate) FileName() string {
	return FileNameFor(t.Title)
}

// HydratedDocument holds the four template blocks after placeholder
// substitution. FileName comes from the template title as authored, so a
// document is named the same in the template list and on download.
type HydratedDocument struct {
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	To         string `json:"to,omitempty"`
	Body       string `json:"body"`
	Footer     string `json:"footer,omitempty"`
	FileName   string `json:"file_name"`
}

const defaultFileName = "document.pdf"

// FileNameFor slugifies title into a PDF file name. Accents are folded,
// letters lowercased and any other run of characters collapsed to a dash.
func FileNameFor(title string) string {
	slug := Slugify(title)
	if slug == "" {
		return defaultFileName
	}
	return slug + ".pdf"
}

// Slugify returns an ASCII lowercase slug for s.
func Slugify(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
