package document

import (
	"regexp"
	"strings"
)

// tokenPattern matches a {Placeholder}; braces do not nest and a token never
// spans lines.
var tokenPattern = regexp.MustCompile(`\{([^{}\n]+)\}`)

// legacyAliases are spellings found in templates authored before the field
// names were settled.
var legacyAliases = map[string]FieldKey{
	"FullName":               FieldName,
	"StudentName":            FieldName,
	"DOB":                    FieldDateOfBirth,
	"BirthDate":              FieldDateOfBirth,
	"Passport":               FieldPassportNumber,
	"EmailAddress":           FieldEmail,
	"PhoneNumber":            FieldPhone,
	"StudentNo":              FieldStudentNumber,
	"StudentID":              FieldStudentNumber,
	"CourseName":             FieldCourseTitle,
	"Course":                 FieldCourseTitle,
	"Level":                  FieldCourseLevel,
	"StartDate":              FieldCourseStartDate,
	"EndDate":                FieldCourseEndDate,
	"IlepReference":          FieldILEPProgrammeRef,
	"ILEPReference":          FieldILEPProgrammeRef,
	"ILEPProgrammeReference": FieldILEPProgrammeRef,
	"ILEPProgramReference":   FieldILEPProgrammeRef,
	"EnrolmentDate":          FieldRegistrationDate,
	"Fees":                   FieldTuitionFees,
	"CourseFees":             FieldTuitionFees,
	"Paid":                   FieldAmountPaid,
	"Balance":                FieldBalanceDue,
	"ExamFee":                FieldExamFees,
	"AttendancePercentage":   FieldAttendance,
	"Date":                   FieldIssueDate,
	"TodayDate":              FieldIssueDate,
	"Today":                  FieldIssueDate,
}

// Hydrator substitutes {Placeholder} tokens with resolved field values.
type Hydrator struct {
	aliases map[string]FieldKey
}

// NewHydrator builds the alias table: every display name, its spelling
// without spaces, and the legacy aliases. Matching ignores case, spaces,
// underscores and dashes.
func NewHydrator() *Hydrator {
	h := &Hydrator{aliases: make(map[string]FieldKey)}
	for _, key := range AllFieldKeys() {
		h.aliases[normalizeToken(string(key))] = key
	}
	for alias, key := range legacyAliases {
		h.aliases[normalizeToken(alias)] = key
	}
	return h
}

// Lookup maps a token name (without braces) to its field key.
func (h *Hydrator) Lookup(token string) (FieldKey, bool) {
	key, ok := h.aliases[normalizeToken(token)]
	return key, ok
}

// Hydrate replaces every recognised token in text. Unrecognised tokens are
// left verbatim.
func (h *Hydrator) Hydrate(text string, fields ResolvedFields) string {
	if !strings.Contains(text, "{") {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		key, ok := h.Lookup(match[1 : len(match)-1])
		if !ok {
			return match
		}
		return fields.Get(key)
	})
}

// HydrateTemplate hydrates the four blocks of a template.
func (h *Hydrator) HydrateTemplate(t DocumentTemplate, fields ResolvedFields) HydratedDocument {
	return HydratedDocument{
		TemplateID: t.ID,
		Title:      h.Hydrate(t.Title, fields),
		To:         h.Hydrate(t.To, fields),
		Body:       h.Hydrate(t.Body, fields),
		Footer:     h.Hydrate(t.Footer, fields),
		FileName:   t.FileName(),
	}
}

// Unresolved lists the distinct tokens in the template that match no field,
// in order of first appearance.
func (h *Hydrator) Unresolved(t DocumentTemplate) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, block := range []string{t.Title, t.To, t.Body, t.Footer} {
		for _, tok := range Tokens(block) {
			if _, ok := h.Lookup(tok); ok {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// Tokens returns the names of all tokens in text, without braces.
func Tokens(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
