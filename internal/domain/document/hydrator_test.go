package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrator_InvitationLetter(t *testing.T) {
	record := StudentRecord{"FirstName": "Ana", "LastName": "Silva", "CourseTitle": "IELTS Prep"}
	tmpl := DocumentTemplate{
		ID:    "tpl-1",
		Title: "Invitation letter",
		Body:  "Dear {Name}, welcome to {CourseTitle}.",
	}

	fields := NewResolver(WithClock(fixedClock)).Resolve(record, nil)
	doc := NewHydrator().HydrateTemplate(tmpl, fields)

	assert.Equal(t, "Dear Ana Silva, welcome to IELTS Prep.", doc.Body)
	assert.Equal(t, "Invitation letter", doc.Title)
	assert.Equal(t, "tpl-1", doc.TemplateID)
	assert.Equal(t, "invitation-letter.pdf", doc.FileName)
}

func TestHydrator_FileNameFollowsAuthoredTitle(t *testing.T) {
	record := StudentRecord{"FirstName": "Ana", "LastName": "Silva"}
	tmpl := DocumentTemplate{ID: "tpl-2", Title: "Letter for {Name}", Body: "Hello"}

	doc := NewHydrator().HydrateTemplate(tmpl, NewResolver(WithClock(fixedClock)).Resolve(record, nil))

	assert.Equal(t, "Letter for Ana Silva", doc.Title)
	assert.Equal(t, tmpl.FileName(), doc.FileName)
	assert.Equal(t, "letter-for-name.pdf", doc.FileName)
}

func TestHydrator_EveryAliasIsReplaced(t *testing.T) {
	h := NewHydrator()
	fields := NewResolver(WithClock(fixedClock)).Resolve(StudentRecord{}, nil)

	var names []string
	for _, k := range AllFieldKeys() {
		names = append(names, string(k), strings.ReplaceAll(string(k), " ", ""))
	}
	for alias := range legacyAliases {
		names = append(names, alias, strings.ToLower(alias))
	}

	var b strings.Builder
	for _, n := range names {
		b.WriteString("{" + n + "}\n")
	}
	b.WriteString("{NotAField} {Shoe Size}")

	out := h.Hydrate(b.String(), fields)

	assert.Equal(t, []string{"NotAField", "Shoe Size"}, Tokens(out))
	assert.Contains(t, out, "{NotAField} {Shoe Size}")
}

func TestHydrator_Lookup(t *testing.T) {
	h := NewHydrator()

	tests := []struct {
		token string
		want  FieldKey
	}{
		{"Name", FieldName},
		{"CourseTitle", FieldCourseTitle},
		{"Course Title", FieldCourseTitle},
		{"course_title", FieldCourseTitle},
		{"IlepReference", FieldILEPProgrammeRef},
		{"ILEP Programme Reference", FieldILEPProgrammeRef},
		{"ILEPProgrammeReference", FieldILEPProgrammeRef},
		{"DOB", FieldDateOfBirth},
		{"IssueDate", FieldIssueDate},
		{"FullName", FieldName},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := h.Lookup(tt.token)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := h.Lookup("Signature")
	assert.False(t, ok)
}

func TestHydrator_LeavesNonTokensAlone(t *testing.T) {
	h := NewHydrator()
	fields := ResolvedFields{FieldName: "Ana Silva"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no braces", "Plain text", "Plain text"},
		{"empty braces", "{}", "{}"},
		{"nested braces", "{{Name}}", "{Ana Silva}"},
		{"token across lines", "{Na\nme}", "{Na\nme}"},
		{"newlines preserved", "Dear {Name},\n\nRegards", "Dear Ana Silva,\n\nRegards"},
		{"missing value is dash", "Email: {Email}", "Email: " + Dash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Hydrate(tt.in, fields))
		})
	}
}

func TestHydrator_Idempotent(t *testing.T) {
	record := StudentRecord{"FirstName": "Ana", "LastName": "Silva", "TuitionFees": "Fully Paid", "DateOfBirth": "2001-05-04"}
	tmpl := DocumentTemplate{
		Title:  "Letter for {Name}",
		To:     "To whom it may concern",
		Body:   "Born {Date of Birth}. Fees: {TuitionFees}. Ref {Unknown}.",
		Footer: "Issued {Issue Date}",
	}

	r := NewResolver(WithClock(fixedClock))
	h := NewHydrator()

	first := h.HydrateTemplate(tmpl, r.Resolve(record, nil))
	second := h.HydrateTemplate(tmpl, r.Resolve(record, nil))
	assert.Equal(t, first, second)

	assert.Equal(t, "Born 04/05/2001. Fees: Fully Paid. Ref {Unknown}.", first.Body)
	assert.Equal(t, "Issued 14/03/2025", first.Footer)

	again := DocumentTemplate{Title: first.Title, To: first.To, Body: first.Body, Footer: first.Footer}
	assert.Equal(t, first.Body, h.HydrateTemplate(again, r.Resolve(record, nil)).Body)
}

func TestHydrator_Unresolved(t *testing.T) {
	tmpl := DocumentTemplate{
		Title:  "{Name}",
		Body:   "{Foo} and {Bar} and {Foo}",
		Footer: "{Bar} {Issue Date}",
	}
	assert.Equal(t, []string{"Foo", "Bar"}, NewHydrator().Unresolved(tmpl))
}
