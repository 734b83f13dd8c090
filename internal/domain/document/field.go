package document

import "fmt"

// FieldKey identifies one placeholder a template may reference. The value is
// the display name shown to staff.
type FieldKey string

const (
	FieldName             FieldKey = "Name"
	FieldFirstName        FieldKey = "First Name"
	FieldLastName         FieldKey = "Last Name"
	FieldDateOfBirth      FieldKey = "Date of Birth"
	FieldNationality      FieldKey = "Nationality"
	FieldPassportNumber   FieldKey = "Passport Number"
	FieldEmail            FieldKey = "Email"
	FieldPhone            FieldKey = "Phone"
	FieldAddress          FieldKey = "Address"
	FieldStudentNumber    FieldKey = "Student Number"
	FieldCourseTitle      FieldKey = "Course Title"
	FieldCourseLevel      FieldKey = "Course Level"
	FieldCourseCode       FieldKey = "Course Code"
	FieldCourseStartDate  FieldKey = "Course Start Date"
	FieldCourseEndDate    FieldKey = "Course End Date"
	FieldHoursPerWeek     FieldKey = "Hours Per Week"
	FieldILEPProgrammeRef FieldKey = "ILEP Programme Reference"
	FieldRegistrationDate FieldKey = "Registration Date"
	FieldTuitionFees      FieldKey = "Tuition Fees"
	FieldAmountPaid       FieldKey = "Amount Paid"
	FieldBalanceDue       FieldKey = "Balance Due"
	FieldExamFees         FieldKey = "Exam Fees"
	FieldAttendance       FieldKey = "Attendance"
	FieldIssueDate        FieldKey = "Issue Date"
)

// String returns the display name.
func (k FieldKey) String() string {
	return string(k)
}

// IsValid reports whether k is one of the known keys.
func (k FieldKey) IsValid() bool {
	_, ok := fieldBindings[k]
	return ok
}

// Kind returns the resolution rule bound to k.
func (k FieldKey) Kind() FieldKind {
	return fieldBindings[k].kind
}

// AllFieldKeys returns every key in display order.
func AllFieldKeys() []FieldKey {
	return []FieldKey{
		FieldName, FieldFirstName, FieldLastName, FieldDateOfBirth, FieldNationality,
		FieldPassportNumber, FieldEmail, FieldPhone, FieldAddress, FieldStudentNumber,
		FieldCourseTitle, FieldCourseLevel, FieldCourseCode, FieldCourseStartDate,
		FieldCourseEndDate, FieldHoursPerWeek, FieldILEPProgrammeRef, FieldRegistrationDate,
		FieldTuitionFees, FieldAmountPaid, FieldBalanceDue, FieldExamFees,
		FieldAttendance, FieldIssueDate,
	}
}

// FieldKind selects how a field is read from the student record.
type FieldKind int

const (
	KindText FieldKind = iota + 1
	KindName
	KindAddress
	KindDate
	KindMoney
	KindAttendance
	KindIssueDate
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindName:
		return "name"
	case KindAddress:
		return "address"
	case KindDate:
		return "date"
	case KindMoney:
		return "money"
	case KindAttendance:
		return "attendance"
	case KindIssueDate:
		return "issue_date"
	default:
		return "unknown"
	}
}

// fieldBinding ties a key to its kind and to the record attributes it reads,
// in lookup order.
type fieldBinding struct {
	kind  FieldKind
	attrs []string
}

var fieldBindings = map[FieldKey]fieldBinding{
	FieldName:             {kind: KindName},
	FieldFirstName:        {kind: KindText, attrs: []string{"FirstName", "GivenName"}},
	FieldLastName:         {kind: KindText, attrs: []string{"LastName", "Surname", "FamilyName"}},
	FieldDateOfBirth:      {kind: KindDate, attrs: []string{"DateOfBirth", "DOB", "BirthDate"}},
	FieldNationality:      {kind: KindText, attrs: []string{"Nationality", "Country"}},
	FieldPassportNumber:   {kind: KindText, attrs: []string{"PassportNumber", "Passport", "PassportNo"}},
	FieldEmail:            {kind: KindText, attrs: []string{"Email", "EmailAddress"}},
	FieldPhone:            {kind: KindText, attrs: []string{"Phone", "PhoneNumber", "Mobile"}},
	FieldAddress:          {kind: KindAddress, attrs: []string{"AddressLine1", "AddressLine2", "City", "County", "Postcode", "Eircode"}},
	FieldStudentNumber:    {kind: KindText, attrs: []string{"StudentNumber", "StudentNo", "StudentId"}},
	FieldCourseTitle:      {kind: KindText, attrs: []string{"CourseTitle", "Course.Title", "CourseName", "Course"}},
	FieldCourseLevel:      {kind: KindText, attrs: []string{"CourseLevel", "Course.Level", "Level"}},
	FieldCourseCode:       {kind: KindText, attrs: []string{"CourseCode", "Course.Code"}},
	FieldCourseStartDate:  {kind: KindDate, attrs: []string{"CourseStartDate", "Course.StartDate", "StartDate"}},
	FieldCourseEndDate:    {kind: KindDate, attrs: []string{"CourseEndDate", "Course.EndDate", "EndDate"}},
	FieldHoursPerWeek:     {kind: KindText, attrs: []string{"HoursPerWeek", "Course.HoursPerWeek"}},
	FieldILEPProgrammeRef: {kind: KindText, attrs: []string{"ILEPProgrammeReference", "IlepReference", "ILEPReference", "Course.IlepReference"}},
	FieldRegistrationDate: {kind: KindDate, attrs: []string{"RegistrationDate", "EnrolmentDate", "CreatedAt"}},
	FieldTuitionFees:      {kind: KindMoney, attrs: []string{"TuitionFees", "CourseFees", "Fees"}},
	FieldAmountPaid:       {kind: KindMoney, attrs: []string{"AmountPaid", "Paid"}},
	FieldBalanceDue:       {kind: KindMoney, attrs: []string{"BalanceDue", "Balance"}},
	FieldExamFees:         {kind: KindMoney, attrs: []string{"ExamFees", "ExamFee"}},
	FieldAttendance:       {kind: KindAttendance, attrs: []string{"Attendance", "AttendancePercentage"}},
	FieldIssueDate:        {kind: KindIssueDate},
}

func init() {
	if err := checkFieldBindings(); err != nil {
		panic(err)
	}
}

// checkFieldBindings fails when a key has no resolution rule or a rule names a
// key outside the enumeration.
func checkFieldBindings() error {
	keys := AllFieldKeys()
	if len(keys) != len(fieldBindings) {
		return fmt.Errorf("document: %d field keys but %d bindings", len(keys), len(fieldBindings))
	}
	for _, k := range keys {
		b, ok := fieldBindings[k]
		if !ok {
			return fmt.Errorf("document: field %q has no binding", k)
		}
		if b.kind < KindText || b.kind > KindIssueDate {
			return fmt.Errorf("document: field %q has unknown kind %d", k, b.kind)
		}
		if len(b.attrs) == 0 && b.kind != KindName && b.kind != KindIssueDate {
			return fmt.Errorf("document: field %q reads no attributes", k)
		}
	}
	return nil
}
