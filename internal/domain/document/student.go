package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StudentRecord is the loosely typed student object returned by the school
// backend. Attribute lookup ignores case, and a dotted name such as
// "course.title" walks into nested objects.
type StudentRecord map[string]any

// Get returns the raw value stored under name.
func (r StudentRecord) Get(name string) (any, bool) {
	if r == nil || name == "" {
		return nil, false
	}
	parts := strings.Split(name, ".")
	var current map[string]any = r
	for i, part := range parts {
		v, ok := lookupFold(current, part)
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, v != nil
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Text returns the value under name rendered as trimmed text. Empty values
// report false.
func (r StudentRecord) Text(name string) (string, bool) {
	v, ok := r.Get(name)
	if !ok {
		return "", false
	}
	s := strings.TrimSpace(stringify(v))
	return s, s != ""
}

// FirstText returns the first non-empty attribute among names.
func (r StudentRecord) FirstText(names ...string) (string, bool) {
	for _, n := range names {
		if s, ok := r.Text(n); ok {
			return s, true
		}
	}
	return "", false
}

// FirstValue returns the first present attribute among names.
func (r StudentRecord) FirstValue(names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := r.Get(n); ok {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

// ID returns the backend identifier of the student.
func (r StudentRecord) ID() string {
	id, _ := r.FirstText("id", "_id", "studentId")
	return id
}

// FullName joins first and last name, falling back to a single name attribute.
func (r StudentRecord) FullName() string {
	first, _ := r.Text("FirstName")
	last, _ := r.Text("LastName")
	name := strings.TrimSpace(first + " " + last)
	if name != "" {
		return name
	}
	name, _ = r.FirstText("Name", "FullName")
	return name
}

func lookupFold(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case map[string]any, []any:
		return ""
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AttendanceStat is one row of the attendance summary for a student.
type AttendanceStat struct {
	Status     string     `json:"status"`
	Count      int        `json:"count"`
	Time       string     `json:"time,omitempty"`
	Percentage Percentage `json:"percentage"`
}

// Percentage accepts either a JSON number or a numeric string.
type Percentage struct {
	Value float64
	Valid bool
}

// NewPercentage returns a valid percentage.
func NewPercentage(v float64) Percentage {
	return Percentage{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percentage) UnmarshalJSON(data []byte) error {
	*p = Percentage{}
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Non-numeric percentages are treated as absent.
			return nil
		}
		*p = NewPercentage(f)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %s: %w", raw, err)
	}
	*p = NewPercentage(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(p.Value, 'f', -1, 64)), nil
}
