package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Dash is the placeholder value for data the record does not carry.
const Dash = "—"

// DisplayDateLayout is the day/month/year layout used in letters.
const DisplayDateLayout = "02/01/2006"

// DefaultCurrencySymbol prefixes formatted amounts.
const DefaultCurrencySymbol = "€"

// dateLayouts are tried in order when reading a date attribute.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	DisplayDateLayout,
}

// ResolvedFields maps every field key to its display text.
type ResolvedFields map[FieldKey]string

// Get returns the value for key, or Dash when it is missing.
func (f ResolvedFields) Get(key FieldKey) string {
	if v, ok := f[key]; ok {
		return v
	}
	return Dash
}

// Resolver computes display values for the placeholder fields of a student.
// Resolution is a pure function of the record, the attendance stats and the
// resolver's clock.
type Resolver struct {
	currencySymbol string
	now            func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCurrencySymbol sets the symbol used for money fields.
func WithCurrencySymbol(symbol string) ResolverOption {
	return func(r *Resolver) {
		r.currencySymbol = symbol
	}
}

// WithClock sets the clock used for the issue date.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		currencySymbol: DefaultCurrencySymbol,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the value of every field key.
func (r *Resolver) Resolve(record StudentRecord, stats []AttendanceStat) ResolvedFields {
	fields := make(ResolvedFields, len(fieldBindings))
	for _, key := range AllFieldKeys() {
		fields[key] = r.ResolveField(key, record, stats)
	}
	return fields
}

// ResolveField computes the value of a single key. Unknown keys yield Dash.
func (r *Resolver) ResolveField(key FieldKey, record StudentRecord, stats []AttendanceStat) string {
	binding, ok := fieldBindings[key]
	if !ok {
		return Dash
	}

	switch binding.kind {
	case KindName:
		return orDash(record.FullName())
	case KindAddress:
		return orDash(resolveAddress(record, binding.attrs))
	case KindDate:
		v, ok := record.FirstValue(binding.attrs...)
		if !ok {
			return Dash
		}
		return FormatDate(v)
	case KindMoney:
		v, ok := record.FirstValue(binding.attrs...)
		if !ok {
			return Dash
		}
		return ParseMoney(v).Format(r.currencySymbol)
	case KindAttendance:
		return resolveAttendance(record, binding.attrs, stats)
	case KindIssueDate:
		return r.now().Format(DisplayDateLayout)
	default:
		s, _ := record.FirstText(binding.attrs...)
		return orDash(s)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dash
	}
	return s
}

func resolveAddress(record StudentRecord, parts []string) string {
	if v, ok := record.Get("Address"); ok {
		switch addr := v.(type) {
		case string:
			if s := strings.TrimSpace(addr); s != "" {
				return s
			}
		case map[string]any:
			return joinParts(StudentRecord(addr), append([]string{"Line1", "Line2", "Street"}, parts...))
		}
	}
	return joinParts(record, parts)
}

func joinParts(record StudentRecord, names []string) string {
	var out []string
	for _, n := range names {
		if s, ok := record.Text(n); ok {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

// FormatDate renders a date attribute as dd/mm/yyyy. Text that does not
// parse is cut at the first 'T'; without a usable prefix the result is Dash.
func FormatDate(v any) string {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return Dash
		}
		return val.Format(DisplayDateLayout)
	case *time.Time:
		if val == nil {
			return Dash
		}
		return FormatDate(*val)
	}

	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return Dash
	}
	if t, ok := ParseDate(s); ok {
		return t.Format(DisplayDateLayout)
	}
	if i := strings.Index(s, "T"); i > 0 {
		return s[:i]
	}
	return Dash
}

// ParseDate tries the accepted layouts in order.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Money is a fee attribute read from the record. Status holds a textual
// settlement note such as "Fully Paid"; otherwise Amount is set when the
// value coerces to a number and Raw keeps the original text.
type Money struct {
	Status string
	Amount decimal.Decimal
	Valid  bool
	Raw    string
}

// ParseMoney reads a fee attribute.
func ParseMoney(v any) Money {
	switch val := v.(type) {
	case nil:
		return Money{}
	case decimal.Decimal:
		return Money{Amount: val, Valid: true, Raw: val.String()}
	case float64:
		return Money{Amount: decimal.NewFromFloat(val), Valid: true, Raw: stringify(val)}
	case float32:
		return Money{Amount: decimal.NewFromFloat32(val), Valid: true, Raw: stringify(val)}
	case int:
		return Money{Amount: decimal.NewFromInt(int64(val)), Valid: true, Raw: stringify(val)}
	case int64:
		return Money{Amount: decimal.NewFromInt(val), Valid: true, Raw: stringify(val)}
	case json.Number:
		return parseMoneyText(val.String())
	case string:
		return parseMoneyText(val)
	default:
		return Money{}
	}
}

func parseMoneyText(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}
	}
	if strings.Contains(strings.ToLower(s), "paid") {
		return Money{Status: s, Raw: s}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Raw: s}
	}
	return Money{Amount: d, Valid: true, Raw: s}
}

// Format renders the value with two decimals behind symbol. A status is
// returned verbatim and uncoercible text is returned as is.
func (m Money) Format(symbol string) string {
	switch {
	case m.Status != "":
		return m.Status
	case m.Valid:
		return symbol + m.Amount.StringFixed(2)
	case m.Raw != "":
		return m.Raw
	default:
		return Dash
	}
}

func resolveAttendance(record StudentRecord, attrs []string, stats []AttendanceStat) string {
	for _, st := range stats {
		if strings.EqualFold(strings.TrimSpace(st.Status), "present") {
			if st.Percentage.Valid {
				return fmt.Sprintf("%.1f%%", st.Percentage.Value)
			}
			break
		}
	}
	s, _ := record.FirstText(attrs...)
	return orDash(s)
}
