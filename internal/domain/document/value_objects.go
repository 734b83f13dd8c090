package document

import "github.com/campus/docgen/internal/domain/shared"

// Margins represents the page margins in millimeters
type Margins struct {
	Top    float64 `json:"top" mapstructure:"top"`
	Right  float64 `json:"right" mapstructure:"right"`
	Bottom float64 `json:"bottom" mapstructure:"bottom"`
	Left   float64 `json:"left" mapstructure:"left"`
}

// NewMargins creates a new Margins value object
func NewMargins(top, right, bottom, left float64) (Margins, error) {
	m := Margins{Top: top, Right: right, Bottom: bottom, Left: left}
	if err := m.Validate(); err != nil {
		return Margins{}, err
	}
	return m, nil
}

// DefaultMargins returns the default page margins
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// Validate checks the margins are usable on an A5 page or larger
func (m Margins) Validate() error {
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return shared.NewDomainError("INVALID_MARGINS", "Margins cannot be negative")
	}
	if m.Top > 60 || m.Right > 60 || m.Bottom > 60 || m.Left > 60 {
		return shared.NewDomainError("INVALID_MARGINS", "Margins cannot exceed 60mm")
	}
	return nil
}

// IsZero returns true if all margins are zero
func (m Margins) IsZero() bool {
	return m.Top == 0 && m.Right == 0 && m.Bottom == 0 && m.Left == 0
}
