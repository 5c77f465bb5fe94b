package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	ModeValue   Mode = "value"
	ModeFormula Mode = "formula"
)

type (
	// Mode distinguishes a plain numeric expense from a stored formula.
	Mode string

	// CategoryGroup is one group of the taxonomy in spreadsheet order.
	CategoryGroup struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}

	// Taxonomy is the ordered category tree used to populate selection UI.
	// Order reflects the spreadsheet layout and must be preserved.
	Taxonomy []CategoryGroup

	// DayAmountEntry holds the value recorded for one category on one day.
	// A non-empty Formula starts with "=" and is authoritative over Amount.
	DayAmountEntry struct {
		Amount  float64 `json:"amount"`
		Formula string  `json:"formula,omitempty"`
	}

	// DayAmounts maps category name to its entry for one (month, day) pair.
	DayAmounts map[string]DayAmountEntry

	// WriteRequest describes one expense write issued to the gateway.
	WriteRequest struct {
		Category string
		Day      int
		Month    string
		Mode     Mode
		Amount   float64
		Formula  string
	}

	// WriteResult is the gateway's confirmation of a write.
	WriteResult struct {
		Mode    Mode    `json:"mode"`
		Amount  float64 `json:"amount,omitempty"`
		Formula string  `json:"formula,omitempty"`
	}
)

// Months holds the sheet names for each month, January first.
var Months = [12]string{
	"Styczeń", "Luty", "Marzec", "Kwiecień", "Maj", "Czerwiec",
	"Lipiec", "Sierpień", "Wrzesień", "Październik", "Listopad", "Grudzień",
}

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyMonth    = errors.New("empty month")
	ErrEmptyTaxonomy = errors.New("taxonomy has no category groups")
	ErrInvalidPrice  = errors.New("invalid price expression")
	ErrRateLimited   = errors.New("spreadsheet API quota exceeded")
	ErrSubmitPending = errors.New("another submit is already in flight")
)

// RejectedError reports an application-level rejection from the gateway:
// the remote executed the request but refused it (e.g. unknown category).
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "expense rejected by remote"
	}
	return "expense rejected by remote: " + e.Message
}

// CurrentMonth returns the sheet name for the given wall-clock month.
func CurrentMonth(now time.Time) string {
	return Months[int(now.Month())-1]
}

// Round2 rounds to two decimal places, the ledger's amount precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTaxonomy
	}
	seen := make(map[string]struct{}, len(t))
	for _, g := range t {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return errors.New("taxonomy group with empty name")
		}
		if _, dup := seen[name]; dup {
			return errors.New("duplicate taxonomy group: " + name)
		}
		seen[name] = struct{}{}
		for _, item := range g.Items {
			if strings.TrimSpace(item) == "" {
				return errors.New("empty item in taxonomy group " + name)
			}
		}
	}
	return nil
}

// Clone returns a copy so cached snapshots cannot be mutated by callers.
func (m DayAmounts) Clone() DayAmounts {
	if m == nil {
		return nil
	}
	out := make(DayAmounts, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r WriteRequest) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Day < 1 || r.Day > 31 {
		return ErrInvalidDay
	}
	if strings.TrimSpace(r.Month) == "" {
		return ErrEmptyMonth
	}
	switch r.Mode {
	case ModeValue, ModeFormula:
	default:
		return errors.New("invalid write mode")
	}
	if r.Mode == ModeFormula && !strings.HasPrefix(r.Formula, "=") {
		return errors.New("formula must start with =")
	}
	return nil
}
