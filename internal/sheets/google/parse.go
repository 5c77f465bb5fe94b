package google

import (
	"fmt"
	"strconv"
	"strings"

	"wydatki/internal/core"
)

// parseTaxonomy builds the ordered category tree from the flattened label
// column of the template sheet. A row equal to the group marker announces
// the next row as a group name; "." rows and blanks are layout filler.
func parseTaxonomy(values []string) core.Taxonomy {
	groupNames := make(map[string]struct{})
	for i := 0; i < len(values)-1; i++ {
		if strings.TrimSpace(values[i]) == groupMarker {
			name := strings.TrimSpace(values[i+1])
			if name != "" {
				groupNames[name] = struct{}{}
			}
		}
	}

	var tax core.Taxonomy
	for _, raw := range values {
		entry := strings.TrimSpace(raw)
		if entry == "" || entry == "." || entry == groupMarker {
			continue
		}
		if _, isGroup := groupNames[entry]; isGroup {
			tax = append(tax, core.CategoryGroup{Name: entry})
			continue
		}
		if len(tax) > 0 {
			last := &tax[len(tax)-1]
			last.Items = append(last.Items, entry)
		}
	}
	return tax
}

// parseCellValue interprets one raw grid cell. Cells starting with "=" are
// formulas and kept verbatim; everything else is a number with an optional
// decimal comma, defaulting to zero.
func parseCellValue(raw string) core.DayAmountEntry {
	if strings.HasPrefix(raw, "=") {
		return core.DayAmountEntry{Formula: raw}
	}
	cleaned := strings.ReplaceAll(raw, ",", ".")
	// Sheets may format thousands with spaces.
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return core.DayAmountEntry{}
	}
	return core.DayAmountEntry{Amount: core.Round2(v)}
}

// flattenColumn extracts the first cell of each row as a string, keeping
// row positions (empty rows become empty strings).
func flattenColumn(values [][]interface{}) []string {
	out := make([]string, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		out[i] = fmt.Sprint(row[0])
	}
	return out
}

// columnName converts a 1-based column index to its A1 letter form.
func columnName(index int) string {
	var b []byte
	for index > 0 {
		index--
		b = append([]byte{byte('A' + index%26)}, b...)
		index /= 26
	}
	return string(b)
}
