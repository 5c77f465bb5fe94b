package google

import (
	"fmt"
	"strings"
	"sync"
)

// gridCache memoizes per-month sheet layout for the process lifetime: the
// ordered category labels with their starting row, and the raw value rows
// they were parsed from. It only serves position resolution; amounts are
// never memoized here. A month's entry is dropped whenever that month is
// mutated remotely.
type gridCache struct {
	mu     sync.Mutex
	months map[string]*monthGrid
}

type monthGrid struct {
	startRow int
	// labels holds the trimmed label per row offset; filler rows stay as
	// empty strings so offsets map directly to sheet rows.
	labels []string
	// rows keeps the raw value array per absolute row index.
	rows map[int][]string
}

func newGridCache() *gridCache {
	return &gridCache{months: make(map[string]*monthGrid)}
}

func newMonthGrid(startRow int, values [][]interface{}) *monthGrid {
	flat := flattenColumn(values)
	mg := &monthGrid{
		startRow: startRow,
		labels:   make([]string, len(flat)),
		rows:     make(map[int][]string, len(values)),
	}
	for offset, raw := range flat {
		label := strings.TrimSpace(raw)
		if label == "." {
			label = ""
		}
		mg.labels[offset] = label
	}
	for offset, row := range values {
		raws := make([]string, len(row))
		for i, cell := range row {
			raws[i] = strings.TrimSpace(toString(cell))
		}
		mg.rows[startRow+offset] = raws
	}
	return mg
}

// categoryRow resolves a category label to its absolute sheet row, or -1.
func (mg *monthGrid) categoryRow(category string) int {
	want := strings.TrimSpace(category)
	for offset, label := range mg.labels {
		if label != "" && label == want {
			return mg.startRow + offset
		}
	}
	return -1
}

func (g *gridCache) month(month string) (*monthGrid, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	mg, ok := g.months[month]
	return mg, ok
}

func (g *gridCache) put(month string, mg *monthGrid) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.months[month] = mg
}

func (g *gridCache) invalidate(month string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.months, month)
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
