package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"claritychain/internal/core"
	"claritychain/internal/sheets"
)

var _ sheets.DonationExporter = (*Exporter)(nil)

// Exporter keeps exported rows in memory. It backs the worker when no
// spreadsheet is configured.
type Exporter struct {
	mu   sync.Mutex
	rows []sheets.DonationRow
	refs map[string]string
}

func New() *Exporter {
	return &Exporter{refs: make(map[string]string)}
}

// ExportDonation stores the row and returns a synthetic row reference.
func (e *Exporter) ExportDonation(_ context.Context, row sheets.DonationRow) (string, error) {
	if strings.TrimSpace(row.ID) == "" {
		return "", fmt.Errorf("export donation: missing id")
	}
	if err := row.Amount.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if ref, ok := e.refs[row.ID]; ok {
		return ref, nil
	}
	e.rows = append(e.rows, row)
	ref := fmt.Sprintf("mem:%d", len(e.rows))
	e.refs[row.ID] = ref
	return ref, nil
}

// Rows returns the exported rows in export order.
func (e *Exporter) Rows() []sheets.DonationRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sheets.DonationRow(nil), e.rows...)
}

// Total sums the exported amounts.
func (e *Exporter) Total() core.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	var total core.Money
	for _, r := range e.rows {
		total = total.Add(r.Amount)
	}
	return total
}
