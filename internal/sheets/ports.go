package sheets

import (
	"context"

	"crediflow/internal/billing"
	"crediflow/internal/core"
)

// Ports for outbound adapters.
type (
	// InvoiceWriter mirrors one invoice into an external spreadsheet,
	// replacing whatever the target range held before.
	InvoiceWriter interface {
		WriteInvoice(ctx context.Context, inv billing.InvoiceSummary, cards []core.Card) (rangeRef string, err error)
	}
)
