package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"crediflow/internal/billing"
	"crediflow/internal/core"
)

func invoicePDF(inv billing.InvoiceSummary, status billing.InvoiceStatus, names map[string]string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Fatura %s de %d", monthNames[inv.Month-1], inv.Year)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	filter := "Todos os cartões"
	if inv.Filter != billing.AllCards {
		filter = cardName(names, string(inv.Filter))
	}
	pdf.Cell(0, 6, tr("Cartão: "+filter))
	pdf.Ln(5)
	if label, ok := statusLabels[status]; ok {
		pdf.Cell(0, 6, tr("Situação: "+label))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, tr(fmt.Sprintf("Lançamentos: %d", len(inv.Items))))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr("Total: "+core.FormatBRL(inv.Total)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Data", "1", 0, "C", false, 0, "")
	pdf.CellFormat(75, 6, tr("Descrição"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Categoria", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, tr("Cartão"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Valor", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, o := range inv.Items {
		pdf.CellFormat(25, 6, brDate(o.Date), "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 6, tr(truncate(description(o), 45)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(string(o.Purchase.Category)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(truncate(cardName(names, o.Purchase.CardID), 18)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(core.FormatBRL(o.Amount)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
