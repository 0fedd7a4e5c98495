package export

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"crediflow/internal/billing"
	"crediflow/internal/core"
)

const (
	itemsSheet      = "lancamentos"
	summarySheet    = "resumo"
	categoriesSheet = "categorias"
)

func money(d decimal.Decimal) float64 {
	return core.RoundCurrency(d).InexactFloat64()
}

func writeItems(f *excelize.File, sheet string, items []billing.Occurrence, names map[string]string) {
	for i, h := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, o := range items {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), brDate(o.Date))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), description(o))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(o.Purchase.Category))
		_ = f.SetCellFloat(sheet, fmt.Sprintf("D%d", row), money(o.Amount), 2, 64)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), cardName(names, o.Purchase.CardID))
	}
}

func invoiceXLSX(inv billing.InvoiceSummary, names map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Fatura")
	_ = f.SetCellValue(summarySheet, "A3", "Mês")
	_ = f.SetCellValue(summarySheet, "B3", fmt.Sprintf("%04d-%02d", inv.Year, inv.Month))
	_ = f.SetCellValue(summarySheet, "A4", "Cartão")
	if inv.Filter == billing.AllCards {
		_ = f.SetCellValue(summarySheet, "B4", "Todos")
	} else {
		_ = f.SetCellValue(summarySheet, "B4", cardName(names, string(inv.Filter)))
	}
	_ = f.SetCellValue(summarySheet, "A5", "Lançamentos")
	_ = f.SetCellValue(summarySheet, "B5", len(inv.Items))
	_ = f.SetCellValue(summarySheet, "A6", "Total")
	_ = f.SetCellFloat(summarySheet, "B6", money(inv.Total), 2, 64)

	writeItems(f, itemsSheet, inv.Items, names)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportXLSX(report billing.YearlyReport, names map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", summarySheet)
	for _, s := range []string{categoriesSheet, itemsSheet} {
		if _, err := f.NewSheet(s); err != nil {
			return nil, err
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Ano")
	_ = f.SetCellValue(summarySheet, "B1", report.Year)
	_ = f.SetCellValue(summarySheet, "A3", "Mês")
	_ = f.SetCellValue(summarySheet, "B3", "Total")
	for i, total := range report.Monthly {
		row := i + 4
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), monthNames[i])
		_ = f.SetCellFloat(summarySheet, fmt.Sprintf("B%d", row), money(total), 2, 64)
	}
	_ = f.SetCellValue(summarySheet, "A17", "Total do ano")
	_ = f.SetCellFloat(summarySheet, "B17", money(report.Total), 2, 64)
	_ = f.SetCellValue(summarySheet, "A18", "Média mensal")
	_ = f.SetCellFloat(summarySheet, "B18", money(report.MonthlyAverage), 2, 64)
	_ = f.SetCellValue(summarySheet, "A19", "Maior parcela")
	_ = f.SetCellFloat(summarySheet, "B19", money(report.LargestShare), 2, 64)
	_ = f.SetCellValue(summarySheet, "A20", "Categoria principal")
	_ = f.SetCellValue(summarySheet, "B20", string(report.TopCategory))

	_ = f.SetCellValue(categoriesSheet, "A1", "Categoria")
	_ = f.SetCellValue(categoriesSheet, "B1", "Total")
	for i, ca := range report.ByCategory {
		row := i + 2
		_ = f.SetCellValue(categoriesSheet, fmt.Sprintf("A%d", row), string(ca.Category))
		_ = f.SetCellFloat(categoriesSheet, fmt.Sprintf("B%d", row), money(ca.Amount), 2, 64)
	}

	writeItems(f, itemsSheet, report.Items, names)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
