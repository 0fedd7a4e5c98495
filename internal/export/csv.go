package export

import (
	"bytes"
	"encoding/csv"

	"crediflow/internal/billing"
	"crediflow/internal/core"
)

var csvHeader = []string{"Data", "Descrição", "Categoria", "Valor", "Cartão"}

func occurrencesCSV(items []billing.Occurrence, names map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, o := range items {
		row := []string{
			brDate(o.Date),
			description(o),
			string(o.Purchase.Category),
			core.RoundCurrency(o.Amount).StringFixed(2),
			cardName(names, o.Purchase.CardID),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
