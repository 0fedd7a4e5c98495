package advisor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"crediflow/internal/core"
)

type promptCard struct {
	ID         string `json:"id"`
	Nome       string `json:"nome"`
	Banco      string `json:"banco"`
	Limite     string `json:"limite"`
	Fechamento int    `json:"diaFechamento"`
	Vencimento int    `json:"diaVencimento"`
}

type promptPurchase struct {
	Cartao     string `json:"cartaoId"`
	Descricao  string `json:"descricao"`
	Valor      string `json:"valor"`
	Data       string `json:"data"`
	Categoria  string `json:"categoria"`
	Parcelas   int    `json:"parcelas"`
	Recorrente bool   `json:"recorrente"`
}

// BuildPrompt renders the Portuguese analysis request for the given data.
func BuildPrompt(cards []core.Card, purchases []core.Purchase) string {
	pc := make([]promptCard, 0, len(cards))
	for _, c := range cards {
		pc = append(pc, promptCard{
			ID: c.ID, Nome: c.Name, Banco: c.Bank, Limite: c.LimitTotal.StringFixed(2),
			Fechamento: c.ClosingDay, Vencimento: c.DueDay,
		})
	}
	pp := make([]promptPurchase, 0, len(purchases))
	for _, p := range purchases {
		pp = append(pp, promptPurchase{
			Cartao: p.CardID, Descricao: p.Description, Valor: p.Amount.StringFixed(2),
			Data: p.Date.String(), Categoria: string(p.Category),
			Parcelas: p.Installments, Recorrente: p.Recurring,
		})
	}
	cardsJSON, _ := json.Marshal(pc)
	purchasesJSON, _ := json.Marshal(pp)

	var b strings.Builder
	b.WriteString("Analise o seguinte perfil de gastos de cartão de crédito e forneça 3 sugestões práticas de economia ")
	b.WriteString("e detecte se há algum gasto fora do padrão.\n\n")
	b.WriteString("Cartões: ")
	b.Write(cardsJSON)
	b.WriteString("\nGastos: ")
	b.Write(purchasesJSON)
	b.WriteString("\n\nResponda em português de forma amigável e executiva.\n")
	return b.String()
}

// Fingerprint identifies a data set. Equal data gives equal fingerprints
// regardless of when it was loaded.
func Fingerprint(cards []core.Card, purchases []core.Purchase) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(cards)
	_ = enc.Encode(purchases)
	return hex.EncodeToString(h.Sum(nil))
}
