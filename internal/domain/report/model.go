package report

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRange marks a reporting window whose start falls after its end.
var ErrInvalidRange = errors.New("invalid date range: start is after end")

// DateRange bounds a report. Nil ends are open: a nil From reaches back to
// the first loaded visit, a nil To forward to the last.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return ErrInvalidRange
	}
	return nil
}

// MonthlyRevenue is one row of the vw_receita_mensal view.
type MonthlyRevenue struct {
	Mes          time.Time       `db:"mes" json:"mes"`
	ReceitaTotal decimal.Decimal `db:"receita_total" json:"receita_total"`
}

// RevenueRank is one entry of a top-N revenue breakdown. Nome is the payer
// or procedure being ranked.
type RevenueRank struct {
	Nome    string          `db:"nome" json:"nome"`
	Receita decimal.Decimal `db:"receita" json:"receita"`
}

// KPISummary is the dashboard snapshot: row count, total revenue and the
// date span of the window, plus the top payers and procedures by revenue.
// All figures come from a single consistent read, so the totals and the
// rankings never disagree about which rows they saw.
type KPISummary struct {
	Linhas           int             `json:"linhas"`
	ReceitaTotal     decimal.Decimal `json:"receita_total"`
	MinData          *time.Time      `json:"min_data"`
	MaxData          *time.Time      `json:"max_data"`
	TopOperadoras    []RevenueRank   `json:"top_operadoras"`
	TopProcedimentos []RevenueRank   `json:"top_procedimentos"`
}
