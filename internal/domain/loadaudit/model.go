package loadaudit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one append-only record in load_audit, written after every
// ingestion run. It is an operational trail, not part of the mart's facts:
// nothing downstream joins against it.
type Entry struct {
	ID                int64           `db:"id" json:"id"`
	ExecutadoEm       time.Time       `db:"executado_em" json:"executado_em"`
	LinhasLidas       int             `db:"linhas_lidas" json:"linhas_lidas"`
	LinhasPersistidas int             `db:"linhas_persistidas" json:"linhas_persistidas"`
	P90Receita        decimal.Decimal `db:"p90_receita" json:"p90_receita"`
	Observacao        string          `db:"observacao" json:"observacao"`
}
