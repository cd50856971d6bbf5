package atendimento

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRow marks a staging row the store cannot hold.
var ErrInvalidRow = errors.New("invalid staging row")

// Atendimento maps to the atendimento table: one row per visit/claim.
// The natural key is (Data, ClienteID, Procedimento); ID is a surrogate
// assigned by the store. Receita is stored as supplied by the source and
// is not recomputed from Qtde times PrecoUnitario.
type Atendimento struct {
	ID            int64           `db:"id" json:"id"`
	Data          time.Time       `db:"data" json:"data"`
	ClienteID     string          `db:"cliente_id" json:"cliente_id"`
	Operadora     string          `db:"operadora" json:"operadora"`
	Procedimento  string          `db:"procedimento" json:"procedimento"`
	Categoria     string          `db:"categoria" json:"categoria"`
	Qtde          int             `db:"qtde" json:"qtde"`
	PrecoUnitario decimal.Decimal `db:"preco_unitario" json:"preco_unitario"`
	Receita       decimal.Decimal `db:"receita" json:"receita"`
	LoadDate      time.Time       `db:"load_date" json:"load_date"`
}

// StagingRow is the staging shape: an Atendimento minus the surrogate id
// and load timestamp, both of which the merge assigns.
type StagingRow struct {
	Data          time.Time       `json:"data"`
	ClienteID     string          `json:"cliente_id"`
	Operadora     string          `json:"operadora"`
	Procedimento  string          `json:"procedimento"`
	Categoria     string          `json:"categoria"`
	Qtde          int             `json:"qtde"`
	PrecoUnitario decimal.Decimal `json:"preco_unitario"`
	Receita       decimal.Decimal `json:"receita"`
}

// NaturalKey identifies a visit independently of its surrogate id.
type NaturalKey struct {
	Data         string // ISO date, time-of-day stripped
	ClienteID    string
	Procedimento string
}

// Key returns the row's natural key.
func (r StagingRow) Key() NaturalKey {
	return NaturalKey{
		Data:         r.Data.Format("2006-01-02"),
		ClienteID:    r.ClienteID,
		Procedimento: r.Procedimento,
	}
}

// Validate rejects rows the store cannot hold. A single invalid row fails
// the whole batch: a partially-loaded state is worse than a retried one.
func (r StagingRow) Validate() error {
	if r.Data.IsZero() {
		return fmt.Errorf("%w: data is required", ErrInvalidRow)
	}
	if r.ClienteID == "" {
		return fmt.Errorf("%w: cliente_id is required", ErrInvalidRow)
	}
	if r.Procedimento == "" {
		return fmt.Errorf("%w: procedimento is required", ErrInvalidRow)
	}
	return nil
}

func parseISODate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// Dedup collapses rows sharing a natural key, keeping the last occurrence,
// the same way the upstream loader resolves duplicates. First-occurrence
// order is preserved so batches stay diffable in logs.
func Dedup(rows []StagingRow) []StagingRow {
	seen := make(map[NaturalKey]int, len(rows))
	out := make([]StagingRow, 0, len(rows))
	for _, r := range rows {
		if i, ok := seen[r.Key()]; ok {
			out[i] = r
			continue
		}
		seen[r.Key()] = len(out)
		out = append(out, r)
	}
	return out
}

// Percentile90 returns the 90th percentile of batch revenue, linearly
// interpolated between the two nearest ranks. Zero for an empty batch.
func Percentile90(rows []StagingRow) decimal.Decimal {
	if len(rows) == 0 {
		return decimal.Zero
	}

	values := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		values[i] = r.Receita
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

	pos := 0.9 * float64(len(values)-1)
	lower := int(pos)
	if lower >= len(values)-1 {
		return values[len(values)-1]
	}
	frac := decimal.NewFromFloat(pos - float64(lower))
	return values[lower].Add(values[lower+1].Sub(values[lower]).Mul(frac))
}
