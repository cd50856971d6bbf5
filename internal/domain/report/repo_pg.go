package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saudemart/saudemart/internal/platform/db"
)

const topN = 5

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func rangeWhere(r DateRange) (string, []interface{}) {
	where := ""
	args := []interface{}{}
	if r.From != nil {
		args = append(args, *r.From)
		where = fmt.Sprintf(" WHERE data >= $%d", len(args))
	}
	if r.To != nil {
		args = append(args, *r.To)
		if where == "" {
			where = fmt.Sprintf(" WHERE data <= $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND data <= $%d", len(args))
		}
	}
	return where, args
}

// KPI runs its queries inside one repeatable-read, read-only transaction so
// a load committing mid-report cannot skew the totals against the rankings.
func (r *repoPG) KPI(ctx context.Context, dr DateRange) (*KPISummary, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin report snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	where, args := rangeWhere(dr)

	summary := &KPISummary{}
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(receita), 0), MIN(data), MAX(data)
		FROM atendimento`+where, args...).
		Scan(&summary.Linhas, &summary.ReceitaTotal, &summary.MinData, &summary.MaxData)
	if err != nil {
		return nil, db.MapError(err)
	}

	top := func(column string) ([]RevenueRank, error) {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
			SELECT %s, SUM(receita) AS receita
			FROM atendimento%s
			GROUP BY %s
			ORDER BY receita DESC, %s ASC
			LIMIT %d`, column, where, column, column, topN), args...)
		if err != nil {
			return nil, db.MapError(err)
		}
		defer rows.Close()

		ranks := []RevenueRank{}
		for rows.Next() {
			var rk RevenueRank
			if err := rows.Scan(&rk.Nome, &rk.Receita); err != nil {
				return nil, db.MapError(err)
			}
			ranks = append(ranks, rk)
		}
		return ranks, rows.Err()
	}

	if summary.TopOperadoras, err = top("operadora"); err != nil {
		return nil, err
	}
	if summary.TopProcedimentos, err = top("procedimento"); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("close report snapshot: %w", err)
	}
	return summary, nil
}

func (r *repoPG) MonthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mes, receita_total FROM vw_receita_mensal ORDER BY mes`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	out := []MonthlyRevenue{}
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Mes, &m.ReceitaTotal); err != nil {
			return nil, db.MapError(err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
