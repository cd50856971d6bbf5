package loadaudit

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saudemart/saudemart/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Append(ctx context.Context, e *Entry) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO load_audit (linhas_lidas, linhas_persistidas, p90_receita, observacao)
		VALUES ($1, $2, $3, $4)
		RETURNING id, executado_em`,
		e.LinhasLidas, e.LinhasPersistidas, e.P90Receita, e.Observacao,
	).Scan(&e.ID, &e.ExecutadoEm)
	return db.MapError(err)
}

func (r *repoPG) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, executado_em, linhas_lidas, linhas_persistidas, p90_receita, observacao
		FROM load_audit
		ORDER BY executado_em DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ExecutadoEm, &e.LinhasLidas, &e.LinhasPersistidas, &e.P90Receita, &e.Observacao); err != nil {
			return nil, db.MapError(err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
