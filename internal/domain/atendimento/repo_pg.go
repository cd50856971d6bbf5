package atendimento

import (
	"context"
	"fmt"
	"time"

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

var stagingCols = []string{
	"data", "cliente_id", "operadora", "procedimento",
	"categoria", "qtde", "preco_unitario", "receita",
}

// MergeStaging stages the batch in a temp table via COPY, then merges it
// into atendimento with a single INSERT .. ON CONFLICT. The temp table is
// session-scoped and dropped on commit, so concurrent loads never see each
// other's staging rows.
func (r *repoPG) MergeStaging(ctx context.Context, rows []StagingRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE staging_atendimento (
			data           DATE          NOT NULL,
			cliente_id     VARCHAR(50)   NOT NULL,
			operadora      VARCHAR(100)  NOT NULL,
			procedimento   VARCHAR(100)  NOT NULL,
			categoria      VARCHAR(10)   NOT NULL,
			qtde           INTEGER       NOT NULL,
			preco_unitario NUMERIC(18,2) NOT NULL,
			receita        NUMERIC(18,2) NOT NULL
		) ON COMMIT DROP`)
	if err != nil {
		return 0, fmt.Errorf("create staging table: %w", db.MapError(err))
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"staging_atendimento"}, stagingCols,
		pgx.CopyFromSlice(len(rows), func(i int) ([]interface{}, error) {
			r := rows[i]
			return []interface{}{r.Data, r.ClienteID, r.Operadora, r.Procedimento,
				r.Categoria, r.Qtde, r.PrecoUnitario, r.Receita}, nil
		}))
	if err != nil {
		return 0, fmt.Errorf("copy into staging: %w", db.MapError(err))
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO atendimento
			(data, cliente_id, operadora, procedimento, categoria, qtde, preco_unitario, receita, load_date)
		SELECT data, cliente_id, operadora, procedimento, categoria, qtde, preco_unitario, receita, now()
		FROM staging_atendimento
		ON CONFLICT (data, cliente_id, procedimento) DO UPDATE SET
			operadora      = EXCLUDED.operadora,
			categoria      = EXCLUDED.categoria,
			qtde           = EXCLUDED.qtde,
			preco_unitario = EXCLUDED.preco_unitario,
			receita        = EXCLUDED.receita,
			load_date      = now()`)
	if err != nil {
		return 0, fmt.Errorf("merge staging: %w", db.MapError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit merge: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const cols = `id, data, cliente_id, operadora, procedimento, categoria,
	qtde, preco_unitario, receita, load_date`

func scanAtendimento(row pgx.Row) (*Atendimento, error) {
	var a Atendimento
	err := row.Scan(&a.ID, &a.Data, &a.ClienteID, &a.Operadora, &a.Procedimento,
		&a.Categoria, &a.Qtde, &a.PrecoUnitario, &a.Receita, &a.LoadDate)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &a, nil
}

func (r *repoPG) GetByKey(ctx context.Context, data time.Time, clienteID, procedimento string) (*Atendimento, error) {
	return scanAtendimento(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+` FROM atendimento
		WHERE data = $1 AND cliente_id = $2 AND procedimento = $3`,
		data, clienteID, procedimento))
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Atendimento, int, error) {
	where := ""
	args := []interface{}{}
	and := func(cond string, v interface{}) {
		args = append(args, v)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}
	if f.From != nil {
		and("data >= $%d", *f.From)
	}
	if f.To != nil {
		and("data <= $%d", *f.To)
	}
	if f.Operadora != "" {
		and("operadora = $%d", f.Operadora)
	}
	if f.Procedimento != "" {
		and("procedimento = $%d", f.Procedimento)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM atendimento`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+cols+` FROM atendimento`+where+` ORDER BY data, cliente_id, procedimento LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*Atendimento
	for rows.Next() {
		var a Atendimento
		if err := rows.Scan(&a.ID, &a.Data, &a.ClienteID, &a.Operadora, &a.Procedimento,
			&a.Categoria, &a.Qtde, &a.PrecoUnitario, &a.Receita, &a.LoadDate); err != nil {
			return nil, 0, db.MapError(err)
		}
		out = append(out, &a)
	}
	return out, total, rows.Err()
}
