package atendimento

import (
	"context"
	"time"
)

// ListFilter narrows visit listings. Nil date bounds are open-ended.
type ListFilter struct {
	From         *time.Time
	To           *time.Time
	Operadora    string
	Procedimento string
}

type Repository interface {
	// MergeStaging loads the batch through an ephemeral staging table and
	// upserts it into atendimento in a single transaction, keyed on
	// (data, cliente_id, procedimento). Returns the number of rows the
	// merge touched. The batch must already be free of natural-key
	// duplicates.
	MergeStaging(ctx context.Context, rows []StagingRow) (int, error)

	GetByKey(ctx context.Context, data time.Time, clienteID, procedimento string) (*Atendimento, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Atendimento, int, error)
}
