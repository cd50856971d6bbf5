package atendimento

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/saudemart/saudemart/internal/domain/loadaudit"
)

// AuditRecorder is the slice of the audit store the ingestion needs.
// Satisfied by loadaudit.Repository.
type AuditRecorder interface {
	Append(ctx context.Context, e *loadaudit.Entry) error
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	LinhasLidas       int             `json:"linhas_lidas"`
	LinhasPersistidas int             `json:"linhas_persistidas"`
	P90Receita        decimal.Decimal `json:"p90_receita"`
	AuditLogged       bool            `json:"audit_logged"`
}

type Service struct {
	repo   Repository
	audits AuditRecorder
	logger zerolog.Logger
}

func NewService(repo Repository, audits AuditRecorder, logger zerolog.Logger) *Service {
	return &Service{repo: repo, audits: audits, logger: logger}
}

// Ingest merges a batch of staged rows into the store. The whole batch is
// validated up front and either lands atomically or not at all; re-running
// the same batch converges on the same final state. The audit trail is
// best-effort: a failed audit write is logged and reported in the result,
// never surfaced as an ingestion failure.
func (s *Service) Ingest(ctx context.Context, batch []StagingRow, observacao string) (*IngestResult, error) {
	for i, row := range batch {
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	deduped := Dedup(batch)
	persisted, err := s.repo.MergeStaging(ctx, deduped)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		LinhasLidas:       len(batch),
		LinhasPersistidas: persisted,
		P90Receita:        Percentile90(deduped),
	}

	entry := &loadaudit.Entry{
		LinhasLidas:       result.LinhasLidas,
		LinhasPersistidas: result.LinhasPersistidas,
		P90Receita:        result.P90Receita,
		Observacao:        observacao,
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		s.logger.Warn().Err(err).
			Int("linhas_lidas", result.LinhasLidas).
			Int("linhas_persistidas", result.LinhasPersistidas).
			Msg("audit write failed after successful merge")
	} else {
		result.AuditLogged = true
	}

	s.logger.Info().
		Int("linhas_lidas", result.LinhasLidas).
		Int("linhas_persistidas", result.LinhasPersistidas).
		Str("p90_receita", result.P90Receita.StringFixed(2)).
		Bool("audit_logged", result.AuditLogged).
		Msg("ingestion completed")

	return result, nil
}

func (s *Service) GetByKey(ctx context.Context, data string, clienteID, procedimento string) (*Atendimento, error) {
	d, err := parseISODate(data)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByKey(ctx, d, clienteID, procedimento)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Atendimento, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
