package report

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type mockRepo struct {
	kpiCalls int
	summary  *KPISummary
	months   []MonthlyRevenue
}

func (m *mockRepo) KPI(ctx context.Context, r DateRange) (*KPISummary, error) {
	m.kpiCalls++
	return m.summary, nil
}

func (m *mockRepo) MonthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error) {
	return m.months, nil
}

func TestKPI_InvalidRangeShortCircuits(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	from, to := d("2025-03-31"), d("2025-01-01")
	_, err := svc.KPI(context.Background(), DateRange{From: &from, To: &to})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if repo.kpiCalls != 0 {
		t.Error("invalid range must not reach the repository")
	}
}

func TestKPI_ValidRangePassesThrough(t *testing.T) {
	want := &KPISummary{Linhas: 3, ReceitaTotal: decimal.NewFromInt(2490)}
	repo := &mockRepo{summary: want}
	svc := NewService(repo)

	got, err := svc.KPI(context.Background(), DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("expected repository summary to pass through unchanged")
	}
}
