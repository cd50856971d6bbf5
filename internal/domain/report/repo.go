package report

import "context"

type Repository interface {
	// KPI computes the summary for the window in one consistent snapshot.
	KPI(ctx context.Context, r DateRange) (*KPISummary, error)

	// MonthlyRevenue reads the month-by-month rollup view.
	MonthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error)
}
