package report

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) KPI(ctx context.Context, r DateRange) (*KPISummary, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.repo.KPI(ctx, r)
}

func (s *Service) MonthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error) {
	return s.repo.MonthlyRevenue(ctx)
}
