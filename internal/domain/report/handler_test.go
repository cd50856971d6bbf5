package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func getKPI(t *testing.T, h *Handler, target string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return rec, h.KPI(e.NewContext(req, rec))
}

func TestKPIHandler_InvertedRange(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{summary: &KPISummary{}}))

	_, err := getKPI(t, h, "/reports/kpi?start=2025-03-31&end=2025-01-01")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestKPIHandler_MalformedDate(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{summary: &KPISummary{}}))

	for _, target := range []string{
		"/reports/kpi?start=31-03-2025",
		"/reports/kpi?end=notadate",
	} {
		_, err := getKPI(t, h, target)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %v", target, err)
		}
	}
}

func TestKPIHandler_HappyPath(t *testing.T) {
	min, max := d("2025-01-10"), d("2025-03-18")
	h := NewHandler(NewService(&mockRepo{summary: &KPISummary{
		Linhas:       3,
		ReceitaTotal: decimal.RequireFromString("2490.00"),
		MinData:      &min,
		MaxData:      &max,
		TopOperadoras: []RevenueRank{
			{Nome: "Unimed", Receita: decimal.RequireFromString("1050.00")},
		},
		TopProcedimentos: []RevenueRank{
			{Nome: "ENDOSCOPIA", Receita: decimal.RequireFromString("1440.00")},
		},
	}}))

	rec, err := getKPI(t, h, "/reports/kpi?start=2025-01-01&end=2025-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got KPISummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Linhas != 3 || !got.ReceitaTotal.Equal(decimal.RequireFromString("2490.00")) {
		t.Errorf("unexpected summary: %+v", got)
	}
	if len(got.TopOperadoras) != 1 || got.TopOperadoras[0].Nome != "Unimed" {
		t.Errorf("unexpected top operadoras: %+v", got.TopOperadoras)
	}
}

func TestMonthlyRevenueHandler(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{months: []MonthlyRevenue{
		{Mes: d("2024-01-01"), ReceitaTotal: decimal.RequireFromString("500.00")},
		{Mes: d("2024-02-01"), ReceitaTotal: decimal.RequireFromString("1050.00")},
	}}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/monthly-revenue", nil)
	rec := httptest.NewRecorder()
	if err := h.MonthlyRevenue(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var months []MonthlyRevenue
	if err := json.Unmarshal(rec.Body.Bytes(), &months); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(months) != 2 || !months[0].ReceitaTotal.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("unexpected months: %+v", months)
	}
}
