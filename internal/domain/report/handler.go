package report

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/saudemart/saudemart/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "dashboard"))
	readGroup.GET("/reports/kpi", h.KPI)
	readGroup.GET("/reports/monthly-revenue", h.MonthlyRevenue)
}

func parseRange(c echo.Context) (DateRange, error) {
	var r DateRange
	if raw := c.QueryParam("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return r, echo.NewHTTPError(http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		}
		r.From = &t
	}
	if raw := c.QueryParam("end"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return r, echo.NewHTTPError(http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		}
		r.To = &t
	}
	return r, nil
}

func (h *Handler) KPI(c echo.Context) error {
	r, err := parseRange(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.KPI(c.Request().Context(), r)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) MonthlyRevenue(c echo.Context) error {
	months, err := h.svc.MonthlyRevenue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, months)
}
