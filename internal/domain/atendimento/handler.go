package atendimento

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/saudemart/saudemart/internal/platform/auth"
	"github.com/saudemart/saudemart/internal/platform/db"
	"github.com/saudemart/saudemart/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "etl", "dashboard"))
	readGroup.GET("/atendimentos", h.List)
	readGroup.GET("/atendimentos/:data/:cliente_id/:procedimento", h.GetByKey)

	writeGroup := api.Group("", auth.RequireRole("admin", "etl"))
	writeGroup.POST("/ingestions", h.Ingest)
}

// ingestRow is the wire shape of a staged row. Dates travel as YYYY-MM-DD
// and money as JSON numbers or numeric strings.
type ingestRow struct {
	Data          string          `json:"data"`
	ClienteID     string          `json:"cliente_id"`
	Operadora     string          `json:"operadora"`
	Procedimento  string          `json:"procedimento"`
	Categoria     string          `json:"categoria"`
	Qtde          int             `json:"qtde"`
	PrecoUnitario decimal.Decimal `json:"preco_unitario"`
	Receita       decimal.Decimal `json:"receita"`
}

type ingestRequest struct {
	Observacao string      `json:"observacao"`
	Rows       []ingestRow `json:"rows"`
}

func (req *ingestRequest) toStaging() ([]StagingRow, error) {
	out := make([]StagingRow, 0, len(req.Rows))
	for _, r := range req.Rows {
		d, err := parseISODate(r.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, StagingRow{
			Data:          d,
			ClienteID:     r.ClienteID,
			Operadora:     r.Operadora,
			Procedimento:  r.Procedimento,
			Categoria:     r.Categoria,
			Qtde:          r.Qtde,
			PrecoUnitario: r.PrecoUnitario,
			Receita:       r.Receita,
		})
	}
	return out, nil
}

func (h *Handler) Ingest(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	batch, err := req.toStaging()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Ingest(c.Request().Context(), batch, req.Observacao)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRow):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, db.ErrDuplicateKey):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, db.ErrTypeMismatch):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) GetByKey(c echo.Context) error {
	a, err := h.svc.GetByKey(c.Request().Context(),
		c.Param("data"), c.Param("cliente_id"), c.Param("procedimento"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "atendimento not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	var f ListFilter
	if raw := c.QueryParam("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
		}
		f.From = &t
	}
	if raw := c.QueryParam("end"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return echo.NewHTTPError(http.StatusBadRequest, "start must not be after end")
	}
	f.Operadora = c.QueryParam("operadora")
	f.Procedimento = c.QueryParam("procedimento")

	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Atendimento{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
