package atendimento

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postJSON(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h.Ingest(c)
}

func TestIngestHandler_HappyPath(t *testing.T) {
	repo := &mockRepo{}
	h := NewHandler(NewService(repo, &mockAudit{}, zerolog.Nop()))

	body := `{
		"observacao": "sigsaude 2024-01",
		"rows": [
			{"data":"2024-01-15","cliente_id":"CLI-001","operadora":"Unimed","procedimento":"CONSULTA","categoria":"AMB","qtde":2,"preco_unitario":100,"receita":200},
			{"data":"2024-01-22","cliente_id":"CLI-002","operadora":"Bradesco Saude","procedimento":"EXAME-SANGUE","categoria":"LAB","qtde":3,"preco_unitario":"100","receita":"300"}
		]
	}`

	rec, err := postJSON(t, h, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result IngestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.LinhasLidas != 2 || result.LinhasPersistidas != 2 {
		t.Errorf("unexpected counters: %+v", result)
	}
	if !result.AuditLogged {
		t.Error("expected audit_logged true")
	}
}

func TestIngestHandler_BadDate(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}, &mockAudit{}, zerolog.Nop()))

	body := `{"rows":[{"data":"15/01/2024","cliente_id":"CLI-001","procedimento":"CONSULTA"}]}`
	_, err := postJSON(t, h, body)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed date, got %v", err)
	}
}

func TestIngestHandler_InvalidRow(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}, &mockAudit{}, zerolog.Nop()))

	body := `{"rows":[{"data":"2024-01-15","cliente_id":"","procedimento":"CONSULTA"}]}`
	_, err := postJSON(t, h, body)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid row, got %v", err)
	}
}

func TestListHandler_RangeValidation(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}, &mockAudit{}, zerolog.Nop()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/atendimentos?start=2025-03-31&end=2025-01-01", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.List(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %v", err)
	}
}

func TestListHandler_EmptyResultIsArray(t *testing.T) {
	h := NewHandler(NewService(&mockRepo{}, &mockAudit{}, zerolog.Nop()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/atendimentos", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", rec.Body.String())
	}
}
