package order

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/denshin/denshin/internal/platform/telegram"
)

func newTestHandler() (*Handler, *mockTelegramRepo, *echo.Echo) {
	svc, repo := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func TestHandler_IngestTelegram(t *testing.T) {
	h, repo, e := newTestHandler()
	body := buildTelegram(t, nil, []map[string]string{prescriptionItem("薬剤A")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegrams", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.IngestTelegram(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result Telegram
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	if result.OrderNumber != "12345678" {
		t.Errorf("expected order_number 12345678, got %q", result.OrderNumber)
	}
	if len(repo.items) != 1 {
		t.Errorf("expected 1 stored row, got %d", len(repo.items))
	}
}

func TestHandler_IngestTelegram_ValidationFailure(t *testing.T) {
	h, repo, e := newTestHandler()
	body := buildTelegram(t, map[telegram.SegmentType]map[string]string{
		telegram.SegOrder: {"number": "BAD"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegrams", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.IngestTelegram(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Violations []telegram.Violation `json:"violations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	if len(result.Violations) == 0 {
		t.Error("expected violations in response")
	}
	if len(repo.items) != 0 {
		t.Error("invalid telegram must not be persisted")
	}
}

func TestHandler_IngestTelegram_EmptyBody(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegrams", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.IngestTelegram(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_UploadTelegram(t *testing.T) {
	h, repo, e := newTestHandler()
	body := buildTelegram(t, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "order.dat")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(body); err != nil {
		t.Fatalf("write multipart: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegrams/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.UploadTelegram(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.items) != 1 {
		t.Errorf("expected 1 stored row, got %d", len(repo.items))
	}
}

func TestHandler_UploadTelegram_MissingFile(t *testing.T) {
	h, _, e := newTestHandler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telegrams/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.UploadTelegram(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_ListTelegrams(t *testing.T) {
	h, repo, e := newTestHandler()
	svc := NewService(repo, h.svc.logger)
	for i := 0; i < 3; i++ {
		if _, err := svc.Ingest(context.Background(), buildTelegram(t, nil, nil)); err != nil {
			t.Fatalf("seed Ingest: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/telegrams?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListTelegrams(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result struct {
		Data    []ListView `json:"data"`
		Total   int        `json:"total"`
		HasMore bool       `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 rows on page, got %d", len(result.Data))
	}
	if !result.HasMore {
		t.Error("expected has_more=true")
	}
}

func TestHandler_SearchTelegrams_BadParams(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/telegrams/search?order_number=12", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SearchTelegrams(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_GetTelegram_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/telegrams/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetTelegram(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandler_GetTelegram(t *testing.T) {
	h, repo, e := newTestHandler()
	svc := NewService(repo, h.svc.logger)
	tg, err := svc.Ingest(context.Background(), buildTelegram(t, nil, []map[string]string{prescriptionItem("薬剤A")}))
	if err != nil {
		t.Fatalf("seed Ingest: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/telegrams/"+tg.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tg.ID.String())

	if err := h.GetTelegram(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result Telegram
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	if result.RawData == nil {
		t.Fatal("expected full nested record in detail response")
	}
	if len(result.RawData.Content.ItemGroup.ItemInfo) != 1 {
		t.Errorf("expected 1 item line, got %d", len(result.RawData.Content.ItemGroup.ItemInfo))
	}
}

func TestHandler_GetPrescriptions(t *testing.T) {
	h, repo, e := newTestHandler()
	svc := NewService(repo, h.svc.logger)

	admin := prescriptionItem("手技料")
	admin["attribute"] = "Z99"
	tg, err := svc.Ingest(context.Background(), buildTelegram(t, nil, []map[string]string{
		prescriptionItem("薬剤A"), admin,
	}))
	if err != nil {
		t.Fatalf("seed Ingest: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/telegrams/"+tg.ID.String()+"/prescriptions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tg.ID.String())

	if err := h.GetPrescriptions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result struct {
		Items []telegram.ItemLine `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	if len(result.Items) != 1 {
		t.Errorf("expected 1 prescription line, got %d", len(result.Items))
	}
}
