package order

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/denshin/denshin/internal/platform/telegram"
	"github.com/denshin/denshin/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers telegram ingestion and query endpoints.
//
//	POST /api/v1/telegrams                    - Ingest a raw telegram body
//	POST /api/v1/telegrams/upload             - Ingest a telegram file (multipart)
//	GET  /api/v1/telegrams                    - List stored telegrams
//	GET  /api/v1/telegrams/search             - Search by order number and version
//	GET  /api/v1/telegrams/:id                - Full stored record
//	GET  /api/v1/telegrams/:id/prescriptions  - Dispensing item lines only
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/telegrams", h.IngestTelegram)
	api.POST("/telegrams/upload", h.UploadTelegram)
	api.GET("/telegrams", h.ListTelegrams)
	api.GET("/telegrams/search", h.SearchTelegrams)
	api.GET("/telegrams/:id", h.GetTelegram)
	api.GET("/telegrams/:id/prescriptions", h.GetPrescriptions)
}

// IngestTelegram handles POST /api/v1/telegrams. The request body is the
// raw CP932 telegram bytes.
func (h *Handler) IngestTelegram(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is empty")
	}
	return h.ingest(c, body)
}

// UploadTelegram handles POST /api/v1/telegrams/upload. The telegram comes
// as a multipart file named "file", matching how HIS operators export them.
func (h *Handler) UploadTelegram(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart file field 'file' is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "uploaded file is empty")
	}
	return h.ingest(c, body)
}

func (h *Handler) ingest(c echo.Context, body []byte) error {
	t, err := h.svc.Ingest(c.Request().Context(), body)
	if err != nil {
		if telegram.ErrorKind(err) != "" {
			return telegram.ParseErrorResponse(c, err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store telegram")
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTelegrams(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) SearchTelegrams(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(),
		c.QueryParam("order_number"), c.QueryParam("version"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) GetTelegram(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "telegram not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetPrescriptions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.Prescriptions(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "telegram not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []telegram.ItemLine{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"telegram_id": id,
		"items":       items,
	})
}

func views(items []*Telegram) []ListView {
	out := make([]ListView, len(items))
	for i, t := range items {
		out[i] = t.View()
	}
	return out
}
