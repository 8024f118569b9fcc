package telegram

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP endpoints for stateless telegram parsing. Nothing
// here touches storage; persisted ingestion lives in the order domain.
type Handler struct{}

// NewHandler creates a new telegram handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes registers telegram endpoints on the provided route group.
//
//	POST /api/v1/telegram/parse - Parse a raw telegram to JSON without storing it
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/telegram/parse", h.ParseTelegram)
}

// ParseTelegram handles POST /api/v1/telegram/parse.
// It reads a raw CP932 telegram from the request body and returns the
// nested record plus the flattened summary. Validation failures come back
// as 422 with every violated rule listed.
func (h *Handler) ParseTelegram(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}

	if len(body) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "request body is empty",
		})
	}

	rec, err := Parse(body)
	if err != nil {
		return ParseErrorResponse(c, err)
	}

	if err := Validate(rec); err != nil {
		return ParseErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary": rec.Summary(),
		"record":  rec,
	})
}

// ParseErrorResponse writes the JSON error body for a parse or validation
// failure: validation errors carry their full violation list with a 422,
// everything else in the taxonomy gets a 400 with the machine kind.
func ParseErrorResponse(c echo.Context, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":      "telegram failed validation",
			"kind":       KindValidation,
			"violations": verr.Violations,
		})
	}

	kind := ErrorKind(err)
	if kind == "" {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to process telegram",
		})
	}

	return c.JSON(http.StatusBadRequest, map[string]string{
		"error": err.Error(),
		"kind":  kind,
	})
}
