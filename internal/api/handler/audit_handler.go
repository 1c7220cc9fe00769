package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clubpedal/members-system/internal/core/ports"
)

// AuditHandler exposes the filtered/paginated audit reads. It is a thin
// forwarding surface: filters go straight to the audit service, which owns
// ordering and page-size bounds.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// Query handles GET /v1/audit?recordId=&userId=&limit=&offset=.
// Malformed or negative numeric parameters are rejected with 400 rather than
// silently defaulted.
//
// @Summary      Query the audit trail
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        recordId  query     string  false  "Filter by record id"
// @Param        userId    query     string  false  "Filter by actor"
// @Param        limit     query     int     false  "Page size (default 50)"
// @Param        offset    query     int     false  "Page offset (default 0)"
// @Success      200       {array}   domain.AuditEntry
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Router       /v1/audit [get]
func (h *AuditHandler) Query(c echo.Context) error {
	limit, err := intParam(c, "limit")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	offset, err := intParam(c, "offset")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
	}

	entries, err := h.service.Query(c.Request().Context(), ports.AuditQuery{
		RecordID: c.QueryParam("recordId"),
		User:     c.QueryParam("userId"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// intParam parses an optional non-negative integer query parameter; an empty
// value is 0.
func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
