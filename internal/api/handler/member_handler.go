package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clubpedal/members-system/internal/api/metrics"
	"github.com/clubpedal/members-system/internal/core/domain"
	"github.com/clubpedal/members-system/internal/core/ports"
)

// MemberHandler handles HTTP requests for the member lifecycle.
type MemberHandler struct {
	service ports.MemberService
}

func NewMemberHandler(service ports.MemberService) *MemberHandler {
	return &MemberHandler{service: service}
}

// List handles GET /v1/members — the active partition.
//
// @Summary      List active members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Member
// @Failure      401  {object}  map[string]string
// @Router       /v1/members [get]
func (h *MemberHandler) List(c echo.Context) error {
	members, err := h.service.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

// ListDeleted handles GET /v1/members/deleted — the deleted partition.
//
// @Summary      List soft-deleted members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Member
// @Failure      401  {object}  map[string]string
// @Router       /v1/members/deleted [get]
func (h *MemberHandler) ListDeleted(c echo.Context) error {
	members, err := h.service.ListDeleted(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

// Get handles GET /v1/members/:id.
//
// @Summary      Get an active member by id
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Member id"
// @Success      200  {object}  domain.Member
// @Failure      404  {object}  map[string]string
// @Router       /v1/members/{id} [get]
func (h *MemberHandler) Get(c echo.Context) error {
	member, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// Create handles POST /v1/members.
//
// @Summary      Register a new member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createMemberRequest  true  "Member details"
// @Success      201   {object}  domain.Member
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/members [post]
func (h *MemberHandler) Create(c echo.Context) error {
	_, actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	input, err := req.toInput(actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "birth_date must be formatted as YYYY-MM-DD")
	}

	member, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		countMutationError(err)
		return err
	}

	metrics.MutationsTotal.WithLabelValues(string(domain.ActionCreated)).Inc()
	return c.JSON(http.StatusCreated, member)
}

// Update handles PUT /v1/members/:id — patches an active member.
//
// @Summary      Update an active member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Member id"
// @Param        body  body      updateMemberRequest  true  "Fields to change"
// @Success      200   {object}  domain.Member
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/members/{id} [put]
func (h *MemberHandler) Update(c echo.Context) error {
	_, actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	input, err := req.toInput(actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "birth_date must be formatted as YYYY-MM-DD")
	}

	member, err := h.service.Update(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		countMutationError(err)
		return err
	}

	metrics.MutationsTotal.WithLabelValues(string(domain.ActionUpdated)).Inc()
	return c.JSON(http.StatusOK, member)
}

// Delete handles DELETE /v1/members/:id — a soft delete into the deleted
// partition. Requires a non-empty reason; force acknowledges dependent
// invoices.
//
// @Summary      Soft-delete a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Member id"
// @Param        body  body      deleteMemberRequest  true  "Deletion reason"
// @Success      200   {object}  domain.Member
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/members/{id} [delete]
func (h *MemberHandler) Delete(c echo.Context) error {
	_, actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req deleteMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	member, err := h.service.Delete(c.Request().Context(), c.Param("id"), ports.DeleteMemberInput{
		Actor:  actor,
		Reason: req.Reason,
		Force:  req.Force,
	})
	if err != nil {
		countMutationError(err)
		return err
	}

	metrics.MutationsTotal.WithLabelValues(string(domain.ActionDeleted)).Inc()
	return c.JSON(http.StatusOK, member)
}

// Restore handles POST /v1/members/:id/restore — moves a member from the
// deleted partition back to the active one.
//
// @Summary      Restore a soft-deleted member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Member id"
// @Success      200  {object}  domain.Member
// @Failure      404  {object}  map[string]string
// @Router       /v1/members/{id}/restore [post]
func (h *MemberHandler) Restore(c echo.Context) error {
	_, actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	member, err := h.service.Restore(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		countMutationError(err)
		return err
	}

	metrics.MutationsTotal.WithLabelValues(string(domain.ActionRestored)).Inc()
	return c.JSON(http.StatusOK, member)
}

// Dependents handles GET /v1/members/:id/dependents — the capability check
// callers consult before deleting.
//
// @Summary      Check for dependent invoices
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Member id"
// @Success      200  {object}  dependentsResponse
// @Router       /v1/members/{id}/dependents [get]
func (h *MemberHandler) Dependents(c echo.Context) error {
	id := c.Param("id")
	has, count, err := h.service.HasDependents(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dependentsResponse{
		MemberID:      id,
		HasDependents: has,
		InvoiceCount:  count,
	})
}

// Invoices handles GET /v1/members/:id/invoices — the dependent records
// themselves, newest first.
//
// @Summary      List a member's invoices
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Member id"
// @Success      200  {array}   domain.Invoice
// @Router       /v1/members/{id}/invoices [get]
func (h *MemberHandler) Invoices(c echo.Context) error {
	invoices, err := h.service.ListInvoices(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoices)
}

func countMutationError(err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		metrics.MutationErrorsTotal.WithLabelValues("validation").Inc()
	case errors.Is(err, domain.ErrMemberNotFound):
		metrics.MutationErrorsTotal.WithLabelValues("not_found").Inc()
	case errors.Is(err, domain.ErrHasDependents):
		metrics.MutationErrorsTotal.WithLabelValues("has_dependents").Inc()
	case errors.Is(err, domain.ErrAuditInconsistency):
		metrics.MutationErrorsTotal.WithLabelValues("audit_inconsistency").Inc()
		metrics.AuditAppendFailuresTotal.Inc()
	default:
		metrics.MutationErrorsTotal.WithLabelValues("store").Inc()
	}
}
