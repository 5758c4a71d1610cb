package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tripnetwork/identity-service/internal/api/metrics"
	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

const (
	msgInvalidProviderID = "Invalid provider id"
	msgProviderApproved  = "Provider approved successfully"
	msgProviderRejected  = "Provider rejected successfully"
)

// AdminHandler serves the provider vetting endpoints. Every route sits behind
// the authentication gate and RequireRoles(admin).
type AdminHandler struct {
	approvals ports.ApprovalService
}

func NewAdminHandler(approvals ports.ApprovalService) *AdminHandler {
	return &AdminHandler{approvals: approvals}
}

// ListPending returns every provider waiting for a decision, newest first.
//
// @Summary      List pending providers
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  successResponse
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Router       /admin/pending-providers [get]
func (h *AdminHandler) ListPending(c echo.Context) error {
	accounts, err := h.approvals.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Data: accounts})
}

// Approve activates a pending provider.
//
// @Summary      Approve a provider
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Provider account id"
// @Success      200  {object}  successResponse
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /admin/providers/{id}/approve [put]
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.decide(c, "approve", h.approvals.Approve, msgProviderApproved)
}

// Reject blocks a pending provider.
//
// @Summary      Reject a provider
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Provider account id"
// @Success      200  {object}  successResponse
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /admin/providers/{id}/reject [put]
func (h *AdminHandler) Reject(c echo.Context) error {
	return h.decide(c, "reject", h.approvals.Reject, msgProviderRejected)
}

type decisionFunc func(ctx context.Context, actorID, accountID int64) error

func (h *AdminHandler) decide(c echo.Context, action string, apply decisionFunc, msg string) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return domain.NewValidationError(msgInvalidProviderID)
	}

	if err := apply(c.Request().Context(), actor.ID, id); err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrNotFoundOrAlreadyProcessed) {
			outcome = "already_processed"
		}
		metrics.ApprovalDecisionsTotal.WithLabelValues(action, outcome).Inc()
		return err
	}
	metrics.ApprovalDecisionsTotal.WithLabelValues(action, "applied").Inc()

	return c.JSON(http.StatusOK, successResponse{Success: true, Message: msg})
}
