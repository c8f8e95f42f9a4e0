package handler

import (
	"github.com/gin-gonic/gin"
	invitationapp "github.com/taskflow/backend/internal/application/invitation"
)

// InvitationHandler handles task sharing invitations
type InvitationHandler struct {
	BaseHandler
	invitationService *invitationapp.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationService *invitationapp.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// Create godoc
// @ID           createInvitation
// @Summary      Invite a user to a task
// @Description  Owner only. The recipient is notified and gets access on acceptance.
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        request body invitationapp.CreateInvitationRequest true "Invitation"
// @Success      201 {object} dto.Response{data=invitationapp.InvitationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invitations [post]
func (h *InvitationHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req invitationapp.CreateInvitationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invitationService.Create(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// Accept godoc
// @ID           acceptInvitation
// @Summary      Accept an invitation
// @Tags         invitations
// @Produce      json
// @Param        id path string true "Invitation ID" format(uuid)
// @Success      200 {object} dto.Response{data=invitationapp.InvitationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invitations/{id}/accept [put]
func (h *InvitationHandler) Accept(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invitationService.Accept(c.Request.Context(), p.UserID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Decline godoc
// @ID           declineInvitation
// @Summary      Decline an invitation
// @Tags         invitations
// @Produce      json
// @Param        id path string true "Invitation ID" format(uuid)
// @Success      200 {object} dto.Response{data=invitationapp.InvitationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invitations/{id}/decline [put]
func (h *InvitationHandler) Decline(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invitationService.Decline(c.Request.Context(), p.UserID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// ListPending godoc
// @ID           listPendingInvitations
// @Summary      Pending invitations addressed to the caller
// @Tags         invitations
// @Produce      json
// @Success      200 {object} dto.Response{data=[]invitationapp.InvitationResponse}
// @Router       /invitations/pending [get]
func (h *InvitationHandler) ListPending(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	pending, err := h.invitationService.ListPending(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pending)
}
