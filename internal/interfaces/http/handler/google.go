package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	calendarapp "github.com/taskflow/backend/internal/application/calendar"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// GoogleHandler handles the Google Calendar connection and sync
type GoogleHandler struct {
	BaseHandler
	calendarService *calendarapp.CalendarService
}

// NewGoogleHandler creates a new Google Calendar handler
func NewGoogleHandler(calendarService *calendarapp.CalendarService) *GoogleHandler {
	return &GoogleHandler{calendarService: calendarService}
}

// AuthURL godoc
// @ID           googleAuthURL
// @Summary      Start the Google OAuth flow
// @Description  Returns the consent URL. The state parameter is bound to the caller for ten minutes.
// @Tags         google
// @Produce      json
// @Success      200 {object} dto.Response{data=calendarapp.AuthURLResponse}
// @Router       /google/auth [get]
func (h *GoogleHandler) AuthURL(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	resp, err := h.calendarService.AuthURL(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Callback godoc
// @ID           googleCallback
// @Summary      OAuth redirect target
// @Description  Unauthenticated. Redirects the browser to the frontend with ?status=success or ?status=error.
// @Tags         google
// @Param        code  query string false "Authorization code"
// @Param        state query string true  "OAuth state"
// @Param        error query string false "Error reported by Google"
// @Success      302
// @Router       /google/callback [get]
func (h *GoogleHandler) Callback(c *gin.Context) {
	req := calendarapp.CallbackRequest{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Error: c.Query("error"),
	}
	target, err := h.calendarService.Callback(c.Request.Context(), req)
	if err != nil {
		var domainErr *shared.DomainError
		if !errors.As(err, &domainErr) {
			logger.L(c.Request.Context()).Error("Google callback failed",
				zap.String("request_id", getRequestID(c)),
				zap.Error(err))
		}
	}
	c.Redirect(http.StatusFound, target)
}

// Check godoc
// @ID           googleCheck
// @Summary      Whether Google Calendar is connected
// @Tags         google
// @Produce      json
// @Success      200 {object} dto.Response{data=calendarapp.StatusResponse}
// @Router       /google/check [get]
func (h *GoogleHandler) Check(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	status, err := h.calendarService.Check(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Sync godoc
// @ID           googleSync
// @Summary      Push owned tasks with due dates to Google Calendar
// @Description  One sync per user at a time. The result can be undone for five minutes.
// @Tags         google
// @Produce      json
// @Success      200 {object} dto.Response{data=calendarapp.SyncResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /google/sync [post]
func (h *GoogleHandler) Sync(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.calendarService.Sync(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel godoc
// @ID           googleCancel
// @Summary      Cancel a running sync
// @Tags         google
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Router       /google/cancel [post]
func (h *GoogleHandler) Cancel(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	if err := h.calendarService.Cancel(c.Request.Context(), p.UserID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "Sync cancellation requested"})
}

// Undo godoc
// @ID           googleUndo
// @Summary      Undo the most recent sync
// @Tags         google
// @Produce      json
// @Success      200 {object} dto.Response{data=calendarapp.UndoResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /google/undo [post]
func (h *GoogleHandler) Undo(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.calendarService.Undo(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Disconnect godoc
// @ID           googleDisconnect
// @Summary      Forget the stored Google grant
// @Tags         google
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Router       /google/disconnect [post]
func (h *GoogleHandler) Disconnect(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	if err := h.calendarService.Disconnect(c.Request.Context(), p.UserID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "Google Calendar disconnected"})
}
