package handler

import (
	"github.com/gin-gonic/gin"
	notificationapp "github.com/taskflow/backend/internal/application/notification"
)

// NotificationHandler handles the caller's notification inbox
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *notificationapp.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// @ID           listNotifications
// @Summary      List notifications, newest first
// @Tags         notifications
// @Produce      json
// @Param        only_open query bool false "Skip closed notifications"
// @Success      200 {object} dto.Response{data=[]notificationapp.NotificationResponse}
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req notificationapp.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	items, err := h.notificationService.List(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// MarkAsRead godoc
// @ID           markNotificationRead
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID" format(uuid)
// @Success      200 {object} dto.Response{data=notificationapp.NotificationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	n, err := h.notificationService.MarkAsRead(c.Request.Context(), p.UserID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, n)
}

// Close godoc
// @ID           closeNotification
// @Summary      Close a notification
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID" format(uuid)
// @Success      200 {object} dto.Response{data=notificationapp.NotificationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /notifications/{id}/close [patch]
func (h *NotificationHandler) Close(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	n, err := h.notificationService.Close(c.Request.Context(), p.UserID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, n)
}
