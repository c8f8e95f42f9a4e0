package handler

import (
	"github.com/gin-gonic/gin"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
)

// CommentHandler handles task comments
type CommentHandler struct {
	BaseHandler
	commentService *taskapp.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *taskapp.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// Add godoc
// @ID           addComment
// @Summary      Comment on a task
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        taskId  path string                 true "Task ID" format(uuid)
// @Param        request body taskapp.CommentRequest true "Comment"
// @Success      201 {object} dto.Response{data=taskapp.CommentResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /comments/task/{taskId} [post]
func (h *CommentHandler) Add(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "taskId")
	if !ok {
		return
	}
	var req taskapp.CommentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	comment, err := h.commentService.Add(c.Request.Context(), p.UserID, taskID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, comment)
}

// List godoc
// @ID           listComments
// @Summary      Comments on a task, newest first
// @Tags         comments
// @Produce      json
// @Param        taskId path string true "Task ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]taskapp.CommentResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /comments/task/{taskId} [get]
func (h *CommentHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "taskId")
	if !ok {
		return
	}
	comments, err := h.commentService.List(c.Request.Context(), p.UserID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comments)
}

// Delete godoc
// @ID           deleteComment
// @Summary      Delete a comment
// @Description  Only the author or an admin may delete
// @Tags         comments
// @Produce      json
// @Param        taskId path string true "Task ID" format(uuid)
// @Param        id     path string true "Comment ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /comments/task/{taskId}/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "taskId")
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.commentService.Delete(c.Request.Context(), p.UserID, p.IsAdmin(), taskID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "Comment deleted"})
}
