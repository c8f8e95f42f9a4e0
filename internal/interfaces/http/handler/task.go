package handler

import (
	"github.com/gin-gonic/gin"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
)

// TaskHandler handles task CRUD, search and the upcoming-deadline feed
type TaskHandler struct {
	BaseHandler
	taskService   *taskapp.TaskService
	accessService *taskapp.AccessService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *taskapp.TaskService, accessService *taskapp.AccessService) *TaskHandler {
	return &TaskHandler{
		taskService:   taskService,
		accessService: accessService,
	}
}

// MarkedResponse reports how many tasks were flagged as notified
type MarkedResponse struct {
	Marked int `json:"marked"`
}

// Create godoc
// @ID           createTask
// @Summary      Create a task
// @Description  parent_task_id creates a subtask; the caller needs EDIT on the parent
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        request body taskapp.CreateTaskRequest true "Task"
// @Success      201 {object} dto.Response{data=taskapp.TaskResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req taskapp.CreateTaskRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.taskService.Create(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// List godoc
// @ID           listTasks
// @Summary      Top-level tasks visible to the caller
// @Tags         tasks
// @Produce      json
// @Success      200 {object} dto.Response{data=[]taskapp.TaskResponse}
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListTopLevel(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tasks)
}

// Get godoc
// @ID           getTask
// @Summary      Get a task with its subtasks
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID" format(uuid)
// @Success      200 {object} dto.Response{data=taskapp.TaskResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	t, err := h.taskService.Get(c.Request.Context(), p.UserID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Update godoc
// @ID           updateTask
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Task ID" format(uuid)
// @Param        request body taskapp.UpdateTaskRequest true "Changes"
// @Success      200 {object} dto.Response{data=taskapp.TaskResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req taskapp.UpdateTaskRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.taskService.Update(c.Request.Context(), p.UserID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// UpdateStatus godoc
// @ID           updateTaskStatus
// @Summary      Change a task's status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Task ID" format(uuid)
// @Param        request body taskapp.UpdateStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=taskapp.TaskResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req taskapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.taskService.UpdateStatus(c.Request.Context(), p.UserID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// UpdateDueDate godoc
// @ID           updateTaskDueDate
// @Summary      Set or clear a task's due date
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Task ID" format(uuid)
// @Param        request body taskapp.UpdateDueDateRequest true "Due date, null clears it"
// @Success      200 {object} dto.Response{data=taskapp.TaskResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id}/due-date [patch]
func (h *TaskHandler) UpdateDueDate(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req taskapp.UpdateDueDateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.taskService.UpdateDueDate(c.Request.Context(), p.UserID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Delete godoc
// @ID           deleteTask
// @Summary      Delete a task and its subtasks
// @Description  Owner only
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.Delete(c.Request.Context(), p.UserID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "Task deleted"})
}

// Search godoc
// @ID           searchTasks
// @Summary      Search and filter tasks
// @Tags         tasks
// @Produce      json
// @Param        q            query string false "Title or description fragment"
// @Param        status       query string false "Status" Enums(TO_DO, IN_PROGRESS, DONE)
// @Param        priority     query string false "Priority" Enums(LOW, MEDIUM, HIGH)
// @Param        category_id  query string false "Category ID"
// @Param        due          query string false "Due window" Enums(today, week, overdue, no_date)
// @Param        access_level query string false "Caller access" Enums(OWNER, EDIT, VIEW)
// @Param        sort_by      query string false "Sort field"
// @Param        sort_order   query string false "asc or desc"
// @Success      200 {object} dto.Response{data=[]taskapp.TaskResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/search [get]
func (h *TaskHandler) Search(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req taskapp.SearchTasksRequest
	if !h.bindQuery(c, &req) {
		return
	}
	tasks, err := h.taskService.Search(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tasks)
}

// Today godoc
// @ID           listTodayTasks
// @Summary      Tasks due today
// @Tags         tasks
// @Produce      json
// @Success      200 {object} dto.Response{data=[]taskapp.TaskResponse}
// @Router       /tasks/today [get]
func (h *TaskHandler) Today(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListToday(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tasks)
}

// Upcoming godoc
// @ID           listUpcomingTasks
// @Summary      Tasks due within the caller's notification window
// @Tags         tasks
// @Produce      json
// @Param        minutes query int false "Window override in minutes"
// @Success      200 {object} dto.Response{data=[]taskapp.TaskResponse}
// @Router       /tasks/upcoming [get]
func (h *TaskHandler) Upcoming(c *gin.Context) {
	h.listUpcoming(c, false)
}

// UpcomingNotNotified godoc
// @ID           listUpcomingNotNotifiedTasks
// @Summary      Upcoming tasks that have not been announced yet
// @Tags         tasks
// @Produce      json
// @Param        minutes query int false "Window override in minutes"
// @Success      200 {object} dto.Response{data=[]taskapp.TaskResponse}
// @Router       /tasks/upcoming/notNotified [get]
func (h *TaskHandler) UpcomingNotNotified(c *gin.Context) {
	h.listUpcoming(c, true)
}

func (h *TaskHandler) listUpcoming(c *gin.Context, notNotified bool) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req taskapp.UpcomingRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.NotNotified = notNotified
	tasks, err := h.taskService.ListUpcoming(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tasks)
}

// MarkUpcomingNotified godoc
// @ID           markUpcomingNotified
// @Summary      Flag upcoming tasks as announced
// @Tags         tasks
// @Produce      json
// @Param        minutes query int false "Window override in minutes"
// @Success      200 {object} dto.Response{data=MarkedResponse}
// @Router       /tasks/upcoming [patch]
func (h *TaskHandler) MarkUpcomingNotified(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req taskapp.UpcomingRequest
	if !h.bindQuery(c, &req) {
		return
	}
	n, err := h.taskService.MarkUpcomingNotified(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MarkedResponse{Marked: n})
}

// SharedOwners godoc
// @ID           listSharedOwners
// @Summary      Owners of tasks shared with the caller
// @Tags         tasks
// @Produce      json
// @Success      200 {object} dto.Response{data=[]taskapp.OwnerSummary}
// @Router       /tasks/users [get]
func (h *TaskHandler) SharedOwners(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	owners, err := h.accessService.SharedOwners(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, owners)
}

// ListAccess godoc
// @ID           listTaskAccess
// @Summary      Access grants on a task
// @Tags         access
// @Produce      json
// @Param        id path string true "Task ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]taskapp.AccessResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id}/access [get]
func (h *TaskHandler) ListAccess(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	grants, err := h.accessService.List(c.Request.Context(), p.UserID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grants)
}

// UpdateAccess godoc
// @ID           updateTaskAccess
// @Summary      Change a collaborator's access level
// @Description  Owner only. OWNER grants cannot be changed.
// @Tags         access
// @Accept       json
// @Produce      json
// @Param        id       path string                      true "Task ID" format(uuid)
// @Param        accessId path string                      true "Access ID" format(uuid)
// @Param        request  body taskapp.UpdateAccessRequest true "Level"
// @Success      200 {object} dto.Response{data=taskapp.AccessResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id}/access/{accessId} [patch]
func (h *TaskHandler) UpdateAccess(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	accessID, ok := h.pathUUID(c, "accessId")
	if !ok {
		return
	}
	var req taskapp.UpdateAccessRequest
	if !h.bindJSON(c, &req) {
		return
	}
	grant, err := h.accessService.UpdateLevel(c.Request.Context(), p.UserID, taskID, accessID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, grant)
}

// RevokeAccess godoc
// @ID           revokeTaskAccess
// @Summary      Remove a collaborator
// @Tags         access
// @Produce      json
// @Param        id       path string true "Task ID" format(uuid)
// @Param        accessId path string true "Access ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /tasks/{id}/access/{accessId} [delete]
func (h *TaskHandler) RevokeAccess(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	accessID, ok := h.pathUUID(c, "accessId")
	if !ok {
		return
	}
	if err := h.accessService.Revoke(c.Request.Context(), p.UserID, taskID, accessID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "Access revoked"})
}
