package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
)

// AdminHandler handles user administration. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	BaseHandler
	adminService *identityapp.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *identityapp.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// List godoc
// @ID           adminListUsers
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.UserResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/users [get]
func (h *AdminHandler) List(c *gin.Context) {
	users, err := h.adminService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// Get godoc
// @ID           adminGetUser
// @Summary      Get a user
// @Tags         admin
// @Produce      json
// @Param        userId path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/users/{userId} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "userId")
	if !ok {
		return
	}
	user, err := h.adminService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Create godoc
// @ID           adminCreateUser
// @Summary      Create a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body identityapp.CreateUserRequest true "User"
// @Success      201 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/users [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req identityapp.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Update godoc
// @ID           adminUpdateUser
// @Summary      Update a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        userId  path string                             true "User ID" format(uuid)
// @Param        request body identityapp.AdminUpdateUserRequest true "Changes"
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/users/{userId} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "userId")
	if !ok {
		return
	}
	var req identityapp.AdminUpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangeRole godoc
// @ID           adminChangeRole
// @Summary      Change a user's role
// @Description  Admins cannot change their own role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        userId  path string                        true "User ID" format(uuid)
// @Param        request body identityapp.ChangeRoleRequest true "Role"
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/users/{userId}/role [put]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "userId")
	if !ok {
		return
	}
	var req identityapp.ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.ChangeRole(c.Request.Context(), p.UserID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Delete godoc
// @ID           adminDeleteUser
// @Summary      Delete a user
// @Description  Cascades to owned tasks and revokes the user's sessions
// @Tags         admin
// @Produce      json
// @Param        userId path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /admin/users/{userId} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "userId")
	if !ok {
		return
	}
	if err := h.adminService.Delete(c.Request.Context(), p.UserID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "User deleted"})
}
