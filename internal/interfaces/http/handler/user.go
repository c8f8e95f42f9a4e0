package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	domainIdentity "github.com/taskflow/backend/internal/domain/identity"
)

// UserHandler handles profile, settings and user lookup requests
type UserHandler struct {
	BaseHandler
	userService   *identityapp.UserService
	avatarService *identityapp.AvatarService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identityapp.UserService, avatarService *identityapp.AvatarService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
	}
}

// searchUsersQuery is the query string of GET /users
type searchUsersQuery struct {
	Search string `form:"search" binding:"max=100"`
	TaskID string `form:"taskId" binding:"omitempty,uuid"`
}

// GetMe godoc
// @ID           getMe
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateMe godoc
// @ID           updateMe
// @Summary      Update the current user's profile
// @Description  Changing the password requires current_password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identityapp.UpdateProfileRequest true "Profile changes"
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req identityapp.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// GetByUsername godoc
// @ID           getUserByUsername
// @Summary      Public profile
// @Tags         users
// @Produce      json
// @Param        username path string true "Username"
// @Success      200 {object} dto.Response{data=identityapp.ProfileResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/{username} [get]
func (h *UserHandler) GetByUsername(c *gin.Context) {
	profile, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// GetSettings godoc
// @ID           getNotificationSettings
// @Summary      Notification settings
// @Tags         users
// @Produce      json
// @Success      200 {object} dto.Response{data=domainIdentity.NotificationSettings}
// @Router       /users/me/notification-settings [get]
func (h *UserHandler) GetSettings(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	settings, err := h.userService.GetSettings(c.Request.Context(), p.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// UpdateSettings godoc
// @ID           updateNotificationSettings
// @Summary      Replace notification settings
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identityapp.SettingsRequest true "Settings"
// @Success      200 {object} dto.Response{data=domainIdentity.NotificationSettings}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/me/notification-settings [put]
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req identityapp.SettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	settings, err := h.userService.UpdateSettings(c.Request.Context(), p.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// Search godoc
// @ID           searchUsers
// @Summary      Search users
// @Description  With taskId, users already holding access to that task are excluded
// @Tags         users
// @Produce      json
// @Param        search query string false "Username fragment"
// @Param        taskId query string false "Task ID"
// @Success      200 {object} dto.Response{data=[]identityapp.UserSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users [get]
func (h *UserHandler) Search(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q searchUsersQuery
	if !h.bindQuery(c, &q) {
		return
	}

	var taskID *uuid.UUID
	if q.TaskID != "" {
		id := uuid.MustParse(q.TaskID)
		taskID = &id
	}

	users, err := h.userService.Search(c.Request.Context(), p.UserID, q.Search, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// All godoc
// @ID           listAllUsers
// @Summary      List every user
// @Tags         users
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.UserSummary}
// @Router       /users/all [get]
func (h *UserHandler) All(c *gin.Context) {
	users, err := h.userService.All(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// UploadAvatar godoc
// @ID           uploadAvatar
// @Summary      Upload an avatar
// @Description  JPEG, PNG or GIF up to 5 MB. The content is sniffed, not trusted from the name.
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Image"
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/upload-avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file field")
		return
	}
	if err := domainIdentity.ValidateAvatarSize(header.Size); err != nil {
		h.HandleError(c, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	// One extra byte lets the service see an oversized body that lied about its size
	data, err := io.ReadAll(io.LimitReader(f, domainIdentity.MaxAvatarSize+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	user, err := h.avatarService.Upload(c.Request.Context(), p.UserID, header.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
