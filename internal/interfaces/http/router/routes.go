package router

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/interfaces/http/handler"
)

// Handlers bundles the API handlers mounted under /api
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Admin        *handler.AdminHandler
	Task         *handler.TaskHandler
	Category     *handler.CategoryHandler
	Comment      *handler.CommentHandler
	Invitation   *handler.InvitationHandler
	Notification *handler.NotificationHandler
	Achievement  *handler.AchievementHandler
	Google       *handler.GoogleHandler
}

// Guards are middleware applied to individual groups
type Guards struct {
	// AdminOnly rejects callers without the ADMIN role
	AdminOnly gin.HandlerFunc
	// AuthLimit throttles the credential endpoints; nil disables it
	AuthLimit gin.HandlerFunc
}

// PublicPaths are the API paths served without a session
var PublicPaths = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/api/google/callback",
}

// APIGroups builds the route groups of the REST API
func APIGroups(h Handlers, g Guards) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth")
	if g.AuthLimit != nil {
		auth.POST("/register", g.AuthLimit, h.Auth.Register)
		auth.POST("/login", g.AuthLimit, h.Auth.Login)
	} else {
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	users := NewDomainGroup("users", "/users")
	users.GET("", h.User.Search)
	users.GET("/all", h.User.All)
	users.GET("/me", h.User.GetMe)
	users.PATCH("/me", h.User.UpdateMe)
	users.GET("/me/notification-settings", h.User.GetSettings)
	users.PUT("/me/notification-settings", h.User.UpdateSettings)
	users.POST("/upload-avatar", h.User.UploadAvatar)
	users.GET("/:username", h.User.GetByUsername)

	tasks := NewDomainGroup("tasks", "/tasks")
	tasks.POST("", h.Task.Create)
	tasks.GET("", h.Task.List)
	tasks.GET("/search", h.Task.Search)
	tasks.GET("/today", h.Task.Today)
	tasks.GET("/upcoming", h.Task.Upcoming)
	tasks.PATCH("/upcoming", h.Task.MarkUpcomingNotified)
	tasks.GET("/upcoming/notNotified", h.Task.UpcomingNotNotified)
	tasks.GET("/users", h.Task.SharedOwners)
	tasks.GET("/:id", h.Task.Get)
	tasks.PUT("/:id", h.Task.Update)
	tasks.DELETE("/:id", h.Task.Delete)
	tasks.PATCH("/:id/status", h.Task.UpdateStatus)
	tasks.PATCH("/:id/due-date", h.Task.UpdateDueDate)
	tasks.GET("/:id/access", h.Task.ListAccess)
	tasks.PATCH("/:id/access/:accessId", h.Task.UpdateAccess)
	tasks.DELETE("/:id/access/:accessId", h.Task.RevokeAccess)

	categories := NewDomainGroup("categories", "/categories")
	categories.GET("", h.Category.List)
	categories.POST("", h.Category.Create)
	categories.GET("/:id", h.Category.Get)
	categories.PUT("/:id", h.Category.Update)
	categories.DELETE("/:id", h.Category.Delete)

	comments := NewDomainGroup("comments", "/comments")
	comments.POST("/task/:taskId", h.Comment.Add)
	comments.GET("/task/:taskId", h.Comment.List)
	comments.DELETE("/task/:taskId/:id", h.Comment.Delete)

	invitations := NewDomainGroup("invitations", "/invitations")
	invitations.POST("", h.Invitation.Create)
	invitations.GET("/pending", h.Invitation.ListPending)
	invitations.PUT("/:id/accept", h.Invitation.Accept)
	invitations.PUT("/:id/decline", h.Invitation.Decline)

	notifications := NewDomainGroup("notifications", "/notifications")
	notifications.GET("", h.Notification.List)
	notifications.PATCH("/:id/read", h.Notification.MarkAsRead)
	notifications.PATCH("/:id/close", h.Notification.Close)

	achievements := NewDomainGroup("achievements", "/achievements")
	achievements.GET("/all", h.Achievement.List)
	achievements.POST("", g.AdminOnly, h.Achievement.Create)

	userAchievements := NewDomainGroup("user-achievements", "/user-achievements")
	userAchievements.GET("/me", h.Achievement.ListMine)

	admin := NewDomainGroup("admin", "/admin").Use(g.AdminOnly)
	adminUsers := admin.Group("admin-users", "/users")
	adminUsers.GET("", h.Admin.List)
	adminUsers.POST("", h.Admin.Create)
	adminUsers.GET("/:userId", h.Admin.Get)
	adminUsers.PUT("/:userId", h.Admin.Update)
	adminUsers.DELETE("/:userId", h.Admin.Delete)
	adminUsers.PUT("/:userId/role", h.Admin.ChangeRole)

	groups := []*DomainGroup{auth, users, tasks, categories, comments, invitations,
		notifications, achievements, userAchievements, admin}

	if h.Google != nil {
		google := NewDomainGroup("google", "/google")
		google.GET("/auth", h.Google.AuthURL)
		google.GET("/callback", h.Google.Callback)
		google.GET("/check", h.Google.Check)
		google.POST("/sync", h.Google.Sync)
		google.POST("/cancel", h.Google.Cancel)
		google.POST("/undo", h.Google.Undo)
		google.POST("/disconnect", h.Google.Disconnect)
		groups = append(groups, google)
	}
	return groups
}
