package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
)

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest accepts a username or an email as the identifier
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResult is returned after a successful login
type LoginResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	User      UserResponse
}

// Principal is the authenticated caller resolved from a session token
type Principal struct {
	UserID    uuid.UUID
	Username  string
	Role      identity.Role
	SessionID string
	// TTL is the remaining session lifetime
	TTL time.Duration
}

// IsAdmin reports whether the caller has the ADMIN role
func (p Principal) IsAdmin() bool {
	return p.Role == identity.RoleAdmin
}

// UserResponse is the full view of a user returned to themselves and admins
type UserResponse struct {
	ID        uuid.UUID                     `json:"id"`
	Username  string                        `json:"username"`
	Email     string                        `json:"email"`
	Role      string                        `json:"role"`
	Bio       string                        `json:"bio"`
	AvatarURL string                        `json:"avatar_url,omitempty"`
	Settings  identity.NotificationSettings `json:"settings"`
	CreatedAt time.Time                     `json:"created_at"`
}

// ProfileResponse is the public view of a user
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// UserSummary is the compact view used in search results and owner lists
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// UpdateProfileRequest changes the caller's own profile. Changing the
// password requires the current one.
type UpdateProfileRequest struct {
	Username        *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email           *string `json:"email" binding:"omitempty,email,max=255"`
	Bio             *string `json:"bio" binding:"omitempty,max=500"`
	CurrentPassword string  `json:"current_password" binding:"required_with=NewPassword"`
	NewPassword     string  `json:"new_password" binding:"omitempty,min=6,max=72"`
}

// SettingsRequest replaces the caller's notification settings
type SettingsRequest struct {
	TaskNotificationInterval int   `json:"task_notification_interval" binding:"required,min=1,max=1440"`
	TaskEnabled              *bool `json:"task_enabled" binding:"required"`
	InvitationEnabled        *bool `json:"invitation_enabled" binding:"required"`
	AchievementEnabled       *bool `json:"achievement_enabled" binding:"required"`
}

// CreateUserRequest is an admin creating an account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role" binding:"omitempty,oneof=USER ADMIN"`
	Bio      string `json:"bio" binding:"omitempty,max=500"`
}

// AdminUpdateUserRequest is an admin editing an account
type AdminUpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

// ChangeRoleRequest sets a user's global role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=USER ADMIN"`
}

// AvatarStorage stores avatar objects under identity.AvatarPrefix
type AvatarStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the address clients load the avatar from
	URL(ctx context.Context, key string) (string, error)
}

// presenter turns users into responses, resolving avatar URLs
type presenter struct {
	avatars AvatarStorage
}

func (p presenter) avatarURL(ctx context.Context, key string) string {
	if key == "" || p.avatars == nil {
		return ""
	}
	url, err := p.avatars.URL(ctx, key)
	if err != nil {
		return ""
	}
	return url
}

func (p presenter) user(ctx context.Context, u *identity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		Bio:       u.Bio,
		AvatarURL: p.avatarURL(ctx, u.Avatar),
		Settings:  u.Settings,
		CreatedAt: u.CreatedAt,
	}
}

func (p presenter) profile(ctx context.Context, u *identity.User) ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		AvatarURL: p.avatarURL(ctx, u.Avatar),
		JoinedAt:  u.JoinedAt(),
	}
}

func (p presenter) summary(ctx context.Context, u *identity.User) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: p.avatarURL(ctx, u.Avatar),
	}
}

func (p presenter) users(ctx context.Context, users []*identity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, p.user(ctx, u))
	}
	return out
}

func (p presenter) summaries(ctx context.Context, users []*identity.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, p.summary(ctx, u))
	}
	return out
}
