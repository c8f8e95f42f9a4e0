package identity

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskflow/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is a user's global role
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

const bcryptCost = bcrypt.DefaultCost

const (
	maxUsernameLength = 50
	minPasswordLength = 6
	maxBioLength      = 500
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is an account that owns tasks, categories and notifications
type User struct {
	shared.BaseEntity
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Bio          string
	Avatar       string // object key in avatar storage
	Settings     NotificationSettings
}

// NewUser creates a regular user with a hashed password
func NewUser(username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		Settings:     DefaultNotificationSettings(),
	}, nil
}

// SetUsername changes the username
func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return err
	}
	u.Username = username
	u.Touch()
	return nil
}

// SetEmail changes the email address
func (u *User) SetEmail(email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	u.Email = email
	u.Touch()
	return nil
}

// SetBio changes the profile bio
func (u *User) SetBio(bio string) error {
	if utf8.RuneCountInString(bio) > maxBioLength {
		return shared.NewDomainError("INVALID_BIO", "Bio cannot exceed 500 characters")
	}
	u.Bio = bio
	u.Touch()
	return nil
}

// SetAvatar points the user at a new avatar object and returns the previous key
func (u *User) SetAvatar(key string) string {
	previous := u.Avatar
	u.Avatar = key
	u.Touch()
	return previous
}

// SetRole changes the global role
func (u *User) SetRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be USER or ADMIN")
	}
	u.Role = role
	u.Touch()
	return nil
}

// SetSettings replaces the notification settings
func (u *User) SetSettings(settings NotificationSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	u.Settings = settings
	u.Touch()
	return nil
}

// ChangePassword verifies the current password before setting a new one
func (u *User) ChangePassword(currentPassword, newPassword string) error {
	if !u.VerifyPassword(currentPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if u.VerifyPassword(newPassword) {
		return shared.NewDomainError("PASSWORD_UNCHANGED", "New password must differ from the current one")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin returns true for administrators
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// JoinedAt returns the account creation time
func (u *User) JoinedAt() time.Time {
	return u.CreatedAt
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if utf8.RuneCountInString(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
