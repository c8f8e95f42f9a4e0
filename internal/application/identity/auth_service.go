package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/achievement"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Identity errors
var (
	ErrUserNotFound       = shared.NewDomainError("USER_NOT_FOUND", "User not found")
	ErrUsernameExists     = shared.NewDomainError("USERNAME_EXISTS", "Username already exists")
	ErrEmailExists        = shared.NewDomainError("EMAIL_EXISTS", "Email already exists")
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrSessionInvalid     = shared.NewDomainError("UNAUTHORIZED", "Session is invalid or has expired")
)

// AuthService handles registration, login and session checks
type AuthService struct {
	userRepo        identity.UserRepository
	achievementRepo achievement.UserAchievementRepository
	sessions        *auth.SessionService
	blacklist       auth.TokenBlacklist
	presenter       presenter
	logger          *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	achievementRepo achievement.UserAchievementRepository,
	sessions *auth.SessionService,
	blacklist auth.TokenBlacklist,
	avatars AvatarStorage,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		achievementRepo: achievementRepo,
		sessions:        sessions,
		blacklist:       blacklist,
		presenter:       presenter{avatars: avatars},
		logger:          logger,
	}
}

// Register creates a regular account and seeds its achievement progress
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "register")
	defer span.End()

	if err := s.ensureAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	user, err := identity.NewUser(req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrUsernameExists
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Progress rows are also created lazily when achievements are listed
	if err := s.achievementRepo.SeedForUser(ctx, user.ID); err != nil {
		s.logger.Error("Failed to seed achievements for new user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	taken, err := s.userRepo.ExistsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameExists
	}
	taken, err = s.userRepo.ExistsByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailExists
	}
	return nil
}

// Login authenticates by username or email and issues a session
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer span.End()

	identifier := strings.TrimSpace(req.Username)
	s.logger.Info("Login attempt", zap.String("username", identifier))

	var (
		user *identity.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.FindByEmail(ctx, identifier)
	} else {
		user, err = s.userRepo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("username", identifier))
			return nil, ErrInvalidCredentials
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !user.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", identifier))
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		s.logger.Error("Failed to issue session", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create session")
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", user.Username),
		zap.String("user_id", user.ID.String()))

	return &LoginResult{
		Token:     session.Token,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
		User:      s.presenter.user(ctx, user),
	}, nil
}

// Authenticate resolves a session token into the calling principal,
// rejecting expired, malformed and revoked sessions
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	claims, err := s.sessions.Validate(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrSessionInvalid
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionInvalid
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return nil, err
	}
	if invalidated {
		return nil, ErrSessionInvalid
	}

	return &Principal{
		UserID:    userID,
		Username:  claims.Username,
		Role:      identity.Role(claims.Role),
		SessionID: claims.ID,
		TTL:       claims.GetRemainingTTL(),
	}, nil
}

// Logout revokes the caller's session for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, p Principal) error {
	if p.SessionID == "" || p.TTL <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, p.SessionID, p.TTL); err != nil {
		s.logger.Error("Failed to revoke session",
			zap.String("user_id", p.UserID.String()),
			zap.Error(err))
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", p.UserID.String()))
	return nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

// SessionLifetime is the lifetime of newly issued sessions
func (s *AuthService) SessionLifetime() time.Duration {
	return s.sessions.Expiration()
}

// notFound maps the repository's generic not-found error to ErrUserNotFound
func notFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
