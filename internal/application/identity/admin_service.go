package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/achievement"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrCannotModifySelf guards admins against demoting or deleting themselves
var ErrCannotModifySelf = shared.NewDomainError("CANNOT_MODIFY_SELF", "Administrators cannot change their own role or delete themselves")

// AdminService manages accounts on behalf of administrators
type AdminService struct {
	userRepo        identity.UserRepository
	achievementRepo achievement.UserAchievementRepository
	blacklist       auth.TokenBlacklist
	avatars         AvatarStorage
	sessionTTL      time.Duration
	presenter       presenter
	logger          *zap.Logger
}

// NewAdminService creates a new admin service. sessionTTL bounds how long
// session revocations are remembered.
func NewAdminService(
	userRepo identity.UserRepository,
	achievementRepo achievement.UserAchievementRepository,
	blacklist auth.TokenBlacklist,
	avatars AvatarStorage,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		userRepo:        userRepo,
		achievementRepo: achievementRepo,
		blacklist:       blacklist,
		avatars:         avatars,
		sessionTTL:      sessionTTL,
		presenter:       presenter{avatars: avatars},
		logger:          logger,
	}
}

// List returns every account
func (s *AdminService) List(ctx context.Context) ([]UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.presenter.users(ctx, users), nil
}

// Get returns one account
func (s *AdminService) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

// Create creates an account with an optional role
func (s *AdminService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "admin", "create_user")
	defer span.End()

	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}
	if exists, err = s.userRepo.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrEmailExists
	}

	user, err := identity.NewUser(req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if req.Role != "" {
		if err := user.SetRole(identity.Role(req.Role)); err != nil {
			return nil, err
		}
	}
	if err := user.SetBio(req.Bio); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrUsernameExists
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.achievementRepo.SeedForUser(ctx, user.ID); err != nil {
		s.logger.Error("Failed to seed achievements for new user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("User created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

// Update edits an account. A password reset signs the user out everywhere.
func (s *AdminService) Update(ctx context.Context, id uuid.UUID, req AdminUpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if req.Username != nil && *req.Username != user.Username {
		if exists, err := s.userRepo.ExistsByUsername(ctx, *req.Username); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrUsernameExists
		}
		if err := user.SetUsername(*req.Username); err != nil {
			return nil, err
		}
	}
	if req.Email != nil && *req.Email != user.Email {
		if exists, err := s.userRepo.ExistsByEmail(ctx, *req.Email); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrEmailExists
		}
		if err := user.SetEmail(*req.Email); err != nil {
			return nil, err
		}
	}
	if req.Bio != nil {
		if err := user.SetBio(*req.Bio); err != nil {
			return nil, err
		}
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if req.Password != nil {
		s.revokeSessions(ctx, user.ID)
	}

	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

// ChangeRole sets the global role and signs the user out so the new role
// takes effect on the next login
func (s *AdminService) ChangeRole(ctx context.Context, actorID, id uuid.UUID, req ChangeRoleRequest) (*UserResponse, error) {
	if actorID == id {
		return nil, ErrCannotModifySelf
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := user.SetRole(identity.Role(req.Role)); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.revokeSessions(ctx, user.ID)

	s.logger.Info("User role changed",
		zap.String("user_id", id.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("role", req.Role))

	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

// Delete removes an account together with its owned tasks and avatar
func (s *AdminService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return ErrCannotModifySelf
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.revokeSessions(ctx, id)

	if user.Avatar != "" && s.avatars != nil {
		if err := s.avatars.Delete(ctx, user.Avatar); err != nil {
			s.logger.Warn("Failed to delete avatar of removed user",
				zap.String("user_id", id.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("User deleted",
		zap.String("user_id", id.String()),
		zap.String("actor_id", actorID.String()))
	return nil
}

func (s *AdminService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.sessionTTL); err != nil {
		s.logger.Error("Failed to revoke user sessions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
