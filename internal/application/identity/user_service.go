package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// searchLimit caps user search results
const searchLimit = 20

// UserService serves the caller's own profile, settings and user lookup
type UserService struct {
	userRepo   identity.UserRepository
	accessRepo task.AccessRepository
	presenter  presenter
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	accessRepo task.AccessRepository,
	avatars AvatarStorage,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		accessRepo: accessRepo,
		presenter:  presenter{avatars: avatars},
		logger:     logger,
	}
}

// GetProfile returns the caller's own full profile
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

// GetByUsername returns the public profile of any user
func (s *UserService) GetByUsername(ctx context.Context, username string) (*ProfileResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, notFound(err)
	}
	resp := s.presenter.profile(ctx, user)
	return &resp, nil
}

// UpdateProfile applies username, email, bio and password changes
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}

	if req.Username != nil && !strings.EqualFold(strings.TrimSpace(*req.Username), user.Username) {
		taken, err := s.userRepo.ExistsByUsername(ctx, strings.TrimSpace(*req.Username))
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameExists
		}
	}
	if req.Email != nil && !strings.EqualFold(strings.TrimSpace(*req.Email), user.Email) {
		taken, err := s.userRepo.ExistsByEmail(ctx, strings.TrimSpace(*req.Email))
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailExists
		}
	}

	if req.Username != nil {
		if err := user.SetUsername(*req.Username); err != nil {
			return nil, err
		}
	}
	if req.Email != nil {
		if err := user.SetEmail(*req.Email); err != nil {
			return nil, err
		}
	}
	if req.Bio != nil {
		if err := user.SetBio(*req.Bio); err != nil {
			return nil, err
		}
	}
	if req.NewPassword != "" {
		if err := user.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("user_id", userID.String()))

	resp := s.presenter.user(ctx, user)
	return &resp, nil
}

// GetSettings returns the caller's notification settings
func (s *UserService) GetSettings(ctx context.Context, userID uuid.UUID) (*identity.NotificationSettings, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	settings := user.Settings
	return &settings, nil
}

// UpdateSettings replaces the caller's notification settings
func (s *UserService) UpdateSettings(ctx context.Context, userID uuid.UUID, req SettingsRequest) (*identity.NotificationSettings, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	settings := identity.NotificationSettings{
		TaskNotificationInterval: req.TaskNotificationInterval,
		TaskEnabled:              deref(req.TaskEnabled),
		InvitationEnabled:        deref(req.InvitationEnabled),
		AchievementEnabled:       deref(req.AchievementEnabled),
	}
	if err := user.SetSettings(settings); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Search finds users to share a task with. The caller and admins are never
// returned; with taskID, users already holding access to it are skipped.
func (s *UserService) Search(ctx context.Context, callerID uuid.UUID, query string, taskID *uuid.UUID) ([]UserSummary, error) {
	exclude := map[uuid.UUID]bool{callerID: true}
	if taskID != nil {
		grants, err := s.accessRepo.FindByTask(ctx, *taskID)
		if err != nil {
			return nil, err
		}
		for _, g := range grants {
			exclude[g.UserID] = true
		}
	}

	// Over-fetch so exclusions do not shrink the page below the limit
	users, err := s.userRepo.Search(ctx, strings.TrimSpace(query), searchLimit+len(exclude))
	if err != nil {
		return nil, err
	}
	filtered := make([]*identity.User, 0, len(users))
	for _, u := range users {
		if exclude[u.ID] || u.IsAdmin() {
			continue
		}
		filtered = append(filtered, u)
		if len(filtered) == searchLimit {
			break
		}
	}
	return s.presenter.summaries(ctx, filtered), nil
}

// All returns every user in summary form
func (s *UserService) All(ctx context.Context) ([]UserSummary, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.presenter.summaries(ctx, users), nil
}

// Summaries resolves user ids into summaries, skipping unknown ids
func (s *UserService) Summaries(ctx context.Context, ids []uuid.UUID) ([]UserSummary, error) {
	if len(ids) == 0 {
		return []UserSummary{}, nil
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.presenter.summaries(ctx, users), nil
}

func deref(b *bool) bool {
	return b != nil && *b
}
