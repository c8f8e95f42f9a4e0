package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CategoryService handles category operations
type CategoryService struct {
	categoryRepo task.CategoryRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo task.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// List returns the caller's categories
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, ToCategoryResponse(c))
	}
	return out, nil
}

// Get returns an owned category or one attached to a task the caller can see
func (s *CategoryService) Get(ctx context.Context, userID, categoryID uuid.UUID) (*CategoryResponse, error) {
	c, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(userID) {
		visible, err := s.categoryRepo.IsVisibleThroughTask(ctx, categoryID, userID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, task.ErrCategoryNotFound
		}
	}
	resp := ToCategoryResponse(c)
	return &resp, nil
}

// Create creates a category owned by the caller
func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "category", "create", telemetry.AttrUserID, userID.String())
	defer span.End()

	c, err := task.NewCategory(userID, req.Name, req.Color)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Category created",
		zap.String("category_id", c.ID.String()),
		zap.String("user_id", userID.String()))
	resp := ToCategoryResponse(c)
	return &resp, nil
}

// Update renames or recolors an owned category
func (s *CategoryService) Update(ctx context.Context, userID, categoryID uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	c, err := s.owned(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.Name, req.Color); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(c)
	return &resp, nil
}

// Delete removes an owned category and detaches it from its tasks
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, categoryID); err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return err
	}
	s.logger.Info("Category deleted",
		zap.String("category_id", categoryID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// owned hides categories of other users behind ErrCategoryNotFound
func (s *CategoryService) owned(ctx context.Context, userID, categoryID uuid.UUID) (*task.Category, error) {
	c, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(userID) {
		return nil, task.ErrCategoryNotFound
	}
	return c, nil
}
