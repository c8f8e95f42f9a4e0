package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// CommentService handles comments on tasks
type CommentService struct {
	commentRepo task.CommentRepository
	userRepo    identity.UserRepository
	perms       *TaskPermissionService
	logger      *zap.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(
	commentRepo task.CommentRepository,
	userRepo identity.UserRepository,
	perms *TaskPermissionService,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		perms:       perms,
		logger:      logger,
	}
}

// Add comments on a task the caller has any access to
func (s *CommentService) Add(ctx context.Context, userID, taskID uuid.UUID, req CommentRequest) (*CommentResponse, error) {
	if _, err := s.perms.Level(ctx, userID, taskID); err != nil {
		return nil, err
	}
	c, err := task.NewComment(taskID, userID, req.Content)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	resp := toCommentResponse(c, "")
	if u, err := s.userRepo.FindByID(ctx, userID); err == nil {
		resp.Author = u.Username
	}
	return &resp, nil
}

// List returns a task's comments newest first
func (s *CommentService) List(ctx context.Context, userID, taskID uuid.UUID) ([]CommentResponse, error) {
	if _, err := s.perms.Level(ctx, userID, taskID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.FindByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	names := map[uuid.UUID]string{}
	if len(authorIDs) > 0 {
		users, err := s.userRepo.FindByIDs(ctx, authorIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.Username
		}
	}

	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c, names[c.AuthorID]))
	}
	return out, nil
}

// Delete removes a comment; only its author or an administrator may
func (s *CommentService) Delete(ctx context.Context, userID uuid.UUID, isAdmin bool, taskID, commentID uuid.UUID) error {
	c, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.TaskID != taskID {
		return task.ErrCommentNotFound
	}
	if c.AuthorID != userID && !isAdmin {
		return task.ErrCommentAuthorRequired
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}
	s.logger.Debug("Comment deleted",
		zap.String("comment_id", commentID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func toCommentResponse(c *task.Comment, author string) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Author:    author,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
