package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/cache"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

const commentPreviewLen = 80

// CreateTaskInput carries the fields accepted when creating or updating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    string
	AssigneeID  string
}

// TaskService implements the task and comment operations for both roles.
// Admin-only methods trust the authorization policy to have gated the route;
// employee methods additionally scope access to the caller's own tasks.
type TaskService struct {
	tasks      repository.TaskRepository
	users      repository.UserRepository
	comments   repository.CommentRepository
	cache      *cache.TaskCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TaskDependencies bundles collaborator requirements.
type TaskDependencies struct {
	TaskRepo    repository.TaskRepository
	UserRepo    repository.UserRepository
	CommentRepo repository.CommentRepository
	Cache       *cache.TaskCache
	Dispatcher  events.Dispatcher
}

// NewTaskService builds the service.
func NewTaskService(deps TaskDependencies, logger *zap.Logger) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		users:      deps.UserRepo,
		comments:   deps.CommentRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListEmployees returns all EMPLOYEE accounts.
func (s *TaskService) ListEmployees(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleEmployee)
}

// CreateTask creates a task assigned to an employee. New tasks start in
// IN_PROGRESS.
func (s *TaskService) CreateTask(ctx context.Context, actor *domain.User, in CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	assignee, err := s.users.GetByID(ctx, in.AssigneeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": in.AssigneeID})
		}
		return nil, err
	}

	task := &domain.Task{
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      in.DueDate,
		Priority:     in.Priority,
		Status:       domain.TaskStatusInProgress,
		AssigneeID:   assignee.ID,
		AssigneeName: assignee.Name,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, task.AssigneeID)
	s.publish(ctx, events.EventTaskCreated, task.ID, actor, events.TaskCreatedPayload{
		Title:      task.Title,
		AssigneeID: task.AssigneeID,
		Priority:   task.Priority,
		DueDate:    task.DueDate,
	})

	s.logger.Info("task created", zap.String("task_id", task.ID), zap.String("assignee_id", task.AssigneeID))
	return task, nil
}

// ListAllTasks returns every task, most imminent due date last (descending).
func (s *TaskService) ListAllTasks(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := s.cache.GetAll(ctx); ok {
		return tasks, nil
	}

	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetAll(ctx, tasks)
	return tasks, nil
}

// GetTask loads a task by id. Employees may only read their own tasks.
func (s *TaskService) GetTask(ctx context.Context, actor *domain.User, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": id})
		}
		return nil, err
	}
	if err := s.checkTaskAccess(actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask replaces all mutable task fields. Admin only.
func (s *TaskService) UpdateTask(ctx context.Context, actor *domain.User, id string, in CreateTaskInput, status domain.TaskStatus) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": id})
		}
		return nil, err
	}

	assignee, err := s.users.GetByID(ctx, in.AssigneeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": in.AssigneeID})
		}
		return nil, err
	}

	oldAssignee := task.AssigneeID
	task.Title = in.Title
	task.Description = in.Description
	task.DueDate = in.DueDate
	task.Priority = in.Priority
	task.Status = status
	task.AssigneeID = assignee.ID
	task.AssigneeName = assignee.Name

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, oldAssignee, task.AssigneeID)
	s.publish(ctx, events.EventTaskUpdated, task.ID, actor, events.TaskUpdatedPayload{
		Title:      task.Title,
		AssigneeID: task.AssigneeID,
	})
	return task, nil
}

// UpdateTaskStatus changes only the status. Employees may update their own
// tasks; admins may update any.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actor *domain.User, id string, status domain.TaskStatus) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": id})
		}
		return nil, err
	}
	if err := s.checkTaskAccess(actor, task); err != nil {
		return nil, err
	}

	oldStatus := task.Status
	task.Status = status
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, task.AssigneeID)
	s.publish(ctx, events.EventTaskStatusChanged, task.ID, actor, events.TaskStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: status,
	})

	s.logger.Info("task status changed",
		zap.String("task_id", task.ID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(status)))
	return task, nil
}

// DeleteTask removes a task. Admin only.
func (s *TaskService) DeleteTask(ctx context.Context, actor *domain.User, id string) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("task", map[string]any{"task_id": id})
		}
		return err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, task.AssigneeID)
	s.publish(ctx, events.EventTaskDeleted, id, actor, nil)
	return nil
}

// SearchTasks finds tasks whose title contains the given term.
func (s *TaskService) SearchTasks(ctx context.Context, title string) ([]domain.Task, error) {
	return s.tasks.SearchByTitle(ctx, title)
}

// ListTasksForUser returns the tasks assigned to one employee.
func (s *TaskService) ListTasksForUser(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := s.cache.GetForUser(ctx, userID); ok {
		return tasks, nil
	}

	tasks, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.SetForUser(ctx, userID, tasks)
	return tasks, nil
}

// CreateComment attaches a comment authored by the acting user to a task.
func (s *TaskService) CreateComment(ctx context.Context, actor *domain.User, taskID, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, err
	}
	if err := s.checkTaskAccess(actor, task); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TaskID:     task.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Content:    content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	preview := truncatePreview(content, commentPreviewLen)
	s.publish(ctx, events.EventCommentAdded, task.ID, actor, events.CommentAddedPayload{
		CommentID:   comment.ID,
		AuthorID:    actor.ID,
		BodyPreview: preview,
	})
	return comment, nil
}

// ListComments returns a task's comments oldest first.
func (s *TaskService) ListComments(ctx context.Context, actor *domain.User, taskID string) ([]domain.Comment, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, err
	}
	if err := s.checkTaskAccess(actor, task); err != nil {
		return nil, err
	}
	return s.comments.ListByTaskID(ctx, taskID)
}

// checkTaskAccess enforces employee ownership; admins see everything.
func (s *TaskService) checkTaskAccess(actor *domain.User, task *domain.Task) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if task.AssigneeID != actor.ID {
		return apperrors.NewForbidden("task belongs to another user")
	}
	return nil
}

func (s *TaskService) publish(ctx context.Context, eventType events.EventType, taskID string, actor *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TaskID:    taskID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if actor != nil {
		event.Actor = events.Actor{UserID: actor.ID, Role: actor.Role}
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// truncatePreview cuts s to at most max runes, never splitting a multi-byte
// character.
func truncatePreview(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
