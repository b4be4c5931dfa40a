package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/service"
)

// AdminHandler exposes the administrative task management endpoints.
type AdminHandler struct {
	tasks *service.TaskService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(taskService *service.TaskService) *AdminHandler {
	return &AdminHandler{tasks: taskService}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.tasks.ListEmployees(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// CreateTask handles POST /api/admin/task.
func (h *AdminHandler) CreateTask(c *fiber.Ctx) error {
	var req dto.TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Title == "" || req.AssigneeID == "" {
		return fiber.NewError(http.StatusBadRequest, "title and assignee_id required")
	}

	actor, _ := auth.CurrentUser(c)
	task, err := h.tasks.CreateTask(c.Context(), actor, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// ListTasks handles GET /api/admin/tasks.
func (h *AdminHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListAllTasks(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponses(tasks)})
}

// GetTask handles GET /api/admin/task/:id.
func (h *AdminHandler) GetTask(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	task, err := h.tasks.GetTask(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// UpdateTask handles PUT /api/admin/task/:id.
func (h *AdminHandler) UpdateTask(c *fiber.Ctx) error {
	var req dto.TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Title == "" || req.AssigneeID == "" {
		return fiber.NewError(http.StatusBadRequest, "title and assignee_id required")
	}

	if req.Status == "" {
		return fiber.NewError(http.StatusBadRequest, "status required")
	}
	status, err := domain.ParseTaskStatus(req.Status)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	actor, _ := auth.CurrentUser(c)
	task, err := h.tasks.UpdateTask(c.Context(), actor, c.Params("id"), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	}, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// DeleteTask handles DELETE /api/admin/task/:id.
func (h *AdminHandler) DeleteTask(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	if err := h.tasks.DeleteTask(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SearchTasks handles GET /api/admin/tasks/search/:title.
func (h *AdminHandler) SearchTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.SearchTasks(c.Context(), c.Params("title"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponses(tasks)})
}

// CreateComment handles POST /api/admin/task/comment/:taskId.
func (h *AdminHandler) CreateComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	actor, _ := auth.CurrentUser(c)
	comment, err := h.tasks.CreateComment(c.Context(), actor, c.Params("taskId"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments handles GET /api/admin/comments/:taskId.
func (h *AdminHandler) ListComments(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	comments, err := h.tasks.ListComments(c.Context(), actor, c.Params("taskId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponses(comments)})
}
