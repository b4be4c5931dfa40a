package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/service"
)

// EmployeeHandler exposes the endpoints scoped to the logged-in employee.
type EmployeeHandler struct {
	tasks *service.TaskService
}

// NewEmployeeHandler constructs handler.
func NewEmployeeHandler(taskService *service.TaskService) *EmployeeHandler {
	return &EmployeeHandler{tasks: taskService}
}

// ListTasks handles GET /api/employee/tasks.
func (h *EmployeeHandler) ListTasks(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	tasks, err := h.tasks.ListTasksForUser(c.Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponses(tasks)})
}

// GetTask handles GET /api/employee/task/:id.
func (h *EmployeeHandler) GetTask(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	task, err := h.tasks.GetTask(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// UpdateTaskStatus handles PUT /api/employee/task/:id/status/:status.
func (h *EmployeeHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	status, err := domain.ParseTaskStatus(c.Params("status"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	actor, _ := auth.CurrentUser(c)
	task, err := h.tasks.UpdateTaskStatus(c.Context(), actor, c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// CreateComment handles POST /api/employee/task/comment/:taskId.
func (h *EmployeeHandler) CreateComment(c *fiber.Ctx) error {
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

// ListComments handles GET /api/employee/comments/:taskId.
func (h *EmployeeHandler) ListComments(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	comments, err := h.tasks.ListComments(c.Context(), actor, c.Params("taskId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponses(comments)})
}
