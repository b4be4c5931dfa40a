package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	Employee       *handlers.EmployeeHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         []auth.RouteRule
}

// RegisterRoutes wires HTTP routes. The access gate runs on every request
// and binds identity when a valid token is present; the policy middleware
// then decides whether the request may continue.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.AuthMiddleware.Handle)
	app.Use(auth.EnforcePolicy(cfg.Policy))

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)

	admin := api.Group("/admin")
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/task", cfg.Admin.CreateTask)
	admin.Get("/tasks", cfg.Admin.ListTasks)
	admin.Get("/tasks/search/:title", cfg.Admin.SearchTasks)
	admin.Get("/task/:id", cfg.Admin.GetTask)
	admin.Put("/task/:id", cfg.Admin.UpdateTask)
	admin.Delete("/task/:id", cfg.Admin.DeleteTask)
	admin.Post("/task/comment/:taskId", cfg.Admin.CreateComment)
	admin.Get("/comments/:taskId", cfg.Admin.ListComments)

	employee := api.Group("/employee")
	employee.Get("/tasks", cfg.Employee.ListTasks)
	employee.Get("/task/:id", cfg.Employee.GetTask)
	employee.Put("/task/:id/status/:status", cfg.Employee.UpdateTaskStatus)
	employee.Post("/task/comment/:taskId", cfg.Employee.CreateComment)
	employee.Get("/comments/:taskId", cfg.Employee.ListComments)
}
