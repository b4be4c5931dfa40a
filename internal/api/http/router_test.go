package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/observability"
	"github.com/spec-kit/task-service/internal/persistence"
	"github.com/spec-kit/task-service/internal/service"
)

// In-memory repositories backing the full HTTP stack under test.

type memUserRepo struct {
	seq   int
	users map[string]*domain.User
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = "user-" + strconv.Itoa(r.seq)
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetFirstByRole(_ context.Context, role domain.UserRole) (*domain.User, error) {
	for _, user := range r.users {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) ListByRole(_ context.Context, role domain.UserRole) ([]domain.User, error) {
	var users []domain.User
	for _, user := range r.users {
		if user.Role == role {
			users = append(users, *user)
		}
	}
	return users, nil
}

type memTaskRepo struct {
	seq   int
	tasks map[string]*domain.Task
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.seq++
	task.ID = "task-" + strconv.Itoa(r.seq)
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if task, ok := r.tasks[id]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memTaskRepo) ListAll(_ context.Context) ([]domain.Task, error) {
	return r.collect(func(*domain.Task) bool { return true }), nil
}

func (r *memTaskRepo) ListByAssignee(_ context.Context, userID string) ([]domain.Task, error) {
	return r.collect(func(t *domain.Task) bool { return t.AssigneeID == userID }), nil
}

func (r *memTaskRepo) SearchByTitle(_ context.Context, title string) ([]domain.Task, error) {
	needle := strings.ToLower(title)
	return r.collect(func(t *domain.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	}), nil
}

func (r *memTaskRepo) collect(keep func(*domain.Task) bool) []domain.Task {
	var tasks []domain.Task
	for _, task := range r.tasks {
		if keep(task) {
			tasks = append(tasks, *task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.After(tasks[j].DueDate) })
	return tasks
}

type memCommentRepo struct {
	seq      int
	comments []domain.Comment
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = "comment-" + strconv.Itoa(r.seq)
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *memCommentRepo) ListByTaskID(_ context.Context, taskID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	for _, comment := range r.comments {
		if comment.TaskID == taskID {
			comments = append(comments, comment)
		}
	}
	return comments, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.AuthConfig{
		JWTSecret:             "router-test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
		BootstrapAdmin:        true,
		AdminEmail:            "admin@test.com",
		AdminPassword:         "admin",
	}

	users := &memUserRepo{users: make(map[string]*domain.User)}
	authService := service.NewAuthService(cfg, users, zap.NewNop())
	require.NoError(t, authService.EnsureDefaultAdmin(context.Background(), cfg))

	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:    &memTaskRepo{tasks: make(map[string]*domain.Task)},
		UserRepo:    users,
		CommentRepo: &memCommentRepo{},
	}, zap.NewNop())

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		Admin:          handlers.NewAdminHandler(taskService),
		Employee:       handlers.NewEmployeeHandler(taskService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.Resolver()),
		Policy:         auth.DefaultPolicy(),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	return data["token"].(string)
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "EMPLOYEE", data["role"])

	resp, _ = doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupDuplicateEmail(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Impostor", "email": "alice@x.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "CONFLICT", errBody["code"])
}

func TestLoginBadCredentialsUniform(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	respWrongPw, bodyWrongPw := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "wrong",
	})
	respUnknown, bodyUnknown := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "pw123",
	})

	assert.Equal(t, http.StatusUnauthorized, respWrongPw.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)
	// Same status, same body: no user enumeration.
	assert.Equal(t, bodyWrongPw, bodyUnknown)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/admin/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/employee/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGarbageTokenIsUnauthenticated(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/employee/tasks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleGateDistinguishes401And403(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	employeeToken := login(t, app, "alice@x.com", "pw123")

	// Employee token on an admin route: identity present, wrong role.
	resp, body := doJSON(t, app, http.MethodGet, "/api/admin/tasks", employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "FORBIDDEN", errBody["code"])

	// Admin token passes the same gate.
	adminToken := login(t, app, "admin@test.com", "admin")
	resp, _ = doJSON(t, app, http.MethodGet, "/api/admin/tasks", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// And the admin token is rejected on the employee subtree.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/employee/tasks", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEndToEndTaskFlow(t *testing.T) {
	app := newTestApp(t)

	resp, signupBody := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	aliceID := signupBody["data"].(map[string]any)["id"].(string)

	adminToken := login(t, app, "admin@test.com", "admin")
	aliceToken := login(t, app, "alice@x.com", "pw123")

	// Admin assigns a task to Alice.
	resp, createBody := doJSON(t, app, http.MethodPost, "/api/admin/task", adminToken, map[string]any{
		"title":       "Ship quarterly report",
		"description": "numbers plus commentary",
		"due_date":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"priority":    "HIGH",
		"assignee_id": aliceID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := createBody["data"].(map[string]any)
	taskID := task["id"].(string)
	assert.Equal(t, "IN_PROGRESS", task["status"])
	assert.Equal(t, aliceID, task["assignee_id"])

	// Alice sees it in her list.
	resp, listBody := doJSON(t, app, http.MethodGet, "/api/employee/tasks", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tasks := listBody["data"].([]any)
	require.Len(t, tasks, 1)

	// She completes it.
	resp, statusBody := doJSON(t, app, http.MethodPut, "/api/employee/task/"+taskID+"/status/COMPLETED", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMPLETED", statusBody["data"].(map[string]any)["status"])

	// An unknown status is rejected up front.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/employee/task/"+taskID+"/status/DONE", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// She comments; the admin reads the thread.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/employee/task/comment/"+taskID, aliceToken, map[string]string{
		"content": "shipped it",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, commentsBody := doJSON(t, app, http.MethodGet, "/api/admin/comments/"+taskID, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := commentsBody["data"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "shipped it", comments[0].(map[string]any)["content"])

	// Admin search finds the task, then deletes it.
	resp, searchBody := doJSON(t, app, http.MethodGet, "/api/admin/tasks/search/quarterly", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, searchBody["data"].([]any), 1)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/admin/task/"+taskID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/admin/task/"+taskID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminListsEmployees(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	adminToken := login(t, app, "admin@test.com", "admin")
	resp, body := doJSON(t, app, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	users := body["data"].([]any)
	require.Len(t, users, 1)
	// The admin account itself is not an employee.
	assert.Equal(t, "alice@x.com", users[0].(map[string]any)["email"])
}
