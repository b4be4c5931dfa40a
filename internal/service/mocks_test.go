package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/task-service/internal/domain"
)

type fakeUserRepo struct {
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = "user-" + strconv.Itoa(r.seq)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetFirstByRole(_ context.Context, role domain.UserRole) (*domain.User, error) {
	for _, user := range r.users {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.UserRole) ([]domain.User, error) {
	var users []domain.User
	for _, user := range r.users {
		if user.Role == role {
			users = append(users, *user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

type fakeTaskRepo struct {
	seq   int
	tasks map[string]*domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.seq++
	task.ID = "task-" + strconv.Itoa(r.seq)
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if task, ok := r.tasks[id]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTaskRepo) ListAll(_ context.Context) ([]domain.Task, error) {
	return r.collect(func(*domain.Task) bool { return true }), nil
}

func (r *fakeTaskRepo) ListByAssignee(_ context.Context, userID string) ([]domain.Task, error) {
	return r.collect(func(t *domain.Task) bool { return t.AssigneeID == userID }), nil
}

func (r *fakeTaskRepo) SearchByTitle(_ context.Context, title string) ([]domain.Task, error) {
	needle := strings.ToLower(title)
	return r.collect(func(t *domain.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	}), nil
}

// collect mimics the store's due-date-descending ordering.
func (r *fakeTaskRepo) collect(keep func(*domain.Task) bool) []domain.Task {
	var tasks []domain.Task
	for _, task := range r.tasks {
		if keep(task) {
			tasks = append(tasks, *task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.After(tasks[j].DueDate) })
	return tasks
}

type fakeCommentRepo struct {
	seq      int
	comments []domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = "comment-" + strconv.Itoa(r.seq)
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTaskID(_ context.Context, taskID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	for _, comment := range r.comments {
		if comment.TaskID == taskID {
			comments = append(comments, comment)
		}
	}
	return comments, nil
}
