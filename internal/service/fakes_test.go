package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// Hand-written fakes (not a mock framework) keep tests dependency-free and
// readable: you can see exactly what each fake does. Error fields let a
// test simulate a failing store, which is how the dashboard degradation
// paths get exercised.

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) add(email string, role model.Role, active bool) *model.User {
	f.nextID++
	u := &model.User{
		ID:       f.nextID,
		Email:    email,
		Password: "$2a$04$fakehashfakehashfakehash",
		Role:     role,
		IsActive: active,
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) List(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if opts.Offset >= len(out) {
		return []model.User{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id int64, role model.Role) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) Deactivate(_ context.Context, id int64) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.IsActive = false
	return nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context) (map[model.Role]int, error) {
	counts := make(map[model.Role]int)
	for _, u := range f.users {
		if u.IsActive {
			counts[u.Role]++
		}
	}
	return counts, nil
}

type fakeTaskRepo struct {
	tasks  map[int64]*model.Task
	nextID int64

	statusCountsErr  error
	overdueErr       error
	topPerformersErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]*model.Task)}
}

func (f *fakeTaskRepo) Create(_ context.Context, task *model.Task) error {
	f.nextID++
	task.ID = f.nextID
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id int64) (*model.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, apperror.NotFound("task", id)
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskRepo) visible(task *model.Task, userID int64) bool {
	return task.AuthorID == userID || task.HasAssignee(userID)
}

func (f *fakeTaskRepo) ListForUser(_ context.Context, userID int64, opts repository.ListOptions) ([]model.Task, error) {
	out := make([]model.Task, 0)
	for _, task := range f.tasks {
		if f.visible(task, userID) {
			out = append(out, *task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if opts.Ascending {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	if opts.Offset >= len(out) {
		return []model.Task{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeTaskRepo) CountForUser(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, task := range f.tasks {
		if f.visible(task, userID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskRepo) ListAll(_ context.Context, filter repository.TaskFilter, opts repository.ListOptions) ([]model.Task, error) {
	out := make([]model.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if opts.Offset >= len(out) {
		return []model.Task{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeTaskRepo) CountAll(_ context.Context, filter repository.TaskFilter) (int, error) {
	n := 0
	for _, task := range f.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, task *model.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return apperror.NotFound("task", task.ID)
	}
	task.UpdatedAt = time.Now()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.tasks[id]; !ok {
		return apperror.NotFound("task", id)
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskRepo) StatusCounts(_ context.Context, userID int64) (repository.StatusCounts, error) {
	if f.statusCountsErr != nil {
		return repository.StatusCounts{}, f.statusCountsErr
	}
	var counts repository.StatusCounts
	for _, task := range f.tasks {
		if userID > 0 && !f.visible(task, userID) {
			continue
		}
		counts.Total++
		switch task.Status {
		case model.StatusPending:
			counts.Pending++
		case model.StatusInProgress:
			counts.InProgress++
		case model.StatusCompleted:
			counts.Completed++
		}
	}
	return counts, nil
}

func (f *fakeTaskRepo) Overdue(_ context.Context, userID int64, now time.Time) ([]model.Task, error) {
	if f.overdueErr != nil {
		return nil, f.overdueErr
	}
	out := make([]model.Task, 0)
	for _, task := range f.tasks {
		if userID > 0 && !f.visible(task, userID) {
			continue
		}
		if task.IsOverdue(now) {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) TopPerformers(_ context.Context, limit int) ([]repository.PerformerStat, error) {
	if f.topPerformersErr != nil {
		return nil, f.topPerformersErr
	}
	return []repository.PerformerStat{}, nil
}

type fakeTimeLogRepo struct {
	logs      []model.TimeLog
	nextID    int64
	createErr error
	hoursErr  error
}

func (f *fakeTimeLogRepo) Create(_ context.Context, log *model.TimeLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	log.ID = f.nextID
	log.CreatedAt = time.Now()
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeTimeLogRepo) HoursLogged(_ context.Context, userID int64) (float64, error) {
	if f.hoursErr != nil {
		return 0, f.hoursErr
	}
	minutes := 0
	for _, log := range f.logs {
		if userID > 0 && log.UserID != userID {
			continue
		}
		minutes += log.DurationMinutes
	}
	return float64(minutes) / 60.0, nil
}

type fakeTokenRepo struct {
	revoked map[string]time.Time
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{revoked: make(map[string]time.Time)}
}

func (f *fakeTokenRepo) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	f.revoked[tokenID] = expiresAt
	return nil
}

func (f *fakeTokenRepo) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := f.revoked[tokenID]
	return ok, nil
}

// Interface conformance — a fake drifting from the repository contract
// should fail compilation, not a test run.
var (
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
	_ repository.TaskRepository    = (*fakeTaskRepo)(nil)
	_ repository.TimeLogRepository = (*fakeTimeLogRepo)(nil)
	_ repository.TokenRepository   = (*fakeTokenRepo)(nil)
)

// =========================================================================
// SHARED HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func identityFor(u *model.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func newTestTaskService(t *testing.T) (*TaskService, *fakeUserRepo, *fakeTaskRepo, *fakeTimeLogRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tasks := newFakeTaskRepo()
	logs := &fakeTimeLogRepo{}
	return NewTaskService(tasks, users, logs, testLogger()), users, tasks, logs
}
