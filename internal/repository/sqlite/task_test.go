package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository"
)

func createTestTask(t *testing.T, db *DB, authorID, assigneeID int64, title string) *model.Task {
	t.Helper()
	task := &model.Task{
		Title:      title,
		Slug:       fmt.Sprintf("%s-%d-%d", title, authorID, time.Now().UnixNano()),
		TaskType:   model.TypeTask,
		Priority:   model.PriorityMedium,
		Status:     model.StatusPending,
		AuthorID:   authorID,
		AssigneeID: assigneeID,
		IsActive:   true,
	}
	if err := db.Tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

func TestTaskCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "author@example.com")
	helper := createTestUser(t, db, "helper@example.com")

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	task := &model.Task{
		Title:       "Ship release",
		Description: "Cut the release branch",
		Slug:        "ship-release-abc123",
		TaskType:    model.TypeProject,
		Priority:    model.PriorityHigh,
		Status:      model.StatusInProgress,
		AuthorID:    author.ID,
		AssigneeID:  author.ID,
		AssigneeIDs: []int64{author.ID, helper.ID},
		DueDate:     &due,
		IsActive:    true,
		Tags:        "release,backend",
	}
	if err := db.Tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID == 0 {
		t.Fatal("expected AUTOINCREMENT ID to be read back")
	}

	found, err := db.Tasks.GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "Ship release" || found.Priority != model.PriorityHigh {
		t.Errorf("got %+v", found)
	}
	if len(found.AssigneeIDs) != 2 {
		t.Errorf("AssigneeIDs = %v, want both members", found.AssigneeIDs)
	}
	if found.DueDate == nil || !found.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", found.DueDate, due)
	}
}

func TestTaskGetByID_Missing(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Tasks.GetByID(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// Visibility scope: author, primary assignee, or member of the
// additional-assignee set — and nobody else.
func TestTaskListForUser_Scope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, db, "author@example.com")
	assignee := createTestUser(t, db, "assignee@example.com")
	member := createTestUser(t, db, "member@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")

	task := &model.Task{
		Title:       "Shared work",
		Slug:        "shared-work-1",
		TaskType:    model.TypeTask,
		Priority:    model.PriorityMedium,
		Status:      model.StatusPending,
		AuthorID:    author.ID,
		AssigneeID:  assignee.ID,
		AssigneeIDs: []int64{assignee.ID, member.ID},
		IsActive:    true,
	}
	if err := db.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, tc := range []struct {
		name   string
		userID int64
		want   int
	}{
		{"author sees it", author.ID, 1},
		{"primary assignee sees it", assignee.ID, 1},
		{"additional assignee sees it", member.ID, 1},
		{"outsider does not", outsider.ID, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := db.Tasks.ListForUser(ctx, tc.userID, repository.ListOptions{})
			if err != nil {
				t.Fatalf("ListForUser() error = %v", err)
			}
			if len(tasks) != tc.want {
				t.Errorf("len = %d, want %d", len(tasks), tc.want)
			}

			count, err := db.Tasks.CountForUser(ctx, tc.userID)
			if err != nil {
				t.Fatalf("CountForUser() error = %v", err)
			}
			if count != tc.want {
				t.Errorf("count = %d, want %d", count, tc.want)
			}
		})
	}
}

func TestTaskListForUser_Pagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "worker@example.com")

	for i := 0; i < 12; i++ {
		createTestTask(t, db, user.ID, user.ID, fmt.Sprintf("task-%02d", i))
	}

	page2, err := db.Tasks.ListForUser(ctx, user.ID, repository.ListOptions{
		Limit:     5,
		Offset:    5,
		Ascending: true,
	})
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(page2) != 5 {
		t.Errorf("page 2 len = %d, want 5", len(page2))
	}

	total, err := db.Tasks.CountForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountForUser() error = %v", err)
	}
	if total != 12 {
		t.Errorf("total = %d, want 12", total)
	}
}

func TestTaskListAll_Filter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "worker@example.com")

	pending := createTestTask(t, db, user.ID, user.ID, "pending-task")
	done := createTestTask(t, db, user.ID, user.ID, "done-task")
	done.Status = model.StatusCompleted
	if err := db.Tasks.Update(ctx, done); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	completed, err := db.Tasks.ListAll(ctx, repository.TaskFilter{Status: model.StatusCompleted}, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(completed) != 1 || completed[0].ID != done.ID {
		t.Errorf("filtered listing = %v", completed)
	}

	count, err := db.Tasks.CountAll(ctx, repository.TaskFilter{Status: model.StatusPending})
	if err != nil {
		t.Fatalf("CountAll() error = %v", err)
	}
	if count != 1 {
		t.Errorf("pending count = %d, want 1 (task %d)", count, pending.ID)
	}

	all, err := db.Tasks.ListAll(ctx, repository.TaskFilter{}, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered len = %d, want 2", len(all))
	}
}

func TestTaskUpdate_ReplacesAssignees(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, db, "a@example.com")
	b := createTestUser(t, db, "b@example.com")

	task := createTestTask(t, db, a.ID, a.ID, "handover")
	task.AssigneeID = b.ID
	task.AssigneeIDs = []int64{b.ID}
	task.Status = model.StatusInProgress

	if err := db.Tasks.Update(ctx, task); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.AssigneeID != b.ID || found.Status != model.StatusInProgress {
		t.Errorf("got %+v", found)
	}
	if len(found.AssigneeIDs) != 1 || found.AssigneeIDs[0] != b.ID {
		t.Errorf("AssigneeIDs = %v, want [%d]", found.AssigneeIDs, b.ID)
	}
}

func TestTaskUpdate_Missing(t *testing.T) {
	db := newTestDB(t)

	task := &model.Task{ID: 9999, Title: "ghost", Slug: "ghost"}
	if err := db.Tasks.Update(context.Background(), task); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTaskDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "worker@example.com")
	task := createTestTask(t, db, user.ID, user.ID, "short-lived")

	if err := db.Tasks.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.Tasks.GetByID(ctx, task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
	if err := db.Tasks.Delete(ctx, task.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("double delete: error = %v, want ErrNotFound", err)
	}
}

func TestTaskStatusCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "worker@example.com")
	other := createTestUser(t, db, "other@example.com")

	createTestTask(t, db, user.ID, user.ID, "one")
	inProgress := createTestTask(t, db, user.ID, user.ID, "two")
	inProgress.Status = model.StatusInProgress
	if err := db.Tasks.Update(ctx, inProgress); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	createTestTask(t, db, other.ID, other.ID, "theirs")

	scoped, err := db.Tasks.StatusCounts(ctx, user.ID)
	if err != nil {
		t.Fatalf("StatusCounts() error = %v", err)
	}
	if scoped.Total != 2 || scoped.Pending != 1 || scoped.InProgress != 1 {
		t.Errorf("scoped = %+v", scoped)
	}

	system, err := db.Tasks.StatusCounts(ctx, 0)
	if err != nil {
		t.Fatalf("StatusCounts() error = %v", err)
	}
	if system.Total != 3 {
		t.Errorf("system total = %d, want 3", system.Total)
	}
}

func TestTaskOverdue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "worker@example.com")
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	overdueTask := createTestTask(t, db, user.ID, user.ID, "late")
	overdueTask.DueDate = &past
	if err := db.Tasks.Update(ctx, overdueTask); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	doneLate := createTestTask(t, db, user.ID, user.ID, "late-but-done")
	doneLate.DueDate = &past
	doneLate.Status = model.StatusCompleted
	if err := db.Tasks.Update(ctx, doneLate); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	onTime := createTestTask(t, db, user.ID, user.ID, "on-time")
	onTime.DueDate = &future
	if err := db.Tasks.Update(ctx, onTime); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	overdue, err := db.Tasks.Overdue(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("Overdue() error = %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != overdueTask.ID {
		t.Errorf("Overdue() = %v, want only the late pending task", overdue)
	}
}

func TestTopPerformers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	star := createTestUser(t, db, "star@example.com")
	slacker := createTestUser(t, db, "slacker@example.com")

	for i := 0; i < 3; i++ {
		task := createTestTask(t, db, star.ID, star.ID, fmt.Sprintf("star-%d", i))
		task.Status = model.StatusCompleted
		if err := db.Tasks.Update(ctx, task); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	createTestTask(t, db, slacker.ID, slacker.ID, "still-pending")

	if err := db.TimeLogs.Create(ctx, &model.TimeLog{
		UserID:          star.ID,
		TaskID:          1,
		StartTime:       time.Now().Add(-2 * time.Hour),
		DurationMinutes: 90,
	}); err != nil {
		t.Fatalf("TimeLogs.Create() error = %v", err)
	}

	stats, err := db.Tasks.TopPerformers(ctx, 5)
	if err != nil {
		t.Fatalf("TopPerformers() error = %v", err)
	}
	if len(stats) < 2 {
		t.Fatalf("len = %d, want at least 2", len(stats))
	}
	if stats[0].UserID != star.ID {
		t.Errorf("top performer = %d, want %d", stats[0].UserID, star.ID)
	}
	if stats[0].CompletedTasks != 3 {
		t.Errorf("CompletedTasks = %d, want 3", stats[0].CompletedTasks)
	}
	if stats[0].HoursLogged != 1.5 {
		t.Errorf("HoursLogged = %v, want 1.5", stats[0].HoursLogged)
	}
}
