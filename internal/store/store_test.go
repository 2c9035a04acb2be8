package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/taskchat/internal/store"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "taskchat.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

// ─── Open / targets ─────────────────────────────────────────────────────────

func TestOpen_IdempotentReopen(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "nested", "taskchat.db")
	ctx := context.Background()

	s1, err := store.Open(ctx, url)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := s1.AddTask(ctx, "alice", "persisted", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	s1.Close()

	s2, err := store.Open(ctx, url)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	tasks, err := s2.ListTasks(ctx, "alice", store.StatusAll)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "persisted" {
		t.Errorf("tasks after reopen = %+v", tasks)
	}
}

func TestOpen_WALAndForeignKeys(t *testing.T) {
	s := newTestStore(t)

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		url      string
		driver   string
		dsnStart string
		postgres bool
	}{
		{"sqlite://taskchat.db", "sqlite", "taskchat.db?", false},
		{"sqlite:///var/lib/taskchat.db", "sqlite", "/var/lib/taskchat.db?", false},
		{"data/tasks.db", "sqlite", "data/tasks.db?", false},
		{"postgres://u:p@db/app?sslmode=require", "pgx", "postgres://u:p@db/app?sslmode=require", true},
		{"postgresql://u@db/app", "pgx", "postgresql://u@db/app", true},
	}
	for _, tt := range tests {
		driver, dsn, pg, err := store.ParseTarget(tt.url)
		if err != nil {
			t.Errorf("ParseTarget(%q) error: %v", tt.url, err)
			continue
		}
		if driver != tt.driver || pg != tt.postgres || !strings.HasPrefix(dsn, tt.dsnStart) {
			t.Errorf("ParseTarget(%q) = (%q, %q, %v)", tt.url, driver, dsn, pg)
		}
	}

	for _, bad := range []string{"", "mysql://x/y", "sqlite://"} {
		if _, _, _, err := store.ParseTarget(bad); err == nil {
			t.Errorf("ParseTarget(%q) expected error", bad)
		}
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	if got := store.Rebind(false, q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	if got, want := store.Rebind(true, q), "SELECT a FROM t WHERE x = $1 AND y = $2"; got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func TestAddTask_TrimsAndDefaults(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	defer store.SetTimeNow(func() time.Time { return fixed })()

	task, err := s.AddTask(context.Background(), "alice", "  Buy milk  ", strPtr("2 liters"))
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.ID == 0 {
		t.Error("expected an assigned id")
	}
	if task.Title != "Buy milk" {
		t.Errorf("Title = %q, want trimmed", task.Title)
	}
	if task.Description == nil || *task.Description != "2 liters" {
		t.Errorf("Description = %v", task.Description)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}
	if !task.CreatedAt.Equal(fixed) || !task.UpdatedAt.Equal(fixed) {
		t.Errorf("timestamps = %v / %v, want %v", task.CreatedAt, task.UpdatedAt, fixed)
	}
}

func TestAddTask_EmptyTitle(t *testing.T) {
	s := newTestStore(t)
	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := s.AddTask(context.Background(), "alice", title, nil); !errors.Is(err, store.ErrValidation) {
			t.Errorf("AddTask(%q) error = %v, want ErrValidation", title, err)
		}
	}

	tasks, _ := s.ListTasks(context.Background(), "alice", store.StatusAll)
	if len(tasks) != 0 {
		t.Errorf("rejected adds must not persist, got %d tasks", len(tasks))
	}
}

func TestAddThenList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.AddTask(ctx, "alice", "first", nil)
	b, _ := s.AddTask(ctx, "alice", "second", nil)

	tasks, err := s.ListTasks(ctx, "alice", store.StatusAll)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2", len(tasks))
	}
	if tasks[0].ID != a.ID || tasks[1].ID != b.ID {
		t.Errorf("order = [%d %d], want ascending [%d %d]", tasks[0].ID, tasks[1].ID, a.ID, b.ID)
	}
	if tasks[0].Description != nil {
		t.Errorf("nil description should round-trip as nil, got %q", *tasks[0].Description)
	}
}

func TestListTasks_StatusFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	open, _ := s.AddTask(ctx, "alice", "open", nil)
	done, _ := s.AddTask(ctx, "alice", "done", nil)
	if _, err := s.CompleteTask(ctx, "alice", done.ID); err != nil {
		t.Fatal(err)
	}

	pending, _ := s.ListTasks(ctx, "alice", store.ParseStatusFilter("incomplete"))
	if len(pending) != 1 || pending[0].ID != open.ID {
		t.Errorf("pending = %+v", pending)
	}
	completed, _ := s.ListTasks(ctx, "alice", store.ParseStatusFilter("DONE"))
	if len(completed) != 1 || completed[0].ID != done.ID {
		t.Errorf("completed = %+v", completed)
	}
	all, _ := s.ListTasks(ctx, "alice", store.ParseStatusFilter("whatever"))
	if len(all) != 2 {
		t.Errorf("all = %d tasks, want 2", len(all))
	}
}

func TestParseStatusFilter(t *testing.T) {
	tests := map[string]store.StatusFilter{
		"pending":    store.StatusPending,
		"Incomplete": store.StatusPending,
		" open ":     store.StatusPending,
		"completed":  store.StatusCompleted,
		"done":       store.StatusCompleted,
		"CLOSED":     store.StatusCompleted,
		"":           store.StatusAll,
		"archived":   store.StatusAll,
	}
	for in, want := range tests {
		if got := store.ParseStatusFilter(in); got != want {
			t.Errorf("ParseStatusFilter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestListTasks_EmptyIsNonNil(t *testing.T) {
	s := newTestStore(t)
	tasks, err := s.ListTasks(context.Background(), "nobody", store.StatusAll)
	if err != nil {
		t.Fatal(err)
	}
	if tasks == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestCompleteTask_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task, _ := s.AddTask(ctx, "alice", "walk dog", nil)

	first, err := s.CompleteTask(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	second, err := s.CompleteTask(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if !first.Completed || !second.Completed {
		t.Error("task should be completed after both calls")
	}
}

func TestToggleTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task, _ := s.AddTask(ctx, "alice", "toggle me", nil)

	on, err := s.ToggleTask(ctx, "alice", task.ID)
	if err != nil || !on.Completed {
		t.Fatalf("first toggle = %+v, %v", on, err)
	}
	off, err := s.ToggleTask(ctx, "alice", task.ID)
	if err != nil || off.Completed {
		t.Fatalf("second toggle = %+v, %v", off, err)
	}
}

func TestUpdateTask_Partial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	restore := store.SetTimeNow(func() time.Time { return t0 })
	task, _ := s.AddTask(ctx, "alice", "old title", strPtr("keep me"))
	restore()

	t1 := t0.Add(time.Hour)
	defer store.SetTimeNow(func() time.Time { return t1 })()

	updated, err := s.UpdateTask(ctx, "alice", task.ID, strPtr("  new title "), nil)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "new title" {
		t.Errorf("Title = %q", updated.Title)
	}
	if updated.Description == nil || *updated.Description != "keep me" {
		t.Errorf("Description changed: %v", updated.Description)
	}
	if !updated.UpdatedAt.Equal(t1) || !updated.CreatedAt.Equal(t0) {
		t.Errorf("timestamps = %v / %v", updated.CreatedAt, updated.UpdatedAt)
	}

	got, _ := s.GetTask(ctx, "alice", task.ID)
	if got.Title != "new title" || *got.Description != "keep me" {
		t.Errorf("persisted task = %+v", got)
	}
}

func TestUpdateTask_NoFieldsStillTouches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	restore := store.SetTimeNow(func() time.Time { return t0 })
	task, _ := s.AddTask(ctx, "alice", "same", nil)
	restore()

	t1 := t0.Add(time.Minute)
	defer store.SetTimeNow(func() time.Time { return t1 })()

	updated, err := s.UpdateTask(ctx, "alice", task.ID, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "same" || !updated.UpdatedAt.Equal(t1) {
		t.Errorf("updated = %+v", updated)
	}
}

func TestUpdateTask_EmptyTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task, _ := s.AddTask(ctx, "alice", "keep", nil)

	if _, err := s.UpdateTask(ctx, "alice", task.ID, strPtr("  "), nil); !errors.Is(err, store.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	got, _ := s.GetTask(ctx, "alice", task.ID)
	if got.Title != "keep" {
		t.Errorf("title changed to %q", got.Title)
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task, _ := s.AddTask(ctx, "alice", "bye", nil)

	if err := s.DeleteTask(ctx, "alice", task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := s.DeleteTask(ctx, "alice", task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTask(ctx, "alice", task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete error = %v", err)
	}
}

func TestTasks_CrossOwnerIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task, _ := s.AddTask(ctx, "alice", "private", nil)

	if _, err := s.CompleteTask(ctx, "bob", task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("complete by other owner: %v", err)
	}
	if _, err := s.UpdateTask(ctx, "bob", task.ID, strPtr("hijack"), nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update by other owner: %v", err)
	}
	if _, err := s.ToggleTask(ctx, "bob", task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("toggle by other owner: %v", err)
	}
	if err := s.DeleteTask(ctx, "bob", task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("delete by other owner: %v", err)
	}
	bobs, _ := s.ListTasks(ctx, "bob", store.StatusAll)
	if len(bobs) != 0 {
		t.Errorf("bob sees %d tasks", len(bobs))
	}

	got, err := s.GetTask(ctx, "alice", task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "private" || got.Completed {
		t.Errorf("alice's task was modified: %+v", got)
	}
}

func TestCommitFailure_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SetCommitHook(func(tx *sql.Tx) error {
		_ = tx.Rollback()
		return errors.New("disk on fire")
	})
	if _, err := s.AddTask(ctx, "alice", "lost", nil); err == nil {
		t.Fatal("expected commit error")
	}
	s.SetCommitHook(nil)

	tasks, _ := s.ListTasks(ctx, "alice", store.StatusAll)
	if len(tasks) != 0 {
		t.Errorf("failed add persisted %d tasks", len(tasks))
	}
}
