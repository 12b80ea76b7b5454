package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/warriorapp/warriord/internal/rank"
	"github.com/warriorapp/warriord/internal/storage"
)

func newTestService(t *testing.T) (*TaskService, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	if err := store.CreateUser(storage.User{ID: "u1", Email: "u1@example.com", PasswordHash: "x", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateProfile(storage.Profile{
		ID: "u1", Name: "محارب", Rank: rank.Tiers[0].Name, AIPersonality: "inspiring",
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatal(err)
	}
	return NewTaskService(store), store
}

func TestCreateTask_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	task, err := svc.CreateTask("u1", CreateTaskInput{Title: "  قراءة  "})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Title != "قراءة" {
		t.Errorf("title = %q, want trimmed", task.Title)
	}
	if task.TaskType != "main" || task.DifficultyFactor != 4.0 {
		t.Errorf("type = %q factor = %v, want main/4.0", task.TaskType, task.DifficultyFactor)
	}
	if task.Category != "personal" {
		t.Errorf("category = %q, want personal", task.Category)
	}
	if task.Status != storage.StatusPending {
		t.Errorf("status = %q", task.Status)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name string
		in   CreateTaskInput
	}{
		{"empty title", CreateTaskInput{Title: "   "}},
		{"bad type", CreateTaskInput{Title: "x", TaskType: "epic"}},
		{"bad category", CreateTaskInput{Title: "x", Category: "dragons"}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateTask("u1", tc.in); !IsValidation(err) {
			t.Errorf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}

func TestCreateTask_CustomCategory(t *testing.T) {
	svc, store := newTestService(t)
	if err := store.AddCategory(storage.CustomCategory{
		ID: "hobbies", UserID: "u1", Name: "هوايات", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	task, err := svc.CreateTask("u1", CreateTaskInput{Title: "رسم", Category: "hobbies", TaskType: "side"})
	if err != nil {
		t.Fatalf("CreateTask with custom category: %v", err)
	}
	if task.Category != "hobbies" || task.DifficultyFactor != 2.0 {
		t.Errorf("task = %+v", task)
	}
}

func TestStartTask(t *testing.T) {
	svc, _ := newTestService(t)
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "x"})

	started, err := svc.StartTask("u1", task.ID)
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if started.Status != storage.StatusInProgress || started.StartTime == nil {
		t.Errorf("started = %+v", started)
	}

	// Restart keeps the original stamp.
	first := *started.StartTime
	again, err := svc.StartTask("u1", task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.StartTime.Equal(first) {
		t.Errorf("restart changed start time: %v -> %v", first, again.StartTime)
	}
}

func TestCompleteTask_AwardsXPAndRank(t *testing.T) {
	svc, _ := newTestService(t)
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "x", TaskType: "main"})

	start := time.Now().UTC().Add(-125 * time.Minute)
	svc.now = func() time.Time { return start }
	if _, err := svc.StartTask("u1", task.ID); err != nil {
		t.Fatal(err)
	}

	svc.now = time.Now
	done, profile, err := svc.CompleteTask("u1", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	// 125 minutes at factor 4.0.
	if done.XP != 500 {
		t.Errorf("xp = %d, want 500", done.XP)
	}
	if profile.TotalXP != 500 {
		t.Errorf("profile xp = %d, want 500", profile.TotalXP)
	}
	if profile.Rank != "محارب صاعد" {
		t.Errorf("rank = %q, want محارب صاعد", profile.Rank)
	}
}

func TestCompleteTask_NeverStarted(t *testing.T) {
	svc, _ := newTestService(t)
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "x", TaskType: "side"})

	// Completing a pending task earns the one-minute floor.
	done, _, err := svc.CompleteTask("u1", task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if done.XP != 2 {
		t.Errorf("xp = %d, want 2 (1 min * 2.0)", done.XP)
	}
	if done.StartTime == nil || done.EndTime == nil {
		t.Error("timestamps not frozen")
	}
}

func TestCompleteTask_Terminal(t *testing.T) {
	svc, _ := newTestService(t)
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "x"})
	if _, _, err := svc.CompleteTask("u1", task.ID); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.CompleteTask("u1", task.ID); !IsValidation(err) {
		t.Errorf("double completion = %v, want validation error", err)
	}

	cancelled, _ := svc.CreateTask("u1", CreateTaskInput{Title: "y"})
	if _, err := svc.CancelTask("u1", cancelled.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.CompleteTask("u1", cancelled.ID); !IsValidation(err) {
		t.Errorf("completing cancelled = %v, want validation error", err)
	}
}

func TestCompleteTask_FutureStartRejected(t *testing.T) {
	svc, _ := newTestService(t)
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "x"})

	future := time.Now().UTC().Add(time.Hour)
	svc.now = func() time.Time { return future }
	if _, err := svc.StartTask("u1", task.ID); err != nil {
		t.Fatal(err)
	}

	svc.now = time.Now
	if _, _, err := svc.CompleteTask("u1", task.ID); !IsValidation(err) {
		t.Errorf("future start = %v, want validation error", err)
	}
}

func TestCancelTask(t *testing.T) {
	svc, _ := newTestService(t)
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "x"})

	cancelled, err := svc.CancelTask("u1", task.ID)
	if err != nil {
		t.Fatalf("CancelTask: %v", err)
	}
	if cancelled.Status != storage.StatusCancelled || cancelled.XP != 0 {
		t.Errorf("cancelled = %+v", cancelled)
	}
	if _, err := svc.CancelTask("u1", task.ID); !IsValidation(err) {
		t.Errorf("double cancel = %v, want validation error", err)
	}
}

func TestUpdateTask(t *testing.T) {
	svc, _ := newTestService(t)
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "x"})

	title := "عنوان جديد"
	cat := "study"
	updated, err := svc.UpdateTask("u1", task.ID, UpdateTaskInput{Title: &title, Category: &cat})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != title || updated.Category != "study" {
		t.Errorf("updated = %+v", updated)
	}

	empty := " "
	if _, err := svc.UpdateTask("u1", task.ID, UpdateTaskInput{Title: &empty}); !IsValidation(err) {
		t.Errorf("empty title = %v, want validation error", err)
	}

	if _, err := svc.UpdateTask("u1", "ghost", UpdateTaskInput{}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing task = %v, want ErrNotFound", err)
	}
}

func TestListTasks_StatusFilter(t *testing.T) {
	svc, _ := newTestService(t)
	svc.CreateTask("u1", CreateTaskInput{Title: "a"})
	task, _ := svc.CreateTask("u1", CreateTaskInput{Title: "b"})
	svc.CompleteTask("u1", task.ID)

	pending, err := svc.ListTasks("u1", storage.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}

	if _, err := svc.ListTasks("u1", "weird"); !IsValidation(err) {
		t.Errorf("bad filter = %v, want validation error", err)
	}
}

func TestProfile_LazyRankRefresh(t *testing.T) {
	svc, store := newTestService(t)

	// Simulate a stale cached rank by crediting XP behind the service's back.
	task := storage.Task{
		ID: "t1", UserID: "u1", Title: "x", Category: "work", TaskType: "main",
		DifficultyFactor: 4.0, Status: storage.StatusPending,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := store.CreateTask(task); err != nil {
		t.Fatal(err)
	}
	end := time.Now().UTC()
	start := end.Add(-500 * time.Minute)
	task.StartTime = &start
	task.EndTime = &end
	task.XP = 2000
	if _, err := store.CompleteTask(task); err != nil {
		t.Fatal(err)
	}

	p, err := svc.Profile("u1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Rank != "فارس" {
		t.Errorf("rank = %q, want فارس", p.Rank)
	}

	stored, err := store.GetProfile("u1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Rank != "فارس" {
		t.Errorf("persisted rank = %q, want فارس", stored.Rank)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)

	name := "صقر"
	personality := "harsh"
	p, err := svc.UpdateProfile("u1", UpdateProfileInput{Name: &name, AIPersonality: &personality})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Name != "صقر" || p.AIPersonality != "harsh" {
		t.Errorf("profile = %+v", p)
	}

	bad := "grumpy"
	if _, err := svc.UpdateProfile("u1", UpdateProfileInput{AIPersonality: &bad}); !IsValidation(err) {
		t.Errorf("bad personality = %v, want validation error", err)
	}
}

func TestStats_ThroneGate(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		task, err := svc.CreateTask("u1", CreateTaskInput{Title: "x", TaskType: "side"})
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := svc.CompleteTask("u1", task.ID); err != nil {
			t.Fatal(err)
		}
	}
	svc.CreateTask("u1", CreateTaskInput{Title: "open"})

	stats, err := svc.Stats("u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.CompletedToday != 3 || stats.CompletedTotal != 3 {
		t.Errorf("completed today=%d total=%d, want 3/3", stats.CompletedToday, stats.CompletedTotal)
	}
	if !stats.Throne.Unlocked || stats.Throne.Remaining != 0 {
		t.Errorf("throne = %+v, want unlocked", stats.Throne)
	}
	if stats.OpenTasks != 1 {
		t.Errorf("open = %d, want 1", stats.OpenTasks)
	}
	if stats.Rank.Current.Name != rank.ForXP(stats.TotalXP).Name {
		t.Errorf("rank progress inconsistent: %+v", stats.Rank)
	}
}

func TestStats_ThroneGatePersistsAcrossDays(t *testing.T) {
	svc, _ := newTestService(t)

	// Complete three tasks two days back, then read stats at the real
	// current time. The gate counts all-time completions, so it stays open.
	past := time.Now().UTC().Add(-48 * time.Hour)
	svc.now = func() time.Time { return past }
	for i := 0; i < 3; i++ {
		task, err := svc.CreateTask("u1", CreateTaskInput{Title: "x", TaskType: "side"})
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := svc.CompleteTask("u1", task.ID); err != nil {
			t.Fatal(err)
		}
	}
	svc.now = time.Now

	stats, err := svc.Stats("u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.CompletedToday != 0 || stats.CompletedTotal != 3 {
		t.Errorf("completed today=%d total=%d, want 0/3", stats.CompletedToday, stats.CompletedTotal)
	}
	if !stats.Throne.Unlocked || stats.Throne.Remaining != 0 {
		t.Errorf("throne = %+v, want unlocked from past completions", stats.Throne)
	}
}

func TestThroneStatusFor(t *testing.T) {
	cases := []struct {
		completed int
		unlocked  bool
		remaining int
	}{
		{0, false, 3},
		{2, false, 1},
		{3, true, 0},
		{7, true, 0},
	}
	for _, tc := range cases {
		got := ThroneStatusFor(tc.completed)
		if got.Unlocked != tc.unlocked || got.Remaining != tc.remaining {
			t.Errorf("ThroneStatusFor(%d) = %+v", tc.completed, got)
		}
	}
}
