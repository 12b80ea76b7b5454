// Package engine holds the task lifecycle and progression rules that sit
// between the HTTP handlers and storage: XP awarding on completion, lazy rank
// refresh, daily stats, and the throne-room gate.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warriorapp/warriord/internal/category"
	"github.com/warriorapp/warriord/internal/king"
	"github.com/warriorapp/warriord/internal/rank"
	"github.com/warriorapp/warriord/internal/storage"
	"github.com/warriorapp/warriord/internal/xp"
)

// TaskService implements the task and profile operations on top of storage.
type TaskService struct {
	store *storage.Store
	cats  *category.Registry
	now   func() time.Time
}

// NewTaskService creates a TaskService over the given store.
func NewTaskService(store *storage.Store) *TaskService {
	return &TaskService{
		store: store,
		cats:  category.NewRegistry(store),
		now:   time.Now,
	}
}

// Categories exposes the category registry shared with handlers.
func (s *TaskService) Categories() *category.Registry {
	return s.cats
}

// CreateTaskInput is the caller-settable part of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	TaskType    string
}

// CreateTask validates the input and inserts a pending task. The difficulty
// factor is derived from the task type here and never changes afterwards,
// so later edits to the type tables cannot retroactively reprice a task.
func (s *TaskService) CreateTask(userID string, in CreateTaskInput) (storage.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return storage.Task{}, validationErrorf("title", "title is required")
	}

	kind := xp.TaskKind(in.TaskType)
	if in.TaskType == "" {
		kind = xp.KindMain
	}
	if !xp.ValidKind(kind) {
		return storage.Task{}, validationErrorf("task_type", "unknown task type %q", in.TaskType)
	}

	cat := in.Category
	if cat == "" {
		cat = category.Defaults[len(category.Defaults)-1].ID // personal
	}
	ok, err := s.cats.Valid(userID, cat)
	if err != nil {
		return storage.Task{}, fmt.Errorf("checking category: %w", err)
	}
	if !ok {
		return storage.Task{}, validationErrorf("category", "unknown category %q", cat)
	}

	now := s.now().UTC()
	task := storage.Task{
		ID:               uuid.NewString(),
		UserID:           userID,
		Title:            title,
		Description:      strings.TrimSpace(in.Description),
		Category:         cat,
		TaskType:         string(kind),
		DifficultyFactor: xp.DefaultDifficultyFactor(kind),
		Status:           storage.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateTask(task); err != nil {
		return storage.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

// UpdateTaskInput carries the editable fields of an existing task. Nil
// pointers leave the current value untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Category    *string
}

// UpdateTask edits a task's descriptive fields. Status, type, difficulty,
// and XP are managed by the lifecycle methods and are not editable here.
func (s *TaskService) UpdateTask(userID, id string, in UpdateTaskInput) (storage.Task, error) {
	task, err := s.store.GetTask(userID, id)
	if err != nil {
		return storage.Task{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return storage.Task{}, validationErrorf("title", "title cannot be empty")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		ok, err := s.cats.Valid(userID, *in.Category)
		if err != nil {
			return storage.Task{}, fmt.Errorf("checking category: %w", err)
		}
		if !ok {
			return storage.Task{}, validationErrorf("category", "unknown category %q", *in.Category)
		}
		task.Category = *in.Category
	}

	task.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTask(task); err != nil {
		return storage.Task{}, err
	}
	return task, nil
}

// StartTask moves a pending task to in_progress and stamps its start time.
// Restarting an in_progress task keeps the original start time.
func (s *TaskService) StartTask(userID, id string) (storage.Task, error) {
	task, err := s.store.GetTask(userID, id)
	if err != nil {
		return storage.Task{}, err
	}
	if task.Status == storage.StatusCompleted || task.Status == storage.StatusCancelled {
		return storage.Task{}, validationErrorf("status", "cannot start a %s task", task.Status)
	}

	task.Status = storage.StatusInProgress
	if task.StartTime == nil {
		now := s.now().UTC()
		task.StartTime = &now
	}
	task.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTask(task); err != nil {
		return storage.Task{}, err
	}
	return task, nil
}

// CompleteTask finishes a task: it freezes the timestamps, computes the XP
// award, and credits the owner's profile in the same storage transaction.
// A task never started is treated as worked for the minimum minute.
func (s *TaskService) CompleteTask(userID, id string) (storage.Task, storage.Profile, error) {
	task, err := s.store.GetTask(userID, id)
	if err != nil {
		return storage.Task{}, storage.Profile{}, err
	}
	if task.Status == storage.StatusCompleted || task.Status == storage.StatusCancelled {
		return storage.Task{}, storage.Profile{}, validationErrorf("status", "cannot complete a %s task", task.Status)
	}

	now := s.now().UTC()
	start := now
	if task.StartTime != nil {
		start = *task.StartTime
	}
	end := now
	if end.Before(start) {
		// A clock skew or a start stamped in the future. Refuse rather
		// than award negative work.
		return storage.Task{}, storage.Profile{}, validationErrorf("start_time", "start time %s is after completion time", start.Format(time.RFC3339))
	}

	award, err := xp.CalculateXP(start, end, task.DifficultyFactor)
	if err != nil {
		return storage.Task{}, storage.Profile{}, validationErrorf("", "%v", err)
	}

	task.Status = storage.StatusCompleted
	task.StartTime = &start
	task.EndTime = &end
	task.XP = award
	task.UpdatedAt = now

	profile, err := s.store.CompleteTask(task)
	if err != nil {
		return storage.Task{}, storage.Profile{}, err
	}

	profile, err = s.refreshRank(profile)
	if err != nil {
		return storage.Task{}, storage.Profile{}, err
	}
	return task, profile, nil
}

// CancelTask moves a non-terminal task to cancelled. No XP is awarded.
func (s *TaskService) CancelTask(userID, id string) (storage.Task, error) {
	task, err := s.store.GetTask(userID, id)
	if err != nil {
		return storage.Task{}, err
	}
	if task.Status == storage.StatusCompleted || task.Status == storage.StatusCancelled {
		return storage.Task{}, validationErrorf("status", "cannot cancel a %s task", task.Status)
	}

	task.Status = storage.StatusCancelled
	task.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTask(task); err != nil {
		return storage.Task{}, err
	}
	return task, nil
}

// GetTask fetches one task owned by the user.
func (s *TaskService) GetTask(userID, id string) (storage.Task, error) {
	return s.store.GetTask(userID, id)
}

// ListTasks returns the user's tasks, optionally filtered by status.
func (s *TaskService) ListTasks(userID, status string) ([]storage.Task, error) {
	switch status {
	case "", storage.StatusPending, storage.StatusInProgress, storage.StatusCompleted, storage.StatusCancelled:
	default:
		return nil, validationErrorf("status", "unknown status %q", status)
	}
	return s.store.ListTasks(userID, status)
}

// DeleteTask removes a task owned by the user. Earned XP stays credited.
func (s *TaskService) DeleteTask(userID, id string) error {
	return s.store.DeleteTask(userID, id)
}

// Profile returns the user's profile with its rank label refreshed from the
// current XP total.
func (s *TaskService) Profile(userID string) (storage.Profile, error) {
	profile, err := s.store.GetProfile(userID)
	if err != nil {
		return storage.Profile{}, err
	}
	return s.refreshRank(profile)
}

// UpdateProfileInput carries the editable profile fields. Nil pointers leave
// the current value untouched.
type UpdateProfileInput struct {
	Name          *string
	AvatarURL     *string
	AIPersonality *string
}

// UpdateProfile edits the display fields of a profile. XP and rank are
// derived state and cannot be set directly.
func (s *TaskService) UpdateProfile(userID string, in UpdateProfileInput) (storage.Profile, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return storage.Profile{}, validationErrorf("name", "name cannot be empty")
	}
	if in.AIPersonality != nil && !king.ValidPersonality(king.Personality(*in.AIPersonality)) {
		return storage.Profile{}, validationErrorf("ai_personality", "unknown personality %q", *in.AIPersonality)
	}
	if err := s.store.UpdateProfileFields(userID, in.Name, in.AvatarURL, in.AIPersonality); err != nil {
		return storage.Profile{}, err
	}
	return s.Profile(userID)
}

// refreshRank recomputes the rank label from TotalXP and persists it when it
// drifted, so a profile read always shows the rank its XP implies.
func (s *TaskService) refreshRank(p storage.Profile) (storage.Profile, error) {
	tier := rank.ForXP(p.TotalXP)
	if p.Rank == tier.Name {
		return p, nil
	}
	if err := s.store.SetRank(p.ID, tier.Name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storage.Profile{}, fmt.Errorf("refreshing rank: %w", err)
	}
	p.Rank = tier.Name
	return p, nil
}

// Stats is the aggregate progression snapshot for a user.
type Stats struct {
	TotalXP           int           `json:"total_xp"`
	Rank              rank.Progress `json:"rank"`
	CompletedToday    int           `json:"completed_today"`
	CompletedThisWeek int           `json:"completed_this_week"`
	CompletedTotal    int           `json:"completed_total"`
	OpenTasks         int           `json:"open_tasks"`
	Throne            ThroneStatus  `json:"throne"`
}

// Stats aggregates the user's progression counters and the throne gate.
func (s *TaskService) Stats(userID string) (Stats, error) {
	profile, err := s.Profile(userID)
	if err != nil {
		return Stats{}, err
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -int((now.Weekday()+6)%7)) // Monday

	today, err := s.store.CountCompletedSince(userID, dayStart)
	if err != nil {
		return Stats{}, fmt.Errorf("counting today's completions: %w", err)
	}
	week, err := s.store.CountCompletedSince(userID, weekStart)
	if err != nil {
		return Stats{}, fmt.Errorf("counting this week's completions: %w", err)
	}
	total, err := s.store.CountTasks(userID, storage.StatusCompleted)
	if err != nil {
		return Stats{}, fmt.Errorf("counting completions: %w", err)
	}
	open, err := s.store.CountOpenTasks(userID)
	if err != nil {
		return Stats{}, fmt.Errorf("counting open tasks: %w", err)
	}

	return Stats{
		TotalXP:           profile.TotalXP,
		Rank:              rank.ProgressToNext(profile.TotalXP),
		CompletedToday:    today,
		CompletedThisWeek: week,
		CompletedTotal:    total,
		OpenTasks:         open,
		Throne:            ThroneStatusFor(total),
	}, nil
}

// CompletedToday counts the user's completions since midnight UTC. Used by
// the motivation short-circuit.
func (s *TaskService) CompletedToday(userID string) (int, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.store.CountCompletedSince(userID, dayStart)
}
