package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Task statuses. Completed and cancelled are terminal.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// User is an account row. Profile data lives separately in profiles.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is per-user progression state. Rank is a cached label derived from
// TotalXP; it is refreshed lazily when the profile is read.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatar_url"`
	Rank          string    `json:"rank"`
	TotalXP       int       `json:"total_xp"`
	AIPersonality string    `json:"ai_personality"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Task is one unit of trackable work. XP stays 0 until completion and is
// frozen once set.
type Task struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	TaskType         string     `json:"task_type"` // "main" or "side"
	DifficultyFactor float64    `json:"difficulty_factor"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	XP               int        `json:"xp"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CustomCategory is a user-defined category beyond the built-in four.
type CustomCategory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Interaction is one durable turn of an AI exchange, kept for display
// replay. The agent's in-memory window is authoritative for prompting and
// may diverge from this log across restarts.
type Interaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"` // chat, quests, motivation, analysis, parse_task
	Role      string    `json:"role"` // user | assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
