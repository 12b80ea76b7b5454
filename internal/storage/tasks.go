package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const taskColumns = `id, user_id, title, description, category, task_type, difficulty_factor,
	start_time, end_time, xp, status, created_at, updated_at`

func scanTask(scan func(dest ...any) error) (Task, error) {
	var t Task
	var startTime, endTime sql.NullString
	var createdAt, updatedAt string
	err := scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category, &t.TaskType,
		&t.DifficultyFactor, &startTime, &endTime, &t.XP, &t.Status, &createdAt, &updatedAt)
	if err != nil {
		return Task{}, err
	}
	if t.StartTime, err = parseNullableTime(startTime); err != nil {
		return Task{}, err
	}
	if t.EndTime, err = parseNullableTime(endTime); err != nil {
		return Task{}, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Task{}, err
	}
	return t, nil
}

// CreateTask inserts a new task row.
func (s *Store) CreateTask(t Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, t.Category, t.TaskType, t.DifficultyFactor,
		formatNullableTime(t.StartTime), formatNullableTime(t.EndTime),
		t.XP, t.Status, formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	return err
}

// GetTask fetches a task owned by userID.
func (s *Store) GetTask(userID, id string) (Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return Task{}, ErrNotFound
	}
	return t, err
}

// ListTasks returns the user's tasks, newest first. An empty status returns
// all statuses.
func (s *Store) ListTasks(userID, status string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTask rewrites the mutable fields of a task row.
func (s *Store) UpdateTask(t Task) error {
	res, err := s.db.Exec(`
		UPDATE tasks SET title = ?, description = ?, category = ?, status = ?,
			start_time = ?, end_time = ?, xp = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		t.Title, t.Description, t.Category, t.Status,
		formatNullableTime(t.StartTime), formatNullableTime(t.EndTime),
		t.XP, formatTime(t.UpdatedAt), t.UserID, t.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task owned by userID.
func (s *Store) DeleteTask(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteTask marks a task completed and credits its XP to the owner's
// profile in one transaction, so a crash can never leave the profile
// under-credited for a completed task. The task's status, end time, and xp
// must already be set on t by the caller. Returns the updated profile.
func (s *Store) CompleteTask(t Task) (Profile, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Profile{}, fmt.Errorf("beginning completion transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	res, err := tx.Exec(`
		UPDATE tasks SET status = ?, start_time = ?, end_time = ?, xp = ?, updated_at = ?
		WHERE user_id = ? AND id = ? AND status NOT IN (?, ?)`,
		StatusCompleted, formatNullableTime(t.StartTime), formatNullableTime(t.EndTime),
		t.XP, now, t.UserID, t.ID, StatusCompleted, StatusCancelled,
	)
	if err != nil {
		return Profile{}, fmt.Errorf("updating task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Profile{}, err
	}
	if n == 0 {
		return Profile{}, ErrNotFound
	}

	if _, err := tx.Exec(`UPDATE profiles SET total_xp = total_xp + ?, updated_at = ? WHERE id = ?`,
		t.XP, now, t.UserID); err != nil {
		return Profile{}, fmt.Errorf("crediting profile XP: %w", err)
	}

	var p Profile
	var createdAt, updatedAt string
	err = tx.QueryRow(`
		SELECT id, name, avatar_url, rank, total_xp, ai_personality, created_at, updated_at
		FROM profiles WHERE id = ?`, t.UserID,
	).Scan(&p.ID, &p.Name, &p.AvatarURL, &p.Rank, &p.TotalXP, &p.AIPersonality, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Profile{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, fmt.Errorf("committing completion: %w", err)
	}
	return p, nil
}

// CountTasks counts the user's tasks with the given status.
func (s *Store) CountTasks(userID, status string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND status = ?`,
		userID, status).Scan(&n)
	return n, err
}

// CountOpenTasks counts tasks that are neither completed nor cancelled.
func (s *Store) CountOpenTasks(userID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE user_id = ? AND status IN (?, ?)`,
		userID, StatusPending, StatusInProgress).Scan(&n)
	return n, err
}

// CountCompletedSince counts completions whose end time is at or after since.
func (s *Store) CountCompletedSince(userID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tasks
		WHERE user_id = ? AND status = ? AND end_time >= ?`,
		userID, StatusCompleted, formatTime(since)).Scan(&n)
	return n, err
}

// ListRecentCompleted returns the most recently completed tasks, newest
// completion first.
func (s *Store) ListRecentCompleted(userID string, limit int) ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND status = ?
		ORDER BY end_time DESC, rowid DESC LIMIT ?`,
		userID, StatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LastCompletedTask returns the most recently completed task, or ErrNotFound.
func (s *Store) LastCompletedTask(userID string) (Task, error) {
	tasks, err := s.ListRecentCompleted(userID, 1)
	if err != nil {
		return Task{}, err
	}
	if len(tasks) == 0 {
		return Task{}, ErrNotFound
	}
	return tasks[0], nil
}
