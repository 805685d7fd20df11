package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/todo-backend/internal/model"
)

// TaskRepository is where ownership enforcement lives: every single-row
// query conjoins the task id with the owner id, so a task that exists but
// belongs to someone else is indistinguishable from one that does not exist.
type TaskRepository struct {
	db *Database
}

func NewTaskRepository(db *Database) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task owned by ownerID. The owner always comes from the
// authenticated subject; the request carries no owner field.
func (r *TaskRepository) Create(ctx context.Context, req *model.CreateTaskRequest, ownerID int64) (*model.Task, error) {
	status := req.Status
	if status == "" {
		status = model.TaskStatusPending
	}

	var task model.Task
	query := `
		INSERT INTO tasks (title, description, status, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, description, status, owner_id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, req.Title, req.Description, status, ownerID).
		StructScan(&task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return &task, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id, ownerID int64) (*model.Task, error) {
	var task model.Task
	query := `
		SELECT id, title, description, status, owner_id, created_at, updated_at
		FROM tasks WHERE id = $1 AND owner_id = $2
	`
	err := r.db.GetContext(ctx, &task, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) FindAll(ctx context.Context, ownerID int64) ([]model.Task, error) {
	tasks := []model.Task{}
	query := `
		SELECT id, title, description, status, owner_id, created_at, updated_at
		FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC
	`
	err := r.db.SelectContext(ctx, &tasks, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// Update applies the non-nil fields of req to the task. Both the read and
// the write are owner-conjoined; created_at and owner_id are never touched.
func (r *TaskRepository) Update(ctx context.Context, id, ownerID int64, req *model.UpdateTaskRequest) (*model.Task, error) {
	task, err := r.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}

	query := `
		UPDATE tasks SET title = $1, description = $2, status = $3, updated_at = $4
		WHERE id = $5 AND owner_id = $6
		RETURNING id, title, description, status, owner_id, created_at, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query, task.Title, task.Description, task.Status, time.Now(), id, ownerID).
		StructScan(task)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Delete removes the task when it belongs to ownerID. Deleting a missing or
// foreign task reports model.ErrNotFound, so repeated deletes are idempotent
// in effect.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID int64) error {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}

	return nil
}

// DeleteCompletedBefore purges completed tasks older than cutoff across all
// owners. Used by the retention sweeper, never reachable from the API.
func (r *TaskRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM tasks WHERE status = $1 AND updated_at < $2`
	result, err := r.db.ExecContext(ctx, query, model.TaskStatusCompleted, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge completed tasks: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge completed tasks: %w", err)
	}
	return rows, nil
}
