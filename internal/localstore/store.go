// Package localstore is the single-user JSON file storage behind the todo
// CLI. It predates the server and shares nothing with it: no accounts, no
// auth, one flat file.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/todo-backend/internal/model"
)

// Item is a CLI task. Simpler than the server's Task on purpose: a single
// description and a done flag.
type Item struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type fileLayout struct {
	NextID int64  `json:"next_id"`
	Tasks  []Item `json:"tasks"`
}

// Store reads and writes the task file. Not safe for concurrent use; the CLI
// is a single short-lived process.
type Store struct {
	path   string
	nextID int64
	items  []Item
}

// DefaultPath returns ~/.todo-cli/tasks.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".todo-cli", "tasks.json"), nil
}

// Open loads the task file at path, starting empty when it does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, nextID: 1}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse task file: %w", err)
	}

	s.items = layout.Tasks
	s.nextID = layout.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	return s, nil
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(fileLayout{NextID: s.nextID, Tasks: s.items}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write task file: %w", err)
	}
	return nil
}

// Add appends a new pending item and persists the file.
func (s *Store) Add(description string) (Item, error) {
	if description == "" {
		return Item{}, fmt.Errorf("%w: description is required", model.ErrInvalidInput)
	}

	item := Item{
		ID:          s.nextID,
		Description: description,
		CreatedAt:   time.Now(),
	}
	s.items = append(s.items, item)
	s.nextID++

	if err := s.save(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// List returns items, excluding completed ones unless all is set.
func (s *Store) List(all bool) []Item {
	if all {
		out := make([]Item, len(s.items))
		copy(out, s.items)
		return out
	}

	var out []Item
	for _, item := range s.items {
		if !item.Completed {
			out = append(out, item)
		}
	}
	return out
}

// Complete marks an item done. Completing an already-done item is a no-op
// success.
func (s *Store) Complete(id int64) (Item, error) {
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if !s.items[i].Completed {
			now := time.Now()
			s.items[i].Completed = true
			s.items[i].CompletedAt = &now
			if err := s.save(); err != nil {
				return Item{}, err
			}
		}
		return s.items[i], nil
	}
	return Item{}, model.ErrNotFound
}

// Remove deletes an item by id.
func (s *Store) Remove(id int64) error {
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		return s.save()
	}
	return model.ErrNotFound
}
