package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/todo-backend/internal/middleware"
	"github.com/todo-backend/internal/model"
)

// UserStore is the persistence surface handlers need for accounts.
// Implemented by storage.UserRepository.
type UserStore interface {
	Create(ctx context.Context, email, password string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	ValidatePassword(user *model.User, password string) bool
}

// TaskStore is the persistence surface handlers need for tasks. Every
// single-row operation takes the owner id so the lookup and the ownership
// check happen in one query. Implemented by storage.TaskRepository.
type TaskStore interface {
	Create(ctx context.Context, req *model.CreateTaskRequest, ownerID int64) (*model.Task, error)
	FindByID(ctx context.Context, id, ownerID int64) (*model.Task, error)
	FindAll(ctx context.Context, ownerID int64) ([]model.Task, error)
	Update(ctx context.Context, id, ownerID int64, req *model.UpdateTaskRequest) (*model.Task, error)
	Delete(ctx context.Context, id, ownerID int64) error
}

// TokenIssuer signs tokens for authenticated users.
// Implemented by middleware.AuthMiddleware.
type TokenIssuer interface {
	GenerateToken(user *model.User) (string, int64, error)
}

// Pinger reports datastore liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains all API handlers
type Handler struct {
	users  UserStore
	tasks  TaskStore
	issuer TokenIssuer
	db     Pinger
}

// NewHandler creates a new API handler
func NewHandler(users UserStore, tasks TaskStore, issuer TokenIssuer, db Pinger) *Handler {
	return &Handler{
		users:  users,
		tasks:  tasks,
		issuer: issuer,
		db:     db,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Auth handlers

// Register godoc
// @Summary Register a new user
// @Description Create a new user account with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration details"
// @Success 201 {object} model.PublicUser
// @Failure 400 {object} map[string]string "Email already registered"
// @Failure 422 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	req.Email = model.NormalizeEmail(req.Email)

	if !isValidEmail(req.Email) {
		respondError(w, http.StatusUnprocessableEntity, "invalid email format")
		return
	}
	// Limits count characters, not bytes.
	if n := utf8.RuneCountInString(req.Password); n < 8 || n > 128 {
		respondError(w, http.StatusUnprocessableEntity, "password must be between 8 and 128 characters")
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			respondError(w, http.StatusBadRequest, "email already registered")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, user.Public())
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login credentials"
// @Success 200 {object} model.TokenResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 422 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	req.Email = model.NormalizeEmail(req.Email)

	// A missing account and a wrong password produce the identical
	// response, so registered emails cannot be enumerated.
	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil || !h.users.ValidatePassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresIn, err := h.issuer.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}

// Me godoc
// @Summary Get current user
// @Description Get the authenticated user's public profile
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.PublicUser
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.FindByID(r.Context(), subjectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	respondJSON(w, http.StatusOK, user.Public())
}

// Task handlers

// CreateTask godoc
// @Summary Create a new task
// @Description Create a task owned by the authenticated user
// @Tags Tasks
// @Accept json
// @Produce json
// @Param request body model.CreateTaskRequest true "Task fields"
// @Success 201 {object} model.Task
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if msg, ok := validateCreateTask(&req); !ok {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	task, err := h.tasks.Create(r.Context(), &req, subjectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTasks godoc
// @Summary List tasks
// @Description List all tasks owned by the authenticated user, newest first
// @Tags Tasks
// @Produce json
// @Success 200 {object} model.TaskListResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /tasks [get]
func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tasks, err := h.tasks.FindAll(r.Context(), subjectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	respondJSON(w, http.StatusOK, model.TaskListResponse{Tasks: tasks})
}

// GetTask godoc
// @Summary Get a task
// @Description Get a single task by id, if owned by the authenticated user
// @Tags Tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} model.Task
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := taskIDFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	task, err := h.tasks.FindByID(r.Context(), id, subjectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Partially update a task owned by the authenticated user
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body model.UpdateTaskRequest true "Fields to update"
// @Success 200 {object} model.Task
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Task not found"
// @Failure 422 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := taskIDFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	var req model.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if msg, ok := validateUpdateTask(&req); !ok {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, subjectID, &req)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Delete a task owned by the authenticated user
// @Tags Tasks
// @Param id path int true "Task ID"
// @Success 204 "Deleted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := taskIDFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.Delete(r.Context(), id, subjectID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health godoc
// @Summary Health check
// @Description Check if the API and its database are reachable
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			dbStatus = "unreachable"
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"database": dbStatus,
	})
}

// Validation helpers

func validateCreateTask(req *model.CreateTaskRequest) (string, bool) {
	if n := utf8.RuneCountInString(req.Title); n < 1 || n > 200 {
		return "title must be between 1 and 200 characters", false
	}
	if utf8.RuneCountInString(req.Description) > 2000 {
		return "description must be at most 2000 characters", false
	}
	if req.Status != "" && !req.Status.Valid() {
		return "status must be one of pending, in_progress, completed", false
	}
	return "", true
}

func validateUpdateTask(req *model.UpdateTaskRequest) (string, bool) {
	if req.Title != nil {
		if n := utf8.RuneCountInString(*req.Title); n < 1 || n > 200 {
			return "title must be between 1 and 200 characters", false
		}
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > 2000 {
		return "description must be at most 2000 characters", false
	}
	if req.Status != nil && !req.Status.Valid() {
		return "status must be one of pending, in_progress, completed", false
	}
	return "", true
}

func taskIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// isValidEmail performs a basic email validation
func isValidEmail(email string) bool {
	// Basic email validation: contains @ and has text on both sides
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return false
	}
	// Check domain has at least one dot
	if !strings.Contains(parts[1], ".") {
		return false
	}
	return true
}
