package api

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/todo-backend/internal/middleware"
)

// NewRouter creates a new HTTP router with all routes
func NewRouter(h *Handler, auth *middleware.AuthMiddleware, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Public routes
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /health", h.Health)

	// Protected routes: authentication happens once, at entry, before any
	// resource work begins.
	mux.Handle("GET /auth/me", auth.Authenticate(http.HandlerFunc(h.Me)))

	mux.Handle("/tasks", auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateTask(w, r)
		case http.MethodGet:
			h.GetTasks(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/tasks/{id}", auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetTask(w, r)
		case http.MethodPut:
			h.UpdateTask(w, r)
		case http.MethodDelete:
			h.DeleteTask(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Apply global middleware
	handler := middleware.RequestID(middleware.Logger(log, middleware.CORS(middleware.JSON(mux))))

	return handler
}
