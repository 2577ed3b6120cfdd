package mockserver

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BasePath is where Router mounts the API.
const BasePath = "/api/v1"

// Routes returns a subrouter with every endpoint of the contract. It is
// meant to be mounted under BasePath.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", h.login)
	r.Post("/auth/register", h.register)
	r.Post("/auth/logout", h.logout)

	r.Group(func(pr chi.Router) {
		pr.Use(h.RequireSession)

		pr.Get("/user/me", h.getProfile)
		pr.Patch("/user/me", h.patchProfile)
		pr.Delete("/user/me", h.deleteProfile)

		pr.Post("/list/create", h.createList)
		pr.Put("/list/acl", h.addCollaborator)
		pr.Delete("/list/acl", h.removeCollaborator)
		pr.Get("/list/{id}", h.getList)
		pr.Patch("/list/{id}", h.patchList)
		pr.Delete("/list/{id}", h.deleteList)
		pr.Post("/list/{id}/leave", h.leaveList)

		pr.Post("/item/create", h.createItem)
		pr.Get("/item/{id}", h.getItem)
		pr.Patch("/item/{id}", h.patchItem)
		pr.Delete("/item/{id}", h.deleteItem)
	})

	return r
}

// Router is the full server: access log and recovery middleware plus Routes
// under BasePath.
func Router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(AccessLog(h.Log))
	r.Use(middleware.Recoverer)
	r.Mount(BasePath, Routes(h))
	return r
}

// AccessLog logs one line per request with its status and duration.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			log.Info("handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", m.Code),
				zap.Int64("bytes", m.Written),
				zap.Duration("duration", m.Duration),
			)
		})
	}
}
