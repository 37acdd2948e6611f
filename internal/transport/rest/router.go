package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/audit"
	"github.com/frahmantamala/document-repository/internal/auth"
	userDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/user"
	"github.com/frahmantamala/document-repository/internal/document"
	"github.com/frahmantamala/document-repository/internal/transport/middleware"
	"github.com/frahmantamala/document-repository/internal/transport/swagger"
	"github.com/frahmantamala/document-repository/internal/user"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, auditHandler *audit.Handler, documentHandler *document.Handler, maxUploadBytes int64, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	if maxUploadBytes <= 0 {
		maxUploadBytes = internal.DefaultMaxUploadBytes
	}

	// Apply global middleware. The body cap runs before logging so no request,
	// JSON or multipart, is ever buffered past the upload ceiling.
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.MaxBodyBytes(maxUploadBytes))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.NoCache)

	// Serve OpenAPI spec and Swagger UI at root
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	// Public auth routes
	router.Post("/login", authHandler.Login)
	router.Post("/solicitar-reseteo", authHandler.RequestReset)
	router.Post("/resetear-clave/{token}", authHandler.ResetPassword)

	// Authenticated routes
	router.Group(func(pr chi.Router) {
		pr.Use(authHandler.SessionMiddleware)

		pr.Get("/logout", authHandler.Logout)
		// Reachable while a password change is still pending
		pr.Post("/cambiar_clave", authHandler.ChangePassword)

		pr.Group(func(sr chi.Router) {
			sr.Use(authHandler.RequirePasswordChanged)

			// Repository views, open to every active role
			sr.Route("/repositorio", func(rr chi.Router) {
				rr.Get("/panel", documentHandler.ListAreas)
				rr.Get("/area/{id}", documentHandler.AreaDocuments)
				rr.Get("/documento/{id}/ver", documentHandler.ViewDocument)
				rr.Get("/documento/{id}/descargar", documentHandler.DownloadDocument)
			})

			// Admin console
			sr.Route("/admin", func(ar chi.Router) {
				ar.Use(middleware.RequireRoles(logger, userDatamodel.RoleAdmin))

				ar.Get("/panel", userHandler.ListUsers)
				ar.Post("/crear_usuario", userHandler.CreateUser)
				ar.Post("/vincular_usuario", userHandler.LinkIdentity)
				ar.Get("/editar_usuario/{id}", userHandler.GetUser)
				ar.Post("/editar_usuario/{id}", userHandler.EditUser)
				ar.Post("/toggle_activo/{id}", userHandler.ToggleActive)

				ar.Get("/ver_logs", auditHandler.ListLogs)

				ar.Get("/areas", documentHandler.ListAreas)
				ar.Post("/area/crear", documentHandler.CreateArea)
				ar.Post("/area/editar/{id}", documentHandler.EditArea)
				ar.Post("/area/eliminar/{id}", documentHandler.DeleteArea)
				ar.Get("/area/{id}/documentos", documentHandler.AreaDocuments)
				ar.Post("/documento/eliminar/{id}", documentHandler.DeleteDocument)

				// Multipart endpoints sit under the same global body cap;
				// the payload is the bulk of the request
				ar.Post("/area/{id}/documentos", documentHandler.UploadDocument)
				ar.Post("/documento/editar/{id}", documentHandler.EditDocument)
			})
		})
	})
}
