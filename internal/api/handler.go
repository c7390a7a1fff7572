package api

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/auth"
	"github.com/arihooper/Pharmfind/internal/store"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// Options carries the tunables the handlers need from configuration.
type Options struct {
	AllowedOrigins    []string
	DefaultRadiusKm   float64
	MaxRadiusKm       float64
	LowStockThreshold int64
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	auth     *auth.Service
	validate *validator.Validate
	logger   *slog.Logger
	opts     Options
}

// New constructs a Handler.
func New(st *store.Store, authSvc *auth.Service, logger *slog.Logger, opts Options) *Handler {
	return &Handler{
		store:    st,
		auth:     authSvc,
		validate: newValidator(),
		logger:   logger,
		opts:     opts,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
		})

		r.Route("/medicines", func(r chi.Router) {
			r.Get("/search", h.searchMedicines)
			r.Get("/", h.listMedicines)
			r.Get("/{id}", h.getMedicine)
			r.With(h.authenticate, h.requireRole(domain.RolePharmacist, domain.RoleAdmin)).
				Post("/", h.createMedicine)
		})

		r.Route("/pharmacies", func(r chi.Router) {
			r.Get("/", h.listPharmacies)
			r.Get("/{id}", h.getPharmacy)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.authenticate)

			pr.Route("/user", func(r chi.Router) {
				r.Get("/profile", h.getProfile)
				r.Put("/profile", h.updateProfile)
				r.Put("/password", h.changePassword)
			})

			pr.Route("/pharmacy", func(r chi.Router) {
				r.With(h.requireRole(domain.RolePharmacist, domain.RoleAdmin)).Post("/", h.createPharmacy)
				r.Get("/", h.getOwnPharmacy)
				r.Put("/", h.updatePharmacy)
				r.Get("/stats", h.pharmacyStats)
				r.Put("/inventory", h.upsertInventory)
			})
		})
	})

	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "PharmaFind API",
		"version": Version,
		"endpoints": map[string]string{
			"health":     "GET /api/health",
			"register":   "POST /api/auth/register",
			"login":      "POST /api/auth/login",
			"search":     "GET /api/medicines/search?query=medicine_name",
			"medicines":  "GET /api/medicines",
			"pharmacies": "GET /api/pharmacies?lat=&lng=&radius=",
			"pharmacy":   "GET /api/pharmacies/:id",
			"profile":    "GET /api/user/profile (requires auth)",
			"inventory":  "PUT /api/pharmacy/inventory (requires auth)",
			"stats":      "GET /api/pharmacy/stats (requires auth)",
		},
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Health(r.Context())
	if err != nil {
		h.requestLog(r).Error("health check failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": info.Timestamp,
		"version":   info.Version,
	})
}

// newValidator reports field names by their JSON tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
