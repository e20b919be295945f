package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docspot/docspot-api/internal/booking"
	"github.com/docspot/docspot-api/internal/consultation"
	"github.com/docspot/docspot-api/internal/doctors"
	httpmiddleware "github.com/docspot/docspot-api/internal/http/middleware"
	"github.com/docspot/docspot-api/internal/patients"
	"github.com/docspot/docspot-api/internal/session"
	"github.com/docspot/docspot-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	DoctorsHandler      *doctors.Handler
	PatientsHandler     *patients.Handler
	BookingHandler      *booking.Handler
	AuthHandler         *session.Handler
	ConsultationHandler *consultation.Handler

	TokenIssuer  *session.TokenIssuer
	SessionStore *session.Store

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// LoginRatePerSecond and LoginBurst throttle the login endpoints per IP.
	// Zero values disable the limiter.
	LoginRatePerSecond float64
	LoginBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	authed := httpmiddleware.SessionAuth(cfg.TokenIssuer, cfg.SessionStore)
	adminOnly := httpmiddleware.RequireRole(session.RoleAdmin)
	doctorParam := func(r *http.Request) string { return chi.URLParam(r, "doctorID") }
	patientParam := func(r *http.Request) string { return chi.URLParam(r, "patientID") }

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
		}

		public.Group(func(login chi.Router) {
			if cfg.LoginRatePerSecond > 0 && cfg.LoginBurst > 0 {
				login.Use(httpmiddleware.RateLimit(cfg.LoginRatePerSecond, cfg.LoginBurst))
			}
			login.Post("/auth/login", cfg.AuthHandler.Login)
			login.Post("/auth/admin/login", cfg.AuthHandler.AdminLogin)
			login.Post("/patients", cfg.PatientsHandler.Register)
		})

		// Doctor browsing and slot lookup happen before signup.
		public.Get("/doctors", cfg.DoctorsHandler.List)
		public.Get("/doctors/{doctorID}", cfg.DoctorsHandler.Get)
		public.Get("/doctors/{doctorID}/slots", cfg.DoctorsHandler.Slots)
	})

	// Endpoints for any logged-in user
	r.Group(func(user chi.Router) {
		user.Use(authed)

		user.Post("/auth/logout", cfg.AuthHandler.Logout)

		user.Route("/appointments", func(r chi.Router) {
			r.Get("/", cfg.BookingHandler.List)
			r.With(httpmiddleware.RequireRole(session.RolePatient, session.RoleAdmin)).
				Post("/", cfg.BookingHandler.Book)
			r.Post("/{appointmentID}/cancel", cfg.BookingHandler.Cancel)
			r.With(httpmiddleware.RequireRole(session.RoleDoctor, session.RoleAdmin)).
				Post("/{appointmentID}/complete", cfg.BookingHandler.Complete)
		})

		user.Get("/consultation/symptoms", cfg.ConsultationHandler.Symptoms)
		user.Get("/consultation/diagnosis", cfg.ConsultationHandler.Diagnosis)

		selfPatient := httpmiddleware.RequireSelfOrAdmin(patientParam)
		user.With(selfPatient).Get("/patients/{patientID}", cfg.PatientsHandler.Get)
		user.With(selfPatient).Put("/patients/{patientID}", cfg.PatientsHandler.Update)
		user.With(selfPatient).Delete("/patients/{patientID}", cfg.PatientsHandler.Delete)

		selfDoctor := httpmiddleware.RequireSelfOrAdmin(doctorParam)
		user.With(selfDoctor).Put("/doctors/{doctorID}", cfg.DoctorsHandler.Update)
		user.With(selfDoctor).Patch("/doctors/{doctorID}/status", cfg.DoctorsHandler.SetStatus)
		user.With(selfDoctor).Put("/doctors/{doctorID}/availability", cfg.DoctorsHandler.SetAvailability)
	})

	// Admin endpoints
	r.Group(func(admin chi.Router) {
		admin.Use(authed, adminOnly)

		admin.Post("/doctors", cfg.DoctorsHandler.Create)
		admin.Delete("/doctors/{doctorID}", cfg.DoctorsHandler.Delete)
		admin.Get("/patients", cfg.PatientsHandler.List)
		admin.Get("/admin/appointments", cfg.BookingHandler.Overview)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
