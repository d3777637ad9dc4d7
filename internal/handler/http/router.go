package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Attendance   AttendanceHandler
	Correction   CorrectionHandler
	Settings     SettingsHandler
	Payroll      PayrollHandler
	Notification NotificationHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	LogLevel       slog.Level
}

// NewLogger builds the JSON request logger in the ECS schema.
func NewLogger(level slog.Level, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance-payroll"),
		slog.String("env", env),
	)
}

func NewRouter(cfg RouterConfig, logger *slog.Logger, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// EventSource cannot send headers; the stream authenticates with a query token.
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/notifications", func(r chi.Router) {
				r.Use(middleware.RequireEmployee)
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Get("/stream-token", h.Notification.GetStreamToken)
				r.Post("/read", h.Notification.MarkRead)
				r.Post("/read-all", h.Notification.MarkAllRead)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Post("/check-in", h.Attendance.CheckIn)
					r.Post("/check-out", h.Attendance.CheckOut)
					r.Get("/today", h.Attendance.Today)
				})

				r.Get("/", h.Attendance.List)
				r.Get("/stats", h.Attendance.Stats)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionReportsView))
					r.Get("/report/daily", h.Attendance.DailyReport)
					r.Get("/export", h.Attendance.Export)
				})

				r.Route("/corrections", func(r chi.Router) {
					r.Post("/", h.Correction.Create)
					r.Get("/", h.Correction.List)
					r.Get("/{id}", h.Correction.Get)
					r.Post("/{id}/cancel", h.Correction.Cancel)
					r.With(middleware.RequirePermission(user.PermissionAttendanceApprove)).
						Post("/{id}/review", h.Correction.Review)
				})

				r.Route("/settings", func(r chi.Router) {
					r.Get("/", h.Settings.Get)
					r.With(middleware.RequirePermission(user.PermissionSettingsManage)).
						Put("/", h.Settings.Update)
				})

				r.Get("/{id}", h.Attendance.Get)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceManage))
					r.Post("/manual", h.Attendance.ManualEntry)
					r.Put("/{id}", h.Attendance.Update)
					r.Delete("/{id}", h.Attendance.Delete)
				})
			})

			r.Route("/salaries", func(r chi.Router) {
				r.Get("/", h.Payroll.ListSalaries)
				r.Get("/summary", h.Payroll.GetSalarySummary)
				r.Get("/{id}", h.Payroll.GetSalary)
				r.Post("/{id}/acknowledge", h.Payroll.AcknowledgeSalary)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollManage))
					r.Post("/", h.Payroll.CreateSalary)
					r.Post("/generate", h.Payroll.GenerateMonthly)
					r.Get("/statistics", h.Payroll.GetSalaryStatistics)
					r.Get("/export", h.Payroll.ExportSalaries)
					r.Put("/{id}", h.Payroll.UpdateSalary)
					r.Delete("/{id}", h.Payroll.DeleteSalary)
					r.Post("/{id}/lock", h.Payroll.LockSalary)
				})
			})
		})
	})

	return r
}
