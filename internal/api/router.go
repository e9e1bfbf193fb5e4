package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

type RouterConfig struct {
	Manager  *appointment.Manager
	Patients *registry.Patients
	Doctors  *registry.Doctors
	Checks   []DependencyCheck
	Logger   *logrus.Logger
	Env      string
	Version  string
	Now      func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	mgr, log, now := cfg.Manager, cfg.Logger, cfg.Now

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", createPatientHandler(cfg.Patients, log, now))
		r.Get("/", listPatientsHandler(cfg.Patients, log, now))
		r.Get("/{id}", getPatientHandler(cfg.Patients, log, now))
		r.Put("/{id}", updatePatientHandler(cfg.Patients, log, now))
		r.Delete("/{id}", deletePatientHandler(cfg.Patients, log))
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", createDoctorHandler(cfg.Doctors, log))
		r.Get("/", listDoctorsHandler(cfg.Doctors, log))
		r.Get("/specializations", specializationsHandler(cfg.Doctors))
		r.Get("/{id}", getDoctorHandler(cfg.Doctors, log))
		r.Put("/{id}", updateDoctorHandler(cfg.Doctors, log))
		r.Delete("/{id}", deleteDoctorHandler(cfg.Doctors, log))
		r.Put("/{id}/availability", setAvailabilityHandler(cfg.Doctors, log))
		r.Get("/{id}/slots", doctorSlotsHandler(mgr, log))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(mgr, log))
		r.Get("/", listAppointmentsHandler(mgr, log))
		r.Get("/regular", regularAppointmentsHandler(mgr))
		r.Get("/completed", completedAppointmentsHandler(mgr))
		r.Get("/{id}", getAppointmentHandler(mgr, log))
		r.Patch("/{id}", updateAppointmentHandler(mgr, log))
		r.Delete("/{id}", deleteAppointmentHandler(mgr, log))

		r.Post("/{id}/confirm", transitionHandler(mgr, log, mgr.Confirm))
		r.Post("/{id}/start", transitionHandler(mgr, log, mgr.MarkInProgress))
		r.Post("/{id}/complete", transitionHandler(mgr, log, mgr.MarkCompleted))
		r.Post("/{id}/cancel", transitionHandler(mgr, log, mgr.Cancel))
		r.Post("/{id}/no-show", transitionHandler(mgr, log, mgr.MarkNoShow))
		r.Post("/{id}/finish", finishAppointmentHandler(mgr, log))

		r.Post("/{id}/walk-in", addWalkInHandler(mgr, log))
		r.Delete("/{id}/walk-in", removeWalkInHandler(mgr, log))
	})

	r.Get("/queue", viewQueueHandler(mgr))
	r.Post("/queue/next", processNextHandler(mgr, log, func(r *http.Request) (appointment.Appointment, error) {
		return mgr.ProcessNextInQueue(r.Context())
	}))
	r.Get("/walk-ins", viewWalkInsHandler(mgr))
	r.Post("/walk-ins/next", processNextHandler(mgr, log, func(r *http.Request) (appointment.Appointment, error) {
		return mgr.ProcessNextWalkIn(r.Context())
	}))

	r.Get("/undo", undoStatusHandler(mgr))
	r.Post("/undo", undoHandler(mgr, log))

	r.Get("/stats/daily", dailyStatsHandler(mgr, log, now))
	r.Get("/stats/history", historyHandler(mgr, log))
	r.Get("/stats/summary", summaryHandler(mgr, cfg.Patients, cfg.Doctors))

	return r
}
