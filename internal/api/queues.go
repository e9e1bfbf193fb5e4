package api

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

func viewQueueHandler(mgr *appointment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, QueueResponse{
			Size:         mgr.QueueSize(),
			Appointments: toAppointmentResponses(mgr, mgr.ViewQueue()),
		})
	}
}

func viewWalkInsHandler(mgr *appointment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, QueueResponse{
			Size:         mgr.WalkInQueueSize(),
			Appointments: toAppointmentResponses(mgr, mgr.ViewWalkInQueue()),
		})
	}
}

type processFunc func(r *http.Request) (appointment.Appointment, error)

// processNextHandler starts the head of a queue. A stale head answers like
// an empty queue.
func processNextHandler(mgr *appointment.Manager, log *logrus.Logger, next processFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := next(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeDetail(w, r, log, mgr, http.StatusOK, appt.ID)
	}
}

func addWalkInHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if _, err := mgr.AddToWalkInQueue(r.Context(), id); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeDetail(w, r, log, mgr, http.StatusOK, id)
	}
}

func removeWalkInHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if err := mgr.RemoveFromWalkInQueue(r.Context(), id); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func undoStatusHandler(mgr *appointment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, UndoStatusResponse{
			CanUndo: mgr.CanUndo(),
			Depth:   mgr.UndoDepth(),
		})
	}
}

func undoHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := mgr.Undo(r.Context())
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, UndoResponse{
			Action:        string(action.Type),
			AppointmentID: action.AppointmentID,
			Depth:         mgr.UndoDepth(),
		})
	}
}

func dailyStatsHandler(mgr *appointment.Manager, log *logrus.Logger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := calendar.DateOf(now())
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := parseDate("date", raw)
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			date = d
		}
		writeJSON(w, http.StatusOK, DailyStatsResponse{
			Date:   calendar.FormatDate(date),
			Counts: mgr.DailyStatistics(date),
		})
	}
}

func summaryHandler(mgr *appointment.Manager, patients *registry.Patients, doctors *registry.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SummaryResponse{
			Patients:     patients.Count(),
			Doctors:      doctors.Count(),
			Appointments: mgr.Count(),
			Today:        mgr.TodayCount(),
			Queue:        mgr.QueueSize(),
			WalkIns:      mgr.WalkInQueueSize(),
		})
	}
}
