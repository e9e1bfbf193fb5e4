package api

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

func createAppointmentHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		date, err := parseDate("date", req.Date)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		start, err := parseClock("start_time", req.StartTime)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		end, err := parseClock("end_time", req.EndTime)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		appt, err := mgr.Schedule(r.Context(), appointment.ScheduleRequest{
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			Date:      date,
			Start:     start,
			End:       end,
			Reason:    req.Reason,
			WalkIn:    req.WalkIn,
		})
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		writeDetail(w, r, log, mgr, http.StatusCreated, appt.ID)
	}
}

// listAppointmentsHandler narrows with the most selective engine query
// available (date, doctor, patient, status) and applies the remaining
// filters on the result.
func listAppointmentsHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var keep []func(appointment.Appointment) bool

		doctorID, byDoctor, err := queryInt64(r, "doctor_id")
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		patientID, byPatient, err := queryInt64(r, "patient_id")
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		var status appointment.Status
		byStatus := q.Get("status") != ""
		if byStatus {
			if status, err = appointment.ParseStatus(q.Get("status")); err != nil {
				writeDomainError(w, r, log, badInput("%v", err))
				return
			}
		}

		var result []appointment.Appointment
		switch {
		case q.Get("date") != "":
			date, err := parseDate("date", q.Get("date"))
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			result = mgr.ByDate(date)
		case byDoctor:
			result = mgr.ByDoctor(doctorID)
			byDoctor = false
		case byPatient:
			result = mgr.ByPatient(patientID)
			byPatient = false
		case byStatus:
			result = mgr.ByStatus(status)
			byStatus = false
		default:
			result = mgr.All()
		}

		if byDoctor {
			keep = append(keep, func(a appointment.Appointment) bool { return a.DoctorID == doctorID })
		}
		if byPatient {
			keep = append(keep, func(a appointment.Appointment) bool { return a.PatientID == patientID })
		}
		if byStatus {
			keep = append(keep, func(a appointment.Appointment) bool { return a.Status == status })
		}

		filtered := result[:0]
	next:
		for _, a := range result {
			for _, ok := range keep {
				if !ok(a) {
					continue next
				}
			}
			filtered = append(filtered, a)
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(mgr, filtered))
	}
}

func regularAppointmentsHandler(mgr *appointment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toAppointmentResponses(mgr, mgr.Regular()))
	}
}

func completedAppointmentsHandler(mgr *appointment.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toAppointmentResponses(mgr, mgr.CompletedAppointments()))
	}
}

func getAppointmentHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeDetail(w, r, log, mgr, http.StatusOK, id)
	}
}

func updateAppointmentHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		var req UpdateAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		upd := appointment.UpdateRequest{Reason: req.Reason, Notes: req.Notes}
		if req.Date != nil {
			d, err := parseDate("date", *req.Date)
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			upd.Date = &d
		}
		if req.StartTime != nil {
			t, err := parseClock("start_time", *req.StartTime)
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			upd.Start = &t
		}
		if req.EndTime != nil {
			t, err := parseClock("end_time", *req.EndTime)
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			upd.End = &t
		}

		if _, err := mgr.Update(r.Context(), id, upd); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeDetail(w, r, log, mgr, http.StatusOK, id)
	}
}

type transitionFunc func(ctx context.Context, id int64) (appointment.Appointment, error)

// transitionHandler serves the POST /appointments/{id}/<verb> endpoints.
func transitionHandler(mgr *appointment.Manager, log *logrus.Logger, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if _, err := fn(r.Context(), id); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeDetail(w, r, log, mgr, http.StatusOK, id)
	}
}

// finishAppointmentHandler completes from any status, with optional notes.
func finishAppointmentHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		var req CompleteAppointmentRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeDomainError(w, r, log, err)
				return
			}
		}
		if _, err := mgr.Complete(r.Context(), id, req.Notes); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeDetail(w, r, log, mgr, http.StatusOK, id)
	}
}

func deleteAppointmentHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if err := mgr.Delete(r.Context(), id); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeDetail(w http.ResponseWriter, r *http.Request, log *logrus.Logger, mgr *appointment.Manager, status int, id int64) {
	d, err := mgr.Detail(id)
	if err != nil {
		writeDomainError(w, r, log, err)
		return
	}
	writeJSON(w, status, toDetailResponse(d))
}

func toAppointmentResponses(mgr *appointment.Manager, as []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(as))
	for _, a := range as {
		out = append(out, toAppointmentResponse(a, mgr.IsWalkIn(a.ID)))
	}
	return out
}

func historyHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, err := parseDate("from", q.Get("from"))
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		to, err := parseDate("to", q.Get("to"))
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if to.Before(from) {
			writeDomainError(w, r, log, badInput("to %s is before from %s", calendar.FormatDate(to), calendar.FormatDate(from)))
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(mgr, mgr.History(from, to)))
	}
}
