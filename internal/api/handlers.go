package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

const maxBodyBytes = 1 << 20

var errBadInput = errors.New("bad input")

func badInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadInput, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps engine and registry errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, errBadInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, registry.ErrInvalidPatient):
		writeError(w, http.StatusBadRequest, "invalid_patient", err.Error())
	case errors.Is(err, registry.ErrInvalidDoctor):
		writeError(w, http.StatusBadRequest, "invalid_doctor", err.Error())
	case errors.Is(err, appointment.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, registry.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, registry.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrQueueEmpty):
		writeError(w, http.StatusNotFound, "queue_empty", err.Error())
	case errors.Is(err, appointment.ErrNotQueued):
		writeError(w, http.StatusNotFound, "not_queued", err.Error())
	case errors.Is(err, appointment.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrNothingToUndo):
		writeError(w, http.StatusConflict, "nothing_to_undo", err.Error())
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": GetRequestID(r.Context()),
			"path":       r.URL.Path,
		}).Error("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badInput("could not parse JSON: %v", err)
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badInput("id %q must be a positive integer", raw)
	}
	return id, nil
}

func parseDate(field, raw string) (time.Time, error) {
	d, err := calendar.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, badInput("%s %q must be yyyy-mm-dd", field, raw)
	}
	return d, nil
}

func parseClock(field, raw string) (calendar.TimeOfDay, error) {
	t, err := calendar.ParseTimeOfDay(strings.TrimSpace(raw))
	if err != nil {
		return 0, badInput("%s %q must be HH:mm", field, raw)
	}
	return t, nil
}

func queryInt64(r *http.Request, key string) (int64, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, badInput("%s %q must be an integer", key, raw)
	}
	return n, true, nil
}
