package api

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

func createDoctorHandler(doctors *registry.Doctors, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		d, err := doctors.Add(registry.NewDoctor{
			Name:           req.Name,
			Specialization: req.Specialization,
			PhoneNumber:    req.PhoneNumber,
			Email:          req.Email,
			AvailableDays:  req.AvailableDays,
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
		})
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

// listDoctorsHandler filters by name, specialization or available=true,
// first match wins.
func listDoctorsHandler(doctors *registry.Doctors, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var result []registry.Doctor

		switch {
		case q.Get("name") != "":
			result = doctors.SearchByName(q.Get("name"))
		case q.Get("specialization") != "":
			result = doctors.SearchBySpecialization(q.Get("specialization"))
		case q.Get("available") != "":
			only, err := strconv.ParseBool(q.Get("available"))
			if err != nil {
				writeDomainError(w, r, log, badInput("available %q must be a boolean", q.Get("available")))
				return
			}
			if only {
				result = doctors.Available()
			} else {
				result = doctors.All()
			}
		default:
			result = doctors.All()
		}

		writeJSON(w, http.StatusOK, toDoctorResponses(result))
	}
}

func specializationsHandler(doctors *registry.Doctors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, doctors.Specializations())
	}
}

func getDoctorHandler(doctors *registry.Doctors, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		d, err := doctors.Get(id)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func updateDoctorHandler(doctors *registry.Doctors, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		var req DoctorUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		d, err := doctors.Update(id, registry.DoctorUpdate{
			Name:           req.Name,
			Specialization: req.Specialization,
			PhoneNumber:    req.PhoneNumber,
			Email:          req.Email,
			AvailableDays:  req.AvailableDays,
			StartTime:      req.StartTime,
			EndTime:        req.EndTime,
		})
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func setAvailabilityHandler(doctors *registry.Doctors, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		var req AvailabilityRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if req.Available == nil {
			writeDomainError(w, r, log, badInput("available is required"))
			return
		}
		if err := doctors.SetAvailability(id, *req.Available); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		d, err := doctors.Get(id)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func deleteDoctorHandler(doctors *registry.Doctors, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if err := doctors.Delete(id); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func doctorSlotsHandler(mgr *appointment.Manager, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		date, err := parseDate("date", r.URL.Query().Get("date"))
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		slots, err := mgr.AvailableTimeSlots(id, date)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponses(slots))
	}
}
