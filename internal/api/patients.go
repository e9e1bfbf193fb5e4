package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/registry"
)

func createPatientHandler(patients *registry.Patients, log *logrus.Logger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		dob, err := parseDate("date_of_birth", req.DateOfBirth)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		p, err := patients.Add(registry.NewPatient{
			Name:        req.Name,
			DateOfBirth: dob,
			Gender:      req.Gender,
			PhoneNumber: req.PhoneNumber,
			Email:       req.Email,
			Address:     req.Address,
			BloodType:   req.BloodType,
			Allergies:   req.Allergies,
		})
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(p, now()))
	}
}

// listPatientsHandler applies at most one search: name, then gender, then
// the min_age/max_age range.
func listPatientsHandler(patients *registry.Patients, log *logrus.Logger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var result []registry.Patient

		switch {
		case q.Get("name") != "":
			result = patients.SearchByName(q.Get("name"))
		case q.Get("gender") != "":
			result = patients.SearchByGender(q.Get("gender"))
		case q.Get("min_age") != "" || q.Get("max_age") != "":
			minAge, err := ageParam(q.Get("min_age"), 0)
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			maxAge, err := ageParam(q.Get("max_age"), 200)
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			result = patients.ByAgeRange(minAge, maxAge, now())
		default:
			result = patients.All()
		}

		writeJSON(w, http.StatusOK, toPatientResponses(result, now()))
	}
}

func ageParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badInput("age %q must be a non-negative integer", raw)
	}
	return n, nil
}

func getPatientHandler(patients *registry.Patients, log *logrus.Logger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		p, err := patients.Get(id)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p, now()))
	}
}

func updatePatientHandler(patients *registry.Patients, log *logrus.Logger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		var req PatientUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, r, log, err)
			return
		}

		upd := registry.PatientUpdate{
			Name:        req.Name,
			Gender:      req.Gender,
			PhoneNumber: req.PhoneNumber,
			Email:       req.Email,
			Address:     req.Address,
			BloodType:   req.BloodType,
			Allergies:   req.Allergies,
		}
		if req.DateOfBirth != nil {
			dob, err := parseDate("date_of_birth", *req.DateOfBirth)
			if err != nil {
				writeDomainError(w, r, log, err)
				return
			}
			upd.DateOfBirth = &dob
		}

		p, err := patients.Update(id, upd)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p, now()))
	}
}

func deletePatientHandler(patients *registry.Patients, log *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		if err := patients.Delete(id); err != nil {
			writeDomainError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
