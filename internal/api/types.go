package api

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

type PatientRequest struct {
	Name        string  `json:"name"`
	DateOfBirth string  `json:"date_of_birth"`
	Gender      string  `json:"gender"`
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email,omitempty"`
	Address     string  `json:"address"`
	BloodType   *string `json:"blood_type,omitempty"`
	Allergies   *string `json:"allergies,omitempty"`
}

type PatientUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
	Address     *string `json:"address,omitempty"`
	BloodType   *string `json:"blood_type,omitempty"`
	Allergies   *string `json:"allergies,omitempty"`
}

type PatientResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DateOfBirth string  `json:"date_of_birth"`
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	PhoneNumber string  `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
	Address     string  `json:"address,omitempty"`
	BloodType   *string `json:"blood_type,omitempty"`
	Allergies   *string `json:"allergies,omitempty"`
}

type DoctorRequest struct {
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	PhoneNumber    string   `json:"phone_number"`
	Email          *string  `json:"email,omitempty"`
	AvailableDays  []string `json:"available_days"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
}

type DoctorUpdateRequest struct {
	Name           *string  `json:"name,omitempty"`
	Specialization *string  `json:"specialization,omitempty"`
	PhoneNumber    *string  `json:"phone_number,omitempty"`
	Email          *string  `json:"email,omitempty"`
	AvailableDays  []string `json:"available_days,omitempty"`
	StartTime      *string  `json:"start_time,omitempty"`
	EndTime        *string  `json:"end_time,omitempty"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

type DoctorResponse struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	PhoneNumber    string   `json:"phone_number,omitempty"`
	Email          *string  `json:"email,omitempty"`
	AvailableDays  []string `json:"available_days"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Available      bool     `json:"available"`
}

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
	Label     string `json:"label"`
}

type CreateAppointmentRequest struct {
	PatientID int64  `json:"patient_id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
	WalkIn    bool   `json:"walk_in"`
}

type UpdateAppointmentRequest struct {
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type CompleteAppointmentRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	DoctorID    int64     `json:"doctor_id"`
	PatientName string    `json:"patient_name,omitempty"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	WalkIn      bool      `json:"walk_in"`
	CreatedAt   time.Time `json:"created_at"`
}

type QueueResponse struct {
	Size         int                   `json:"size"`
	Appointments []AppointmentResponse `json:"appointments"`
}

type UndoStatusResponse struct {
	CanUndo bool `json:"can_undo"`
	Depth   int  `json:"depth"`
}

type UndoResponse struct {
	Action        string `json:"action"`
	AppointmentID int64  `json:"appointment_id"`
	Depth         int    `json:"depth"`
}

type DailyStatsResponse struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
}

type SummaryResponse struct {
	Patients     int `json:"patients"`
	Doctors      int `json:"doctors"`
	Appointments int `json:"appointments"`
	Today        int `json:"today"`
	Queue        int `json:"queue"`
	WalkIns      int `json:"walk_ins"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPatientResponse(p registry.Patient, now time.Time) PatientResponse {
	return PatientResponse{
		ID:          p.ID,
		Name:        p.Name,
		DateOfBirth: calendar.FormatDate(p.DateOfBirth),
		Age:         p.Age(now),
		Gender:      p.Gender,
		PhoneNumber: p.PhoneNumber,
		Email:       p.Email,
		Address:     p.Address,
		BloodType:   p.BloodType,
		Allergies:   p.Allergies,
	}
}

func toPatientResponses(ps []registry.Patient, now time.Time) []PatientResponse {
	out := make([]PatientResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPatientResponse(p, now))
	}
	return out
}

func toDoctorResponse(d registry.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		PhoneNumber:    d.PhoneNumber,
		Email:          d.Email,
		AvailableDays:  d.AvailableDays,
		StartTime:      d.StartTime,
		EndTime:        d.EndTime,
		Available:      d.Available,
	}
}

func toDoctorResponses(ds []registry.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDoctorResponse(d))
	}
	return out
}

func toSlotResponses(slots []appointment.TimeSlot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			StartTime: s.Start.String(),
			EndTime:   s.End.String(),
			Available: s.Available,
			Label:     s.String(),
		})
	}
	return out
}

func toAppointmentResponse(a appointment.Appointment, walkIn bool) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      calendar.FormatDate(a.Date),
		StartTime: a.Start.String(),
		EndTime:   a.End.String(),
		Reason:    a.Reason,
		Status:    string(a.Status),
		Notes:     a.Notes,
		WalkIn:    walkIn,
		CreatedAt: a.CreatedAt,
	}
}

func toDetailResponse(d appointment.Detail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment, d.WalkIn)
	if d.Patient != nil {
		resp.PatientName = d.Patient.Name
	}
	if d.Doctor != nil {
		resp.DoctorName = d.Doctor.Name
	}
	return resp
}
