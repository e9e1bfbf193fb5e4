package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/demo"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

type seeder struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

func main() {
	log := logger.New(getEnv("LOG_LEVEL", "info"), getEnv("APP_ENV", "dev"))
	log.Info("seed starting")

	s := &seeder{
		baseURL: getEnv("SEED_API_BASE_URL", "http://localhost:8080"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}

	doctors := getInt("SEED_DOCTORS", 20)
	patients := getInt("SEED_PATIENTS", 500)

	var seed uint64
	if v := os.Getenv("SEED_RANDOM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			log.WithError(err).Fatal("invalid SEED_RANDOM_SEED")
		}
		seed = n
	}
	faker := gofakeit.New(seed)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.seedDoctors(ctx, faker, doctors); err != nil {
		log.WithError(err).Fatal("seed doctors")
	}
	if err := s.seedPatients(ctx, faker, patients); err != nil {
		log.WithError(err).Fatal("seed patients")
	}

	log.Info("seed complete")
}

func (s *seeder) seedDoctors(ctx context.Context, faker *gofakeit.Faker, count int) error {
	s.log.WithField("count", count).Info("seeding doctors")

	for i := 0; i < count; i++ {
		d := demo.FakeDoctor(faker)
		req := api.DoctorRequest{
			Name:           d.Name,
			Specialization: d.Specialization,
			PhoneNumber:    d.PhoneNumber,
			Email:          d.Email,
			AvailableDays:  d.AvailableDays,
			StartTime:      d.StartTime,
			EndTime:        d.EndTime,
		}
		if err := s.post(ctx, "/doctors", req); err != nil {
			return err
		}
	}

	s.log.Info("doctors seeded")
	return nil
}

func (s *seeder) seedPatients(ctx context.Context, faker *gofakeit.Faker, count int) error {
	s.log.WithField("count", count).Info("seeding patients")

	const progressEvery = 100

	for i := 0; i < count; i++ {
		p := demo.FakePatient(faker)
		req := api.PatientRequest{
			Name:        p.Name,
			DateOfBirth: calendar.FormatDate(p.DateOfBirth),
			Gender:      p.Gender,
			PhoneNumber: p.PhoneNumber,
			Email:       p.Email,
			Address:     p.Address,
			BloodType:   p.BloodType,
			Allergies:   p.Allergies,
		}
		if err := s.post(ctx, "/patients", req); err != nil {
			return err
		}
		if (i+1)%progressEvery == 0 {
			s.log.WithField("seeded", fmt.Sprintf("%d/%d", i+1, count)).Info("patients progress")
		}
	}

	s.log.Info("patients seeded")
	return nil
}

func (s *seeder) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "seed-"+uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("POST %s: status %d: %s %s", path, resp.StatusCode, apiErr.Error, apiErr.Details)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
