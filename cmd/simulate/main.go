package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/demo"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Days         int
	BookingRatio float64
	FlowRatio    float64
	ReadRatio    float64
	UndoRatio    float64
}

// Roster holds the ids the workers pick from. Appointments grow as
// bookings succeed.
type Roster struct {
	Patients []int64
	Doctors  []api.DoctorResponse

	mu     sync.RWMutex
	booked []int64
}

func (r *Roster) remember(id int64) {
	r.mu.Lock()
	r.booked = append(r.booked, id)
	r.mu.Unlock()
}

func (r *Roster) pickAppointment(rng *rand.Rand) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.booked) == 0 {
		return 0, false
	}
	return r.booked[rng.Intn(len(r.booked))], true
}

// outcome of one simulated request. A 409 is a conflict, which is expected
// under contention and kept apart from real failures.
type outcome string

const (
	outcomeOK       outcome = "ok"
	outcomeConflict outcome = "conflict"
	outcomeFailed   outcome = "failed"
)

type opTally struct {
	counts    map[outcome]int
	latencies []time.Duration
}

// Tallies groups request outcomes and latencies by operation name.
type Tallies struct {
	mu  sync.Mutex
	ops map[string]*opTally
}

func (t *Tallies) observe(op string, o outcome, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ops == nil {
		t.ops = make(map[string]*opTally)
	}
	tally, ok := t.ops[op]
	if !ok {
		tally = &opTally{counts: make(map[outcome]int)}
		t.ops[op] = tally
	}
	tally.counts[o]++
	tally.latencies = append(tally.latencies, latency)
}

// quantile expects sorted input.
func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(q*float64(len(sorted)-1))]
}

type Simulator struct {
	config  SimConfig
	pool    *Roster
	client  *http.Client
	log     *logrus.Logger
	tallies Tallies
}

func main() {
	log := logger.New(getEnv("LOG_LEVEL", "info"), getEnv("APP_ENV", "dev"))
	log.Info("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.WithFields(logrus.Fields{
		"duration": cfg.Duration.String(),
		"workers":  cfg.Workers,
		"booking":  fmt.Sprintf("%.2f", cfg.BookingRatio),
		"flow":     fmt.Sprintf("%.2f", cfg.FlowRatio),
		"read":     fmt.Sprintf("%.2f", cfg.ReadRatio),
		"undo":     fmt.Sprintf("%.2f", cfg.UndoRatio),
	}).Info("simulation config")

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	roster, err := sim.loadRoster(ctx)
	if err != nil {
		log.WithError(err).Fatal("load roster")
	}
	sim.pool = roster

	log.WithFields(logrus.Fields{
		"patients": len(roster.Patients),
		"doctors":  len(roster.Doctors),
	}).Info("roster loaded")

	sim.Run()
	sim.report()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Days:         getInt("SIM_DAYS", 14),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.4),
		FlowRatio:    getFloat("SIM_FLOW_RATIO", 0.25),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		UndoRatio:    getFloat("SIM_UNDO_RATIO", 0.05),
	}

	total := cfg.BookingRatio + cfg.FlowRatio + cfg.ReadRatio + cfg.UndoRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.FlowRatio /= total
		cfg.ReadRatio /= total
		cfg.UndoRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be > 0")
	}
	return nil
}

// loadRoster reads the registered patients and doctors from the API.
func (s *Simulator) loadRoster(ctx context.Context) (*Roster, error) {
	var patients []api.PatientResponse
	if err := s.getJSON(ctx, "/patients", &patients); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	var doctors []api.DoctorResponse
	if err := s.getJSON(ctx, "/doctors?available=true", &doctors); err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}

	roster := &Roster{Doctors: doctors}
	for _, p := range patients {
		roster.Patients = append(roster.Patients, p.ID)
	}

	if len(roster.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded, run cmd/seed first")
	}
	if len(roster.Doctors) == 0 {
		return nil, fmt.Errorf("no available doctors loaded, run cmd/seed first")
	}
	return roster, nil
}

func (s *Simulator) getJSON(ctx context.Context, path string, dst any) error {
	resp, err := s.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (s *Simulator) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "sim-"+uuid.NewString())
	return s.client.Do(req)
}

// call performs a request and tallies it under op. Requests cut short by
// the end of the run are not counted.
func (s *Simulator) call(ctx context.Context, op, method, path string, body any, want int, onOK func(io.Reader)) {
	start := time.Now()
	resp, err := s.send(ctx, method, path, body)
	latency := time.Since(start)
	if ctx.Err() != nil {
		if err == nil {
			resp.Body.Close()
		}
		return
	}

	o := outcomeFailed
	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case want:
			o = outcomeOK
			if onOK != nil {
				onOK(resp.Body)
			}
		case http.StatusConflict:
			o = outcomeConflict
		}
	}
	s.tallies.observe(op, o, latency)
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.WithFields(logrus.Fields{
		"duration": s.config.Duration.String(),
		"workers":  s.config.Workers,
	}).Info("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	faker := gofakeit.New(uint64(rng.Int63()))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng, faker)
		case r < s.config.BookingRatio+s.config.FlowRatio:
			switch rng.Intn(4) {
			case 0:
				s.doTransition(ctx, rng, "confirm")
			case 1:
				s.doProcessQueue(ctx)
			case 2:
				s.doTransition(ctx, rng, "complete")
			case 3:
				s.doTransition(ctx, rng, "cancel")
			}
		case r < s.config.BookingRatio+s.config.FlowRatio+s.config.ReadRatio:
			switch rng.Intn(3) {
			case 0:
				s.doReadByID(ctx, rng)
			case 1:
				s.doListByPatient(ctx, rng)
			case 2:
				s.doSlots(ctx, rng)
			}
		default:
			s.call(ctx, "undo", http.MethodPost, "/undo", nil, http.StatusOK, nil)
		}
	}
}

// doBooking books a random half-hour inside a random doctor's hours on a
// day the doctor works.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, faker *gofakeit.Faker) {
	doc := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	open, err1 := calendar.ParseWorkingHour(doc.StartTime)
	closing, err2 := calendar.ParseWorkingHour(doc.EndTime)
	if err1 != nil || err2 != nil || !open.Before(closing) {
		return
	}

	day, ok := s.workingDay(rng, doc)
	if !ok {
		return
	}

	halfHours := int(closing-open) / 30
	if halfHours == 0 {
		return
	}
	start := open.Add(time.Duration(rng.Intn(halfHours)) * 30 * time.Minute)

	req := api.CreateAppointmentRequest{
		PatientID: patientID,
		DoctorID:  doc.ID,
		Date:      calendar.FormatDate(day),
		StartTime: start.String(),
		EndTime:   start.Add(30 * time.Minute).String(),
		Reason:    faker.RandomString(demo.Reasons),
		WalkIn:    rng.Intn(10) == 0,
	}
	s.call(ctx, "book", http.MethodPost, "/appointments", req, http.StatusCreated, func(body io.Reader) {
		var appt api.AppointmentResponse
		if err := json.NewDecoder(body).Decode(&appt); err == nil && appt.ID != 0 {
			s.pool.remember(appt.ID)
		}
	})
}

func (s *Simulator) workingDay(rng *rand.Rand, doc api.DoctorResponse) (time.Time, bool) {
	today := calendar.DateOf(time.Now())
	offset := rng.Intn(s.config.Days)
	for i := 0; i < s.config.Days; i++ {
		day := today.AddDate(0, 0, (offset+i)%s.config.Days)
		if calendar.WorksOn(doc.AvailableDays, day.Weekday()) {
			return day, true
		}
	}
	return time.Time{}, false
}

func (s *Simulator) doTransition(ctx context.Context, rng *rand.Rand, verb string) {
	id, ok := s.pool.pickAppointment(rng)
	if !ok {
		return
	}
	s.call(ctx, verb, http.MethodPost, fmt.Sprintf("/appointments/%d/%s", id, verb), nil, http.StatusOK, nil)
}

func (s *Simulator) doProcessQueue(ctx context.Context) {
	s.call(ctx, "queue-next", http.MethodPost, "/queue/next", nil, http.StatusOK, nil)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.pickAppointment(rng)
	if !ok {
		return
	}
	s.call(ctx, "get", http.MethodGet, fmt.Sprintf("/appointments/%d", id), nil, http.StatusOK, nil)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	s.call(ctx, "list-by-patient", http.MethodGet, fmt.Sprintf("/appointments?patient_id=%d", patientID), nil, http.StatusOK, nil)
}

func (s *Simulator) doSlots(ctx context.Context, rng *rand.Rand) {
	doc := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	day := calendar.DateOf(time.Now()).AddDate(0, 0, rng.Intn(s.config.Days))
	path := fmt.Sprintf("/doctors/%d/slots?date=%s", doc.ID, calendar.FormatDate(day))
	s.call(ctx, "slots", http.MethodGet, path, nil, http.StatusOK, nil)
}

// report logs one line per operation, in name order.
func (s *Simulator) report() {
	s.tallies.mu.Lock()
	defer s.tallies.mu.Unlock()

	names := make([]string, 0, len(s.tallies.ops))
	for name := range s.tallies.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tally := s.tallies.ops[name]
		sort.Slice(tally.latencies, func(i, j int) bool { return tally.latencies[i] < tally.latencies[j] })

		s.log.WithFields(logrus.Fields{
			"op":       name,
			"requests": len(tally.latencies),
			"ok":       tally.counts[outcomeOK],
			"conflict": tally.counts[outcomeConflict],
			"failed":   tally.counts[outcomeFailed],
			"p50":      quantile(tally.latencies, 0.50).Round(time.Millisecond).String(),
			"p95":      quantile(tally.latencies, 0.95).Round(time.Millisecond).String(),
			"max":      quantile(tally.latencies, 1).Round(time.Millisecond).String(),
		}).Info("operation summary")
	}
	if len(names) == 0 {
		s.log.Warn("no requests completed")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
