package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/hackgods/clinic-scheduling/internal/ids"
)

// Doctors is the keyed store of doctor records.
type Doctors struct {
	mu      sync.RWMutex
	seq     ids.Sequence
	records map[int64]*Doctor
}

func NewDoctors() *Doctors {
	return &Doctors{records: make(map[int64]*Doctor)}
}

// Add registers a doctor. New doctors start out available.
func (r *Doctors) Add(in NewDoctor) (Doctor, error) {
	if err := checkDoctorFields(in.Name, in.PhoneNumber, in.Email, in.StartTime, in.EndTime); err != nil {
		return Doctor{}, err
	}

	d := &Doctor{
		ID:             r.seq.Next(),
		Name:           strings.TrimSpace(in.Name),
		Specialization: strings.TrimSpace(in.Specialization),
		PhoneNumber:    in.PhoneNumber,
		Email:          cloneString(in.Email),
		AvailableDays:  append([]string{}, in.AvailableDays...),
		StartTime:      strings.TrimSpace(in.StartTime),
		EndTime:        strings.TrimSpace(in.EndTime),
		Available:      true,
	}

	r.mu.Lock()
	r.records[d.ID] = d
	r.mu.Unlock()

	return d.clone(), nil
}

func (r *Doctors) Get(id int64) (Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.records[id]
	if !ok {
		return Doctor{}, ErrDoctorNotFound
	}
	return d.clone(), nil
}

func (r *Doctors) Exists(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok
}

func (r *Doctors) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Doctors) All() []Doctor {
	return r.filter(func(*Doctor) bool { return true })
}

// Available returns doctors whose availability flag is set. Booked
// schedules do not affect the flag.
func (r *Doctors) Available() []Doctor {
	return r.filter(func(d *Doctor) bool { return d.Available })
}

func (r *Doctors) SearchByName(name string) []Doctor {
	term := strings.ToLower(name)
	return r.filter(func(d *Doctor) bool {
		return strings.Contains(strings.ToLower(d.Name), term)
	})
}

func (r *Doctors) SearchBySpecialization(spec string) []Doctor {
	term := strings.ToLower(spec)
	return r.filter(func(d *Doctor) bool {
		return strings.Contains(strings.ToLower(d.Specialization), term)
	})
}

// Specializations lists each distinct specialization once, sorted.
func (r *Doctors) Specializations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, d := range r.records {
		seen[d.Specialization] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (r *Doctors) Update(id int64, upd DoctorUpdate) (Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.records[id]
	if !ok {
		return Doctor{}, ErrDoctorNotFound
	}

	next := d.clone()
	if upd.Name != nil {
		next.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Specialization != nil {
		next.Specialization = strings.TrimSpace(*upd.Specialization)
	}
	if upd.PhoneNumber != nil {
		next.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Email != nil {
		next.Email = cloneString(upd.Email)
	}
	if upd.AvailableDays != nil {
		next.AvailableDays = append([]string{}, upd.AvailableDays...)
	}
	if upd.StartTime != nil {
		next.StartTime = strings.TrimSpace(*upd.StartTime)
	}
	if upd.EndTime != nil {
		next.EndTime = strings.TrimSpace(*upd.EndTime)
	}

	if err := checkDoctorFields(next.Name, next.PhoneNumber, next.Email, next.StartTime, next.EndTime); err != nil {
		return Doctor{}, err
	}

	*d = next
	return d.clone(), nil
}

func (r *Doctors) SetAvailability(id int64, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.records[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.Available = available
	return nil
}

func (r *Doctors) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return ErrDoctorNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *Doctors) filter(keep func(*Doctor) bool) []Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Doctor, 0, len(r.records))
	for _, d := range r.records {
		if keep(d) {
			out = append(out, d.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
