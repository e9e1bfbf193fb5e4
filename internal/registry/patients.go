package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/ids"
)

// Patients is the keyed store of patient records. The scheduling engine
// reads from it but never owns it.
type Patients struct {
	mu      sync.RWMutex
	seq     ids.Sequence
	records map[int64]*Patient
}

func NewPatients() *Patients {
	return &Patients{records: make(map[int64]*Patient)}
}

func (r *Patients) Add(in NewPatient) (Patient, error) {
	if err := checkPatientFields(in.Name, in.Gender, in.PhoneNumber, in.Email); err != nil {
		return Patient{}, err
	}
	gender, _ := NormalizeGender(in.Gender)

	p := &Patient{
		ID:          r.seq.Next(),
		Name:        strings.TrimSpace(in.Name),
		DateOfBirth: in.DateOfBirth,
		Gender:      gender,
		PhoneNumber: in.PhoneNumber,
		Email:       cloneString(in.Email),
		Address:     in.Address,
		BloodType:   normalizedBloodType(in.BloodType),
		Allergies:   cloneString(in.Allergies),
	}

	r.mu.Lock()
	r.records[p.ID] = p
	r.mu.Unlock()

	return p.clone(), nil
}

func (r *Patients) Get(id int64) (Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.records[id]
	if !ok {
		return Patient{}, ErrPatientNotFound
	}
	return p.clone(), nil
}

func (r *Patients) Exists(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok
}

func (r *Patients) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// All returns every patient ordered by id.
func (r *Patients) All() []Patient {
	return r.filter(func(*Patient) bool { return true })
}

func (r *Patients) SearchByName(name string) []Patient {
	term := strings.ToLower(name)
	return r.filter(func(p *Patient) bool {
		return strings.Contains(strings.ToLower(p.Name), term)
	})
}

func (r *Patients) SearchByGender(gender string) []Patient {
	term := strings.ToLower(gender)
	return r.filter(func(p *Patient) bool {
		return strings.Contains(strings.ToLower(p.Gender), term)
	})
}

// ByAgeRange returns patients whose age at now lies in [minAge, maxAge].
func (r *Patients) ByAgeRange(minAge, maxAge int, now time.Time) []Patient {
	return r.filter(func(p *Patient) bool {
		age := p.Age(now)
		return age >= minAge && age <= maxAge
	})
}

func (r *Patients) Update(id int64, upd PatientUpdate) (Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.records[id]
	if !ok {
		return Patient{}, ErrPatientNotFound
	}

	next := p.clone()
	if upd.Name != nil {
		next.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.DateOfBirth != nil {
		next.DateOfBirth = *upd.DateOfBirth
	}
	if upd.Gender != nil {
		next.Gender = *upd.Gender
	}
	if upd.PhoneNumber != nil {
		next.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Email != nil {
		next.Email = cloneString(upd.Email)
	}
	if upd.Address != nil {
		next.Address = *upd.Address
	}
	if upd.BloodType != nil {
		next.BloodType = normalizedBloodType(upd.BloodType)
	}
	if upd.Allergies != nil {
		next.Allergies = cloneString(upd.Allergies)
	}

	if err := checkPatientFields(next.Name, next.Gender, next.PhoneNumber, next.Email); err != nil {
		return Patient{}, err
	}
	next.Gender, _ = NormalizeGender(next.Gender)

	*p = next
	return p.clone(), nil
}

// Delete removes the record. Appointments that reference it are untouched.
func (r *Patients) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return ErrPatientNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *Patients) filter(keep func(*Patient) bool) []Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Patient, 0, len(r.records))
	for _, p := range r.records {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalizedBloodType(b *string) *string {
	if b == nil {
		return nil
	}
	v := NormalizeBloodType(*b)
	return &v
}
