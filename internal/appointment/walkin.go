package appointment

import (
	"context"
)

// ProcessNextInQueue takes the head of the regular queue and starts it.
// A head whose appointment has since left the index is dropped and the
// call reports ErrQueueEmpty, exactly as for an empty queue.
func (m *Manager) ProcessNextInQueue(ctx context.Context) (Appointment, error) {
	return m.processNext(ctx, &m.queue)
}

// ProcessNextWalkIn does the same for the walk-in queue.
func (m *Manager) ProcessNextWalkIn(ctx context.Context) (Appointment, error) {
	return m.processNext(ctx, &m.walkIns)
}

func (m *Manager) processNext(ctx context.Context, q *fifo) (Appointment, error) {
	m.mu.Lock()
	id, ok := q.dequeue()
	if !ok {
		m.mu.Unlock()
		return Appointment{}, ErrQueueEmpty
	}
	a, ok := m.appointments[id]
	if !ok {
		m.mu.Unlock()
		m.log.WithField("appointment_id", id).Debug("dropped stale queue entry")
		return Appointment{}, ErrQueueEmpty
	}

	before := snapshot(a)
	a.Status = StatusInProgress
	m.history.push(ActionUpdate, a.ID, before)
	appt := *a
	m.mu.Unlock()

	m.emit(ctx, EventAppointmentStarted, appt, map[string]any{
		"from":   before.Status,
		"source": "queue",
	})
	return appt, nil
}

// AddToWalkInQueue marks an existing appointment as a walk-in and moves it
// from the regular queue to the back of the walk-in queue. Queue moves are
// not recorded in the undo log.
func (m *Manager) AddToWalkInQueue(ctx context.Context, id int64) (Appointment, error) {
	m.mu.Lock()
	a, ok := m.appointments[id]
	if !ok {
		m.mu.Unlock()
		return Appointment{}, ErrAppointmentNotFound
	}
	m.walkInIDs[id] = struct{}{}
	m.queue.remove(id)
	if !m.walkIns.contains(id) {
		m.walkIns.enqueue(id)
	}
	position := m.walkIns.len()
	appt := *a
	m.mu.Unlock()

	m.emit(ctx, EventWalkInQueued, appt, map[string]any{"queue_size": position})
	return appt, nil
}

// RemoveFromWalkInQueue takes the appointment out of the walk-in queue
// without touching its status or walk-in mark.
func (m *Manager) RemoveFromWalkInQueue(ctx context.Context, id int64) error {
	m.mu.Lock()
	removed := m.walkIns.remove(id)
	var appt Appointment
	if a, ok := m.appointments[id]; ok {
		appt = *a
	} else {
		appt.ID = id
	}
	m.mu.Unlock()

	if !removed {
		return ErrNotQueued
	}
	m.emit(ctx, EventWalkInRemoved, appt, nil)
	return nil
}

func (m *Manager) QueueSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.len()
}

func (m *Manager) WalkInQueueSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.walkIns.len()
}

// ViewQueue lists the regular queue front to back without consuming it.
func (m *Manager) ViewQueue() []Appointment {
	return m.view(&m.queue)
}

func (m *Manager) ViewWalkInQueue() []Appointment {
	return m.view(&m.walkIns)
}

func (m *Manager) view(q *fifo) []Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := q.snapshot()
	out := make([]Appointment, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.appointments[id]; ok {
			out = append(out, *a)
		}
	}
	return out
}

func (m *Manager) IsWalkIn(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.walkInIDs[id]
	return ok
}

// Regular returns the appointments never marked as walk-ins.
func (m *Manager) Regular() []Appointment {
	m.mu.Lock()
	walkIns := make(map[int64]struct{}, len(m.walkInIDs))
	for id := range m.walkInIDs {
		walkIns[id] = struct{}{}
	}
	m.mu.Unlock()

	return m.filter(func(a *Appointment) bool {
		_, ok := walkIns[a.ID]
		return !ok
	})
}
