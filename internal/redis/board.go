package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

const (
	DefaultBoardChannel = "clinic:queue-board"
	DefaultNowServing   = "clinic:now-serving"
)

// BoardMessage is what waiting-room displays receive on the board channel.
type BoardMessage struct {
	Event         string         `json:"event"`
	AppointmentID int64          `json:"appointment_id"`
	DoctorID      int64          `json:"doctor_id"`
	Status        string         `json:"status"`
	Details       map[string]any `json:"details,omitempty"`
	At            time.Time      `json:"at"`
}

// QueueBoard publishes engine events for waiting-room displays and keeps a
// per-doctor "now serving" hash current. It implements appointment.EventSink.
type QueueBoard struct {
	client     *redis.Client
	channel    string
	nowServing string
}

func NewQueueBoard(client *redis.Client, channel string) *QueueBoard {
	if channel == "" {
		channel = DefaultBoardChannel
	}
	return &QueueBoard{
		client:     client,
		channel:    channel,
		nowServing: DefaultNowServing,
	}
}

func (b *QueueBoard) Record(ctx context.Context, ev appointment.Event) error {
	data, err := encodeBoardMessage(ev)
	if err != nil {
		return err
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, b.channel, data)
		switch servingChange(ev) {
		case serving:
			pipe.HSet(ctx, b.nowServing, doctorField(ev.DoctorID), ev.AppointmentID)
		case finished:
			clearServingScript.Eval(ctx, pipe, []string{b.nowServing}, doctorField(ev.DoctorID), ev.AppointmentID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish queue board event: %w", err)
	}
	return nil
}

// clearServingScript removes the doctor's entry only while it still names
// the given appointment.
var clearServingScript = redis.NewScript(`
local val = redis.call("HGET", KEYS[1], ARGV[1])
if val == ARGV[2] then
  return redis.call("HDEL", KEYS[1], ARGV[1])
else
  return 0
end
`)

// NowServing returns the appointment each doctor is currently seeing.
func (b *QueueBoard) NowServing(ctx context.Context) (map[int64]int64, error) {
	raw, err := b.client.HGetAll(ctx, b.nowServing).Result()
	if err != nil {
		return nil, fmt.Errorf("read now serving: %w", err)
	}
	out := make(map[int64]int64, len(raw))
	for k, v := range raw {
		doctorID, err1 := strconv.ParseInt(k, 10, 64)
		apptID, err2 := strconv.ParseInt(v, 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out[doctorID] = apptID
	}
	return out, nil
}

func encodeBoardMessage(ev appointment.Event) ([]byte, error) {
	data, err := json.Marshal(BoardMessage{
		Event:         ev.Type,
		AppointmentID: ev.AppointmentID,
		DoctorID:      ev.DoctorID,
		Status:        string(ev.Status),
		Details:       ev.Payload,
		At:            ev.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal board message %s: %w", ev.Type, err)
	}
	return data, nil
}

type servingTransition int

const (
	unchanged servingTransition = iota
	serving
	finished
)

// servingChange decides how an event moves the doctor's now-serving entry.
// Undo is judged by the status the appointment was restored to.
func servingChange(ev appointment.Event) servingTransition {
	if ev.DoctorID == 0 {
		return unchanged
	}
	switch ev.Type {
	case appointment.EventAppointmentStarted:
		return serving
	case appointment.EventAppointmentCompleted,
		appointment.EventAppointmentCancelled,
		appointment.EventAppointmentNoShow,
		appointment.EventAppointmentDeleted:
		return finished
	case appointment.EventActionUndone:
		if ev.Status == appointment.StatusInProgress {
			return serving
		}
		return finished
	}
	return unchanged
}

func doctorField(id int64) string {
	return strconv.FormatInt(id, 10)
}
