package appointment

type ActionType string

const (
	ActionAdd      ActionType = "ADD"
	ActionUpdate   ActionType = "UPDATE"
	ActionCancel   ActionType = "CANCEL"
	ActionComplete ActionType = "COMPLETE"
	ActionDelete   ActionType = "DELETE"
)

// Action is one entry of the undo log. Before holds the appointment as it
// was prior to the action and is nil only for ActionAdd.
type Action struct {
	Type          ActionType
	AppointmentID int64
	Before        *Appointment
}

// undoLog is an unbounded LIFO of actions. There is no redo.
type undoLog struct {
	actions []Action
}

func (l *undoLog) push(typ ActionType, id int64, before *Appointment) {
	l.actions = append(l.actions, Action{Type: typ, AppointmentID: id, Before: before})
}

func (l *undoLog) pop() (Action, bool) {
	n := len(l.actions)
	if n == 0 {
		return Action{}, false
	}
	a := l.actions[n-1]
	l.actions[n-1] = Action{}
	l.actions = l.actions[:n-1]
	return a, true
}

func (l *undoLog) len() int {
	return len(l.actions)
}

func snapshot(a *Appointment) *Appointment {
	c := *a
	return &c
}
