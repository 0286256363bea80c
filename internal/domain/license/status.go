// Package license holds the entitlement key, the per-product license and its
// lifecycle state machine.
package license

// Status represents the stored lifecycle state of a license
type Status string

const (
	StatusValid     Status = "valid"
	StatusExpired   Status = "expired"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in a stable order.
var Statuses = []Status{StatusValid, StatusExpired, StatusSuspended, StatusCancelled}

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusValid, StatusExpired, StatusSuspended, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Action is a lifecycle command applied to a license.
type Action string

const (
	ActionRenew   Action = "renew"
	ActionSuspend Action = "suspend"
	ActionResume  Action = "resume"
	ActionCancel  Action = "cancel"
	ActionExpire  Action = "expire"
)

// Actions lists every lifecycle action.
var Actions = []Action{ActionRenew, ActionSuspend, ActionResume, ActionCancel, ActionExpire}

// transitions maps each action to the statuses it may start from and the status it produces.
// Renew from valid keeps valid.
var transitions = map[Action]struct {
	from []Status
	to   Status
}{
	ActionRenew:   {from: []Status{StatusValid, StatusExpired}, to: StatusValid},
	ActionSuspend: {from: []Status{StatusValid}, to: StatusSuspended},
	ActionResume:  {from: []Status{StatusSuspended}, to: StatusValid},
	ActionCancel:  {from: []Status{StatusValid, StatusExpired, StatusSuspended}, to: StatusCancelled},
	ActionExpire:  {from: []Status{StatusValid}, to: StatusExpired},
}

// NextStatus returns the status an action produces from s, or false when the
// action is not allowed from s.
func NextStatus(s Status, a Action) (Status, bool) {
	t, ok := transitions[a]
	if !ok {
		return "", false
	}
	for _, from := range t.from {
		if from == s {
			return t.to, true
		}
	}
	return "", false
}
