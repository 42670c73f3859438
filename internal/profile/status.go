package profile

import (
	"fmt"
	"strings"
)

// Status is the application workflow state. No transition graph is
// enforced: any status may be assigned from any other, and a change is
// detected purely by comparing against the last committed value.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusAccepted Status = "accepted"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusAccepted: true,
}

// ParseStatus converts a stored string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// EventName derives the analytics event name for a transition into this
// status, e.g. "Member Application Approved".
func (s Status) EventName() string {
	str := string(s)
	if str == "" {
		return "Member Application"
	}
	return "Member Application " + strings.ToUpper(str[:1]) + str[1:]
}

func (s Status) String() string {
	return string(s)
}
