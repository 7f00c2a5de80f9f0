package engine

import (
	"fmt"

	"vmxexchange/domain"
)

// DuplicateJoin is raised when a participant that already has a record
// sends another Join.
type DuplicateJoin struct {
	Participant domain.ParticipantId
}

func (e *DuplicateJoin) Error() string {
	return fmt.Sprintf("engine: participant %s already joined", e.Participant)
}

// UnknownParticipant is raised when a directive other than Join arrives
// for a participant with no record.
type UnknownParticipant struct {
	Participant domain.ParticipantId
}

func (e *UnknownParticipant) Error() string {
	return fmt.Sprintf("engine: participant %s is not known (send Join first)", e.Participant)
}
