package domain

import "time"

type TeamStatus string

const (
	TeamForming    TeamStatus = "forming"
	TeamComplete   TeamStatus = "complete"
	TeamIncomplete TeamStatus = "incomplete"
	TeamCancelled  TeamStatus = "cancelled"
)

type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberAccepted MemberStatus = "accepted"
	MemberDeclined MemberStatus = "declined"
)

// MemberOrigin records which party created a team entry. The other party answers it.
type MemberOrigin string

const (
	OriginJoinRequest MemberOrigin = "join_request"
	OriginInvitation  MemberOrigin = "invitation"
)

type TeamMember struct {
	ParticipantID uint         `json:"participant_id"`
	Status        MemberStatus `json:"status"`
	Origin        MemberOrigin `json:"origin"`
	RespondedAt   *time.Time   `json:"responded_at,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeRegistered      OutcomeStatus = "registered"
	OutcomeSkippedExisting OutcomeStatus = "skipped_existing"
	OutcomeFailed          OutcomeStatus = "failed"
)

// MemberOutcome is the result of creating one member's registration on completion.
type MemberOutcome struct {
	ParticipantID  uint          `json:"participant_id"`
	Status         OutcomeStatus `json:"status"`
	RegistrationID *uint         `json:"registration_id,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	At             time.Time     `json:"at"`
}

type Team struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	EventID    uint            `json:"event_id"`
	LeaderID   uint            `json:"leader_id"`
	Members    []TeamMember    `json:"members"`
	MaxSize    int             `json:"max_size"`
	InviteCode string          `json:"invite_code"`
	Status     TeamStatus      `json:"status"`
	Outcomes   []MemberOutcome `json:"outcomes,omitempty"`
	Version    int             `json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AcceptedCount counts accepted members including the leader.
func (t Team) AcceptedCount() int {
	count := 1
	for _, m := range t.Members {
		if m.Status == MemberAccepted {
			count++
		}
	}

	return count
}

func (t Team) HasEntry(participantID uint) bool {
	_, ok := t.entry(participantID)
	return ok
}

// Involves reports whether the participant leads the team or holds any entry in it.
func (t Team) Involves(participantID uint) bool {
	return t.LeaderID == participantID || t.HasEntry(participantID)
}

func (t Team) entry(participantID uint) (int, bool) {
	for i, m := range t.Members {
		if m.ParticipantID == participantID {
			return i, true
		}
	}

	return -1, false
}

// AcceptedParticipantIDs returns the leader followed by accepted members in order.
func (t Team) AcceptedParticipantIDs() []uint {
	ids := []uint{t.LeaderID}
	for _, m := range t.Members {
		if m.Status == MemberAccepted {
			ids = append(ids, m.ParticipantID)
		}
	}

	return ids
}

func (t *Team) checkCanAdd(participantID uint) error {
	if t.Status != TeamForming {
		return ErrTeamNotForming
	}
	if t.AcceptedCount() >= t.MaxSize {
		return ErrTeamFull
	}
	if t.HasEntry(participantID) {
		return ErrAlreadyInTeam
	}
	if t.LeaderID == participantID {
		return ErrTeamLeader
	}

	return nil
}

// RequestToJoin appends a pending entry that waits for the leader.
func (t *Team) RequestToJoin(participantID uint) error {
	if err := t.checkCanAdd(participantID); err != nil {
		return err
	}
	t.Members = append(t.Members, TeamMember{
		ParticipantID: participantID,
		Status:        MemberPending,
		Origin:        OriginJoinRequest,
	})

	return nil
}

// Invite appends a pending entry that waits for the invitee.
func (t *Team) Invite(participantID uint) error {
	if err := t.checkCanAdd(participantID); err != nil {
		return err
	}
	t.Members = append(t.Members, TeamMember{
		ParticipantID: participantID,
		Status:        MemberPending,
		Origin:        OriginInvitation,
	})

	return nil
}

// Respond answers the pending entry of memberID on behalf of actorID.
// It reports whether the answer completed the team.
func (t *Team) Respond(actorID, memberID uint, accept bool, now time.Time) (bool, error) {
	i, ok := t.entry(memberID)
	if !ok {
		return false, ErrInviteNotFound
	}
	m := t.Members[i]

	switch m.Origin {
	case OriginJoinRequest:
		if actorID != t.LeaderID {
			return false, ErrNotAllowedToRespond
		}
	default:
		if actorID != memberID {
			return false, ErrNotAllowedToRespond
		}
	}
	if m.Status != MemberPending {
		return false, ErrInviteAlreadyAnswered
	}
	if t.Status != TeamForming {
		return false, ErrTeamNotForming
	}

	m.RespondedAt = &now
	if !accept {
		m.Status = MemberDeclined
		t.Members[i] = m

		return false, nil
	}

	if t.AcceptedCount() >= t.MaxSize {
		return false, ErrTeamFull
	}
	m.Status = MemberAccepted
	t.Members[i] = m

	if t.AcceptedCount() >= t.MaxSize {
		t.Status = TeamComplete
		return true, nil
	}

	return false, nil
}

// Leave removes the participant. A leaving leader disbands the team.
func (t *Team) Leave(participantID uint) (bool, error) {
	if t.LeaderID == participantID {
		t.Status = TeamCancelled
		return true, nil
	}

	i, ok := t.entry(participantID)
	if !ok {
		return false, ErrNotTeamMember
	}
	t.Members = append(t.Members[:i], t.Members[i+1:]...)
	if t.Status == TeamComplete {
		t.Status = TeamForming
	}

	return false, nil
}

func (t *Team) RecordOutcome(o MemberOutcome) {
	for i := range t.Outcomes {
		if t.Outcomes[i].ParticipantID == o.ParticipantID {
			t.Outcomes[i] = o
			return
		}
	}
	t.Outcomes = append(t.Outcomes, o)
}

func (t Team) Outcome(participantID uint) (MemberOutcome, bool) {
	for _, o := range t.Outcomes {
		if o.ParticipantID == participantID {
			return o, true
		}
	}

	return MemberOutcome{}, false
}

// PendingFanOut lists accepted participants whose registration has not been settled yet.
func (t Team) PendingFanOut() []uint {
	var ids []uint
	for _, id := range t.AcceptedParticipantIDs() {
		o, ok := t.Outcome(id)
		if !ok || o.Status == OutcomeFailed {
			ids = append(ids, id)
		}
	}

	return ids
}
