package domain

import "time"

type SenderKind string

const (
	SenderParticipant SenderKind = "participant"
	SenderOrganizer   SenderKind = "organizer"
)

// SenderRef identifies a forum author across the participant and organizer id spaces.
type SenderRef struct {
	Kind SenderKind `json:"kind"`
	ID   uint       `json:"id"`
}

func ParticipantRef(id uint) SenderRef {
	return SenderRef{Kind: SenderParticipant, ID: id}
}

func OrganizerRef(id uint) SenderRef {
	return SenderRef{Kind: SenderOrganizer, ID: id}
}

type Sender struct {
	SenderRef
	Name string `json:"name"`
}

type Reaction struct {
	Emoji    string      `json:"emoji"`
	Reactors []SenderRef `json:"reactors"`
}

type ForumMessage struct {
	ID             uint       `json:"id"`
	EventID        uint       `json:"event_id"`
	Sender         Sender     `json:"sender"`
	Content        string     `json:"content"`
	ParentID       *uint      `json:"parent_id,omitempty"`
	IsAnnouncement bool       `json:"is_announcement"`
	IsPinned       bool       `json:"is_pinned"`
	IsDeleted      bool       `json:"is_deleted"`
	Reactions      []Reaction `json:"reactions"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToggleReaction adds or removes the reactor from the emoji group.
func (m *ForumMessage) ToggleReaction(emoji string, by SenderRef) {
	for i, r := range m.Reactions {
		if r.Emoji != emoji {
			continue
		}
		for j, who := range r.Reactors {
			if who == by {
				r.Reactors = append(r.Reactors[:j], r.Reactors[j+1:]...)
				if len(r.Reactors) == 0 {
					m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
				} else {
					m.Reactions[i] = r
				}
				return
			}
		}
		m.Reactions[i].Reactors = append(r.Reactors, by)
		return
	}

	m.Reactions = append(m.Reactions, Reaction{Emoji: emoji, Reactors: []SenderRef{by}})
}
