package models

import (
	"strings"
	"time"
)

// Event is a shared-expense event as listed by the backend.
type Event struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewEvent is the payload for creating an event.
type NewEvent struct {
	Name         string
	Description  string
	Participants []string
}

// ParticipantsField renders participants the way the backend parses them:
// a comma-separated list with blanks dropped.
func (e NewEvent) ParticipantsField() string {
	names := make([]string, 0, len(e.Participants))
	for _, p := range e.Participants {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return strings.Join(names, ", ")
}

// ParseParticipants splits a comma-separated participant list.
func ParseParticipants(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
