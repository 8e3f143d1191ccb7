package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvent_ParticipantsField(t *testing.T) {
	e := NewEvent{Participants: []string{" john", "", "anna ", "  ", "mike"}}
	assert.Equal(t, "john, anna, mike", e.ParticipantsField())
	assert.Equal(t, "", NewEvent{}.ParticipantsField())
}

func TestParseParticipants(t *testing.T) {
	assert.Equal(t, []string{"john", "anna", "mike"}, ParseParticipants("john, anna,,mike "))
	assert.Nil(t, ParseParticipants(" , "))
}
