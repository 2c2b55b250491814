package service

import (
	"fmt"

	"lottery/models"
)

// SelectWinner returns the participant pair at index. The index comes from an external
// draw and addresses pairs, not raw account positions.
func SelectWinner(roster *Roster, index uint32) (models.ParticipantEntry, error) {
	if uint64(index) >= uint64(roster.Len()) {
		return models.ParticipantEntry{}, fmt.Errorf("%w: index %d with %d participants", ErrIndexOutOfRange, index, roster.Len())
	}
	return roster.entries[index], nil
}
