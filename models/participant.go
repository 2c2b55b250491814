package models

// ParticipantEntry pairs the account that receives the prize with the holding
// that proves the participant may enter
type ParticipantEntry struct {
	PayoutTarget *Account
	Eligibility  *Account
}
