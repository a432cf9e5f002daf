package entities

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Voter struct {
	VoterID    string
	StudentID  string
	ElectionID string
	Name       string
	Level      string
	Gender     Gender
	HasVoted   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
