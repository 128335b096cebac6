package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Dimension is one row of a lookup table. Description is empty for every
// table except skill_level.
type Dimension struct {
	ID          int64
	Value       string
	Description string
}

type Student struct {
	ID               string
	Gender           pgtype.Text
	AgeRangeID       int64
	CountryID        int64
	ExperienceID     int64
	TrackID          int64
	ReferralID       int64
	SkillLevelID     int64
	HoursAvailableID int64
}

type Motivation struct {
	ID         int64
	StudentID  string
	AimID      int64
	Motivation pgtype.Text
}

type Registration struct {
	StudentID        string
	RegistrationDate pgtype.Date
	RegistrationTime pgtype.Time
}

type Outcome struct {
	StudentID         string
	CompletedAptitude pgtype.Bool
	AptitudeScore     pgtype.Float8
	Graduated         pgtype.Bool
}

type EtlRun struct {
	RunID          pgtype.UUID
	FileName       string
	Status         string
	RowsRead       int32
	StudentsLoaded int32
	ErrorKind      pgtype.Text
	ErrorMessage   pgtype.Text
	StartedAt      pgtype.Timestamptz
	FinishedAt     pgtype.Timestamptz
}
