package load

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// Store opens transactions against the relational store.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one unit of work. Every write is an upsert by natural key, so
// applying the same batch twice leaves the store unchanged.
//
// Rollback after Commit must be a no-op so callers can defer it.
type Tx interface {
	// UpsertDimension inserts key into category c if absent and returns
	// its persisted id.
	UpsertDimension(ctx context.Context, c core.Category, key DimensionKey) (int64, error)
	// DimensionIDs returns the persisted id of every key in category c.
	DimensionIDs(ctx context.Context, c core.Category) (map[DimensionKey]int64, error)
	// ExistingIDs returns the subset of ids present in category c.
	ExistingIDs(ctx context.Context, c core.Category, ids []int64) (map[int64]bool, error)

	UpsertStudent(ctx context.Context, s Student) error
	StudentExists(ctx context.Context, studentID string) (bool, error)
	UpsertMotivation(ctx context.Context, m Motivation) error
	UpsertRegistration(ctx context.Context, r Registration) error
	UpsertOutcomes(ctx context.Context, o Outcomes) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Student is the entity row; every *ID field references a dimension row.
type Student struct {
	ID               string
	Gender           string
	AgeRangeID       int64
	CountryID        int64
	ExperienceID     int64
	TrackID          int64
	ReferralID       int64
	SkillLevelID     int64
	HoursAvailableID int64
}

// ForeignKey returns the student's reference into category c.
func (s *Student) ForeignKey(c core.Category) int64 {
	switch c {
	case core.CategoryAgeRange:
		return s.AgeRangeID
	case core.CategoryCountry:
		return s.CountryID
	case core.CategoryExperience:
		return s.ExperienceID
	case core.CategoryTrack:
		return s.TrackID
	case core.CategoryReferral:
		return s.ReferralID
	case core.CategorySkillLevel:
		return s.SkillLevelID
	case core.CategoryHoursAvailable:
		return s.HoursAvailableID
	}
	return 0
}

func (s *Student) setForeignKey(c core.Category, id int64) {
	switch c {
	case core.CategoryAgeRange:
		s.AgeRangeID = id
	case core.CategoryCountry:
		s.CountryID = id
	case core.CategoryExperience:
		s.ExperienceID = id
	case core.CategoryTrack:
		s.TrackID = id
	case core.CategoryReferral:
		s.ReferralID = id
	case core.CategorySkillLevel:
		s.SkillLevelID = id
	case core.CategoryHoursAvailable:
		s.HoursAvailableID = id
	}
}

// StudentCategories lists the dimensions a Student references, in column order.
var StudentCategories = []core.Category{
	core.CategoryAgeRange,
	core.CategoryCountry,
	core.CategoryExperience,
	core.CategoryTrack,
	core.CategoryReferral,
	core.CategorySkillLevel,
	core.CategoryHoursAvailable,
}

// ForeignKeyField names the student column referencing category c.
func ForeignKeyField(c core.Category) string {
	return string(c) + "_id"
}

// Motivation is unique per (StudentID, AimID).
type Motivation struct {
	StudentID  string
	AimID      int64
	Motivation string
}

// Registration is unique per student.
type Registration struct {
	StudentID string
	Date      pgtype.Date
	Time      pgtype.Time
}

// Outcomes is unique per student.
type Outcomes struct {
	StudentID         string
	CompletedAptitude pgtype.Bool
	AptitudeScore     pgtype.Float8
	Graduated         pgtype.Bool
}
