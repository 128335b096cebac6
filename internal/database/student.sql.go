package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// EntityTables lists the tables that reference the dimensions, children last.
var EntityTables = []string{
	"student",
	"motivation",
	"registration",
	"outcomes",
}

const upsertStudent = `
INSERT INTO student (
    id, gender, age_range_id, country_id, experience_id,
    track_id, referral_id, skill_level_id, hours_available_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    gender = EXCLUDED.gender,
    age_range_id = EXCLUDED.age_range_id,
    country_id = EXCLUDED.country_id,
    experience_id = EXCLUDED.experience_id,
    track_id = EXCLUDED.track_id,
    referral_id = EXCLUDED.referral_id,
    skill_level_id = EXCLUDED.skill_level_id,
    hours_available_id = EXCLUDED.hours_available_id
`

type UpsertStudentParams struct {
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

func (q *Queries) UpsertStudent(ctx context.Context, arg UpsertStudentParams) error {
	_, err := q.db.Exec(ctx, upsertStudent,
		arg.ID,
		arg.Gender,
		arg.AgeRangeID,
		arg.CountryID,
		arg.ExperienceID,
		arg.TrackID,
		arg.ReferralID,
		arg.SkillLevelID,
		arg.HoursAvailableID,
	)
	return err
}

const studentExists = `
SELECT EXISTS (SELECT 1 FROM student WHERE id = $1)
`

func (q *Queries) StudentExists(ctx context.Context, id string) (bool, error) {
	row := q.db.QueryRow(ctx, studentExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const getStudent = `
SELECT id, gender, age_range_id, country_id, experience_id,
       track_id, referral_id, skill_level_id, hours_available_id
FROM student
WHERE id = $1
`

func (q *Queries) GetStudent(ctx context.Context, id string) (Student, error) {
	row := q.db.QueryRow(ctx, getStudent, id)
	var i Student
	err := row.Scan(
		&i.ID,
		&i.Gender,
		&i.AgeRangeID,
		&i.CountryID,
		&i.ExperienceID,
		&i.TrackID,
		&i.ReferralID,
		&i.SkillLevelID,
		&i.HoursAvailableID,
	)
	return i, err
}

const upsertMotivation = `
INSERT INTO motivation (student_id, aim_id, motivation)
VALUES ($1, $2, $3)
ON CONFLICT (student_id, aim_id) DO UPDATE SET motivation = EXCLUDED.motivation
`

type UpsertMotivationParams struct {
	StudentID  string
	AimID      int64
	Motivation pgtype.Text
}

func (q *Queries) UpsertMotivation(ctx context.Context, arg UpsertMotivationParams) error {
	_, err := q.db.Exec(ctx, upsertMotivation, arg.StudentID, arg.AimID, arg.Motivation)
	return err
}

const upsertRegistration = `
INSERT INTO registration (student_id, registration_date, registration_time)
VALUES ($1, $2, $3)
ON CONFLICT (student_id) DO UPDATE SET
    registration_date = EXCLUDED.registration_date,
    registration_time = EXCLUDED.registration_time
`

type UpsertRegistrationParams struct {
	StudentID        string
	RegistrationDate pgtype.Date
	RegistrationTime pgtype.Time
}

func (q *Queries) UpsertRegistration(ctx context.Context, arg UpsertRegistrationParams) error {
	_, err := q.db.Exec(ctx, upsertRegistration, arg.StudentID, arg.RegistrationDate, arg.RegistrationTime)
	return err
}

const upsertOutcomes = `
INSERT INTO outcomes (student_id, completed_aptitude, aptitude_score, graduated)
VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id) DO UPDATE SET
    completed_aptitude = EXCLUDED.completed_aptitude,
    aptitude_score = EXCLUDED.aptitude_score,
    graduated = EXCLUDED.graduated
`

type UpsertOutcomesParams struct {
	StudentID         string
	CompletedAptitude pgtype.Bool
	AptitudeScore     pgtype.Float8
	Graduated         pgtype.Bool
}

func (q *Queries) UpsertOutcomes(ctx context.Context, arg UpsertOutcomesParams) error {
	_, err := q.db.Exec(ctx, upsertOutcomes,
		arg.StudentID,
		arg.CompletedAptitude,
		arg.AptitudeScore,
		arg.Graduated,
	)
	return err
}
