package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	db "github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/database"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/load"
)

// testPool connects to TEST_DATABASE_URL, migrates it and empties every
// table. The test is skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	_, err = pool.Exec(ctx, `TRUNCATE outcomes, registration, motivation, student,
		age_range, country, experience, track, referral, skill_level, aim, hours_available,
		etl_run RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func pgRecord(id, track, aim string) core.CleanRecord {
	return core.CleanRecord{
		RegistrationDate:  core.ToPgDate("2023-03-15"),
		RegistrationTime:  core.ToPgTime("12:00:00"),
		ID:                id,
		AgeRange:          "18-24",
		Gender:            "female",
		Country:           "South Africa",
		Referral:          "friend",
		Experience:        "none",
		Track:             track,
		HoursAvailable:    "7-14 hours",
		Aim:               aim,
		Motivation:        "career change",
		SkillLevel:        "beginner",
		SkillDescription:  "i have never coded",
		CompletedAptitude: core.ToPgBool("yes"),
		AptitudeScore:     core.ToPgFloat8("71.5"),
		Graduated:         core.ToPgBool("no"),
	}
}

func TestPostgres_LoadIsIdempotent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	pg := NewPostgres(pool)
	loader := load.NewLoader(pg, load.DefaultCountryResolver())

	records := []core.CleanRecord{
		pgRecord("S1", "data science", "learn"),
		pgRecord("S2", "web development", "network"),
	}

	if _, err := loader.Load(ctx, records); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	first, err := pg.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(ctx, records); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	second, err := pg.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for table, n := range first {
		if second[table] != n {
			t.Errorf("Counts()[%s] = %d after reload, want %d", table, second[table], n)
		}
	}
	if first["student"] != 2 || first["track"] != 2 || first["country"] != 1 {
		t.Errorf("Counts() = %v, want 2 students, 2 tracks, 1 country", first)
	}

	student, err := db.New(pool).GetStudent(ctx, "S1")
	if err != nil {
		t.Fatalf("GetStudent() error = %v", err)
	}
	if !student.Gender.Valid || student.Gender.String != "female" {
		t.Errorf("student.Gender = %+v, want female", student.Gender)
	}
}

func TestPostgres_RollbackAfterCommitIsNoop(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	tx, err := NewPostgres(pool).Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.UpsertDimension(ctx, core.CategoryTrack, load.DimensionKey{Value: "web"}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Errorf("Rollback() after Commit error = %v, want nil", err)
	}
}

func TestPostgres_RunLog(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	pg := NewPostgres(pool)

	run := core.RunRecord{RunID: uuid.New(), FileName: "survey.xlsx", StartedAt: time.Now()}
	if err := pg.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	run.Status = core.RunFailed
	run.ErrorKind = core.KindUnknownCategory
	run.ErrorMessage = "unknown aim"
	if err := pg.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	runs, err := pg.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].RunID != run.RunID || runs[0].ErrorKind != core.KindUnknownCategory {
		t.Errorf("RecentRuns() = %+v, want the failed run", runs)
	}

	got, err := pg.Run(ctx, run.RunID)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.ErrorMessage != "unknown aim" || got.FinishedAt.IsZero() {
		t.Errorf("Run() = %+v, want finished with message", got)
	}
	if _, err := pg.Run(ctx, uuid.New()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Run(unknown) error = %v, want ErrRunNotFound", err)
	}
}
