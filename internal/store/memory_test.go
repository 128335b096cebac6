package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/load"
)

func begin(t *testing.T, m *Memory) load.Tx {
	t.Helper()
	tx, err := m.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	return tx
}

// seedStudentDimensions inserts one row per student category and returns a
// student referencing them.
func seedStudentDimensions(t *testing.T, tx load.Tx, id string) load.Student {
	t.Helper()
	ctx := context.Background()
	s := load.Student{ID: id, Gender: "female"}
	values := map[core.Category]load.DimensionKey{
		core.CategoryAgeRange:       {Value: "18-24"},
		core.CategoryCountry:        {Value: "ZA"},
		core.CategoryExperience:     {Value: "none"},
		core.CategoryTrack:          {Value: "data science"},
		core.CategoryReferral:       {Value: "friend"},
		core.CategorySkillLevel:     {Value: "beginner", Description: "i know nothing"},
		core.CategoryHoursAvailable: {Value: "7-14 hours"},
	}
	ids := make(map[core.Category]int64)
	for c, k := range values {
		id, err := tx.UpsertDimension(ctx, c, k)
		if err != nil {
			t.Fatalf("UpsertDimension(%s) error = %v", c, err)
		}
		ids[c] = id
	}
	s.AgeRangeID = ids[core.CategoryAgeRange]
	s.CountryID = ids[core.CategoryCountry]
	s.ExperienceID = ids[core.CategoryExperience]
	s.TrackID = ids[core.CategoryTrack]
	s.ReferralID = ids[core.CategoryReferral]
	s.SkillLevelID = ids[core.CategorySkillLevel]
	s.HoursAvailableID = ids[core.CategoryHoursAvailable]
	return s
}

// ============================================================================
// Transactions
// ============================================================================

func TestMemory_CommitPublishesState(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx := begin(t, m)
	s := seedStudentDimensions(t, tx, "S1")
	if err := tx.UpsertStudent(ctx, s); err != nil {
		t.Fatalf("UpsertStudent() error = %v", err)
	}

	if got := m.Counts()["student"]; got != 0 {
		t.Errorf("uncommitted student count = %d, want 0", got)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := m.Counts()["student"]; got != 1 {
		t.Errorf("committed student count = %d, want 1", got)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Errorf("Rollback() after Commit error = %v, want nil", err)
	}
}

func TestMemory_RollbackDiscardsEverything(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx := begin(t, m)
	s := seedStudentDimensions(t, tx, "S1")
	if err := tx.UpsertStudent(ctx, s); err != nil {
		t.Fatalf("UpsertStudent() error = %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	for table, n := range m.Counts() {
		if n != 0 {
			t.Errorf("Counts()[%s] = %d, want 0 after rollback", table, n)
		}
	}

	// The store is usable again after rollback.
	tx = begin(t, m)
	if _, err := tx.UpsertDimension(ctx, core.CategoryTrack, load.DimensionKey{Value: "web"}); err != nil {
		t.Fatalf("UpsertDimension() error = %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := m.Dimension(core.CategoryTrack); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Dimension(track) = %+v, want one row with id 1", got)
	}
}

func TestMemory_ClosedTransactionRejectsWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx := begin(t, m)
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if _, err := tx.UpsertDimension(ctx, core.CategoryAim, load.DimensionKey{Value: "learn"}); err == nil {
		t.Error("UpsertDimension() after Commit error = nil, want error")
	}
}

func TestMemory_BeginHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Begin(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Begin() error = %v, want context.Canceled", err)
	}
}

// ============================================================================
// Upserts
// ============================================================================

func TestMemory_UpsertDimensionIsIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := begin(t, m)
	defer tx.Rollback(ctx)

	first, err := tx.UpsertDimension(ctx, core.CategoryAim, load.DimensionKey{Value: "learn"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := tx.UpsertDimension(ctx, core.CategoryAim, load.DimensionKey{Value: "network"})
	if err != nil {
		t.Fatal(err)
	}
	again, err := tx.UpsertDimension(ctx, core.CategoryAim, load.DimensionKey{Value: "learn"})
	if err != nil {
		t.Fatal(err)
	}

	if first != 1 || second != 2 || again != first {
		t.Errorf("ids = %d, %d, %d, want 1, 2, 1", first, second, again)
	}
}

func TestMemory_SkillLevelKeyedByPair(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := begin(t, m)
	defer tx.Rollback(ctx)

	a, _ := tx.UpsertDimension(ctx, core.CategorySkillLevel, load.DimensionKey{Value: "beginner", Description: "new to it"})
	b, _ := tx.UpsertDimension(ctx, core.CategorySkillLevel, load.DimensionKey{Value: "beginner", Description: "some basics"})
	if a == b {
		t.Errorf("distinct descriptions share id %d", a)
	}

	// Descriptions are ignored for single-valued categories.
	c, _ := tx.UpsertDimension(ctx, core.CategoryTrack, load.DimensionKey{Value: "web", Description: "x"})
	d, _ := tx.UpsertDimension(ctx, core.CategoryTrack, load.DimensionKey{Value: "web"})
	if c != d {
		t.Errorf("track ids = %d, %d, want equal", c, d)
	}
}

func TestMemory_ExistingIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := begin(t, m)
	defer tx.Rollback(ctx)

	id, _ := tx.UpsertDimension(ctx, core.CategoryTrack, load.DimensionKey{Value: "web"})
	got, err := tx.ExistingIDs(ctx, core.CategoryTrack, []int64{id, 42})
	if err != nil {
		t.Fatal(err)
	}
	if !got[id] || got[42] {
		t.Errorf("ExistingIDs() = %v, want only %d", got, id)
	}
}

func TestMemory_StudentRequiresDimensions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := begin(t, m)
	defer tx.Rollback(ctx)

	s := seedStudentDimensions(t, tx, "S1")
	s.TrackID = 99
	if err := tx.UpsertStudent(ctx, s); err == nil {
		t.Error("UpsertStudent() with missing track error = nil, want error")
	}
}

func TestMemory_ChildRowsRequireStudent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := begin(t, m)
	defer tx.Rollback(ctx)

	aim, _ := tx.UpsertDimension(ctx, core.CategoryAim, load.DimensionKey{Value: "learn"})
	if err := tx.UpsertMotivation(ctx, load.Motivation{StudentID: "ghost", AimID: aim}); err == nil {
		t.Error("UpsertMotivation() for unknown student error = nil, want error")
	}
	if err := tx.UpsertRegistration(ctx, load.Registration{StudentID: "ghost"}); err == nil {
		t.Error("UpsertRegistration() for unknown student error = nil, want error")
	}
	if err := tx.UpsertOutcomes(ctx, load.Outcomes{StudentID: "ghost"}); err == nil {
		t.Error("UpsertOutcomes() for unknown student error = nil, want error")
	}
}

func TestMemory_MotivationUniquePerStudentAndAim(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tx := begin(t, m)

	s := seedStudentDimensions(t, tx, "S1")
	if err := tx.UpsertStudent(ctx, s); err != nil {
		t.Fatal(err)
	}
	aim, _ := tx.UpsertDimension(ctx, core.CategoryAim, load.DimensionKey{Value: "learn"})
	for _, text := range []string{"first", "second"} {
		if err := tx.UpsertMotivation(ctx, load.Motivation{StudentID: "S1", AimID: aim, Motivation: text}); err != nil {
			t.Fatal(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	got := m.Motivations("S1")
	if len(got) != 1 || got[0].Motivation != "second" {
		t.Errorf("Motivations(S1) = %+v, want one row with latest text", got)
	}
}

// ============================================================================
// Run log
// ============================================================================

func TestMemory_RunLog(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	run := core.RunRecord{RunID: uuid.New(), FileName: "survey.xlsx", Status: core.RunRunning, StartedAt: time.Now()}

	if err := m.FinishRun(ctx, run); err == nil {
		t.Error("FinishRun() before StartRun error = nil, want error")
	}
	if err := m.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	run.Status = core.RunSucceeded
	run.StudentsLoaded = 3
	if err := m.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	got, ok := m.Run(run.RunID)
	if !ok || got.Status != core.RunSucceeded || got.StudentsLoaded != 3 {
		t.Errorf("Run() = %+v, %v, want succeeded with 3 students", got, ok)
	}
}
