package load_test

import (
	"context"
	"errors"
	"maps"
	"testing"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/load"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/store"
)

func record(id, track, aim string) core.CleanRecord {
	return core.CleanRecord{
		RegistrationDate:  core.ToPgDate("2023-03-15"),
		RegistrationTime:  core.ToPgTime("09:30:00"),
		ID:                id,
		AgeRange:          "18-24",
		Gender:            "male",
		Country:           "Nigeria",
		Referral:          "Geeks for Geeks",
		Experience:        "less than six months",
		Track:             track,
		HoursAvailable:    "7-14 hours",
		Aim:               aim,
		Motivation:        "get a job",
		SkillLevel:        "beginner",
		SkillDescription:  "i have some basics",
		CompletedAptitude: core.ToPgBool("yes"),
		AptitudeScore:     core.ToPgFloat8("64"),
		Graduated:         core.ToPgBool("no"),
	}
}

// ============================================================================
// Load
// ============================================================================

func TestLoad_WritesEveryTable(t *testing.T) {
	mem := store.NewMemory()
	records := []core.CleanRecord{
		record("S1", "data science", "learn"),
		record("S2", "web development", "network"),
		record("S3", "data science", "upskill"),
	}

	summary, err := load.NewLoader(mem, load.DefaultCountryResolver()).Load(context.Background(), records)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if summary.Students != 3 || summary.Motivations != 3 || summary.Registrations != 3 || summary.Outcomes != 3 {
		t.Errorf("summary = %+v, want 3 of each entity", summary)
	}
	if summary.Dimensions[core.CategoryTrack] != 2 || summary.Dimensions[core.CategoryAim] != 3 {
		t.Errorf("summary.Dimensions = %v, want 2 tracks and 3 aims", summary.Dimensions)
	}

	counts := mem.Counts()
	want := map[string]int{
		"age_range": 1, "country": 1, "experience": 1, "track": 2, "referral": 1,
		"skill_level": 1, "aim": 3, "hours_available": 1,
		"student": 3, "motivation": 3, "registration": 3, "outcomes": 3,
	}
	if !maps.Equal(counts, want) {
		t.Errorf("Counts() = %v, want %v", counts, want)
	}

	if rows := mem.Dimension(core.CategoryCountry); len(rows) != 1 || rows[0].Key.Value != "NG" {
		t.Errorf("country rows = %+v, want [NG]", rows)
	}

	tracks := mem.Dimension(core.CategoryTrack)
	students := mem.Students()
	if students[1].TrackID != tracks[1].ID || tracks[1].Key.Value != "web development" {
		t.Errorf("S2 track id = %d, want id of web development (%+v)", students[1].TrackID, tracks)
	}

	out, ok := mem.Outcomes("S1")
	if !ok || !out.CompletedAptitude.Bool || out.Graduated.Bool || out.AptitudeScore.Float64 != 64 {
		t.Errorf("Outcomes(S1) = %+v, %v", out, ok)
	}
	reg, ok := mem.Registration("S1")
	if !ok || !reg.Date.Valid || core.FormatTime(reg.Time) != "09:30:00" {
		t.Errorf("Registration(S1) = %+v, %v", reg, ok)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	loader := load.NewLoader(mem, load.DefaultCountryResolver())
	records := []core.CleanRecord{
		record("S1", "data science", "learn"),
		record("S2", "web development", "network"),
	}

	if _, err := loader.Load(context.Background(), records); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	first := mem.Counts()
	firstTracks := mem.Dimension(core.CategoryTrack)

	if _, err := loader.Load(context.Background(), records); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second := mem.Counts(); !maps.Equal(first, second) {
		t.Errorf("Counts() after reload = %v, want %v", second, first)
	}
	secondTracks := mem.Dimension(core.CategoryTrack)
	for i := range firstTracks {
		if firstTracks[i] != secondTracks[i] {
			t.Errorf("track row %d = %+v after reload, want %+v", i, secondTracks[i], firstTracks[i])
		}
	}
}

func TestLoad_DuplicateStudentLastWins(t *testing.T) {
	mem := store.NewMemory()
	first := record("S1", "data science", "learn")
	second := record("S1", "web development", "network")

	summary, err := load.NewLoader(mem, nil).Load(context.Background(), []core.CleanRecord{first, second})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if summary.Students != 1 {
		t.Errorf("summary.Students = %d, want 1", summary.Students)
	}

	students := mem.Students()
	tracks := mem.Dimension(core.CategoryTrack)
	if len(students) != 1 || students[0].TrackID != tracks[1].ID {
		t.Errorf("students = %+v, want S1 on the second track %+v", students, tracks)
	}
	// Both aims are kept as separate motivations.
	if got := mem.Motivations("S1"); len(got) != 2 {
		t.Errorf("Motivations(S1) = %+v, want 2", got)
	}
}

func TestLoad_UnresolvedCountryStoredAsGiven(t *testing.T) {
	mem := store.NewMemory()
	r := record("S1", "web development", "learn")
	r.Country = "Wakanda"

	if _, err := load.NewLoader(mem, load.DefaultCountryResolver()).Load(context.Background(), []core.CleanRecord{r}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rows := mem.Dimension(core.CategoryCountry); len(rows) != 1 || rows[0].Key.Value != "Wakanda" {
		t.Errorf("country rows = %+v, want [Wakanda]", rows)
	}
}

func TestLoad_EmptyBatch(t *testing.T) {
	mem := store.NewMemory()
	summary, err := load.NewLoader(mem, nil).Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if summary.Students != 0 {
		t.Errorf("summary.Students = %d, want 0", summary.Students)
	}
}

// ============================================================================
// Integrity
// ============================================================================

// hidingStore drops one category's rows from the id lookups so the loader
// sees references that do not exist.
type hidingStore struct {
	load.Store
	hide     core.Category
	staleIDs bool
}

func (s hidingStore) Begin(ctx context.Context) (load.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &hidingTx{Tx: tx, hide: s.hide, staleIDs: s.staleIDs}, nil
}

type hidingTx struct {
	load.Tx
	hide     core.Category
	staleIDs bool
}

func (tx *hidingTx) DimensionIDs(ctx context.Context, c core.Category) (map[load.DimensionKey]int64, error) {
	ids, err := tx.Tx.DimensionIDs(ctx, c)
	if err != nil || c != tx.hide {
		return ids, err
	}
	if tx.staleIDs {
		for k := range ids {
			ids[k] += 1000
		}
		return ids, nil
	}
	return map[load.DimensionKey]int64{}, nil
}

func TestLoad_IntegrityViolationWritesNoStudents(t *testing.T) {
	tests := []struct {
		name        string
		staleIDs    bool
		wantMissing bool
	}{
		{name: "value with no id", staleIDs: false},
		{name: "id that does not exist", staleIDs: true, wantMissing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			s := hidingStore{Store: mem, hide: core.CategoryTrack, staleIDs: tt.staleIDs}
			records := []core.CleanRecord{
				record("S1", "data science", "learn"),
				record("S2", "web development", "network"),
			}

			_, err := load.NewLoader(s, nil).Load(context.Background(), records)

			var iv *core.IntegrityViolationError
			if !errors.As(err, &iv) {
				t.Fatalf("Load() error = %v, want IntegrityViolationError", err)
			}
			if iv.Field != "track_id" {
				t.Errorf("Field = %q, want track_id", iv.Field)
			}
			if tt.wantMissing && len(iv.Missing) != 2 {
				t.Errorf("Missing = %v, want 2 ids", iv.Missing)
			}
			if !tt.wantMissing && len(iv.MissingValues) != 2 {
				t.Errorf("MissingValues = %v, want 2 values", iv.MissingValues)
			}
			if len(iv.Rows) != 2 {
				t.Errorf("Rows = %v, want both students", iv.Rows)
			}

			for table, n := range mem.Counts() {
				if n != 0 {
					t.Errorf("Counts()[%s] = %d, want 0 after failed load", table, n)
				}
			}
		})
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mem := store.NewMemory()
	_, err := load.NewLoader(mem, nil).Load(ctx, []core.CleanRecord{record("S1", "web", "learn")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
	if mem.Counts()["student"] != 0 {
		t.Error("student written despite cancelled context")
	}
}

// failingStore hands out transactions whose outcomes upserts always fail.
type failingStore struct{ load.Store }

func (s failingStore) Begin(ctx context.Context) (load.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingTx{tx}, nil
}

type failingTx struct{ load.Tx }

func (failingTx) UpsertOutcomes(context.Context, load.Outcomes) error {
	return errors.New("disk full")
}

func TestLoad_ChildFailureRollsBackStudents(t *testing.T) {
	mem := store.NewMemory()
	_, err := load.NewLoader(failingStore{mem}, nil).Load(context.Background(), []core.CleanRecord{record("S1", "web", "learn")})
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	for table, n := range mem.Counts() {
		if n != 0 {
			t.Errorf("Counts()[%s] = %d, want 0 after rollback", table, n)
		}
	}
}
