// Package load derives dimension tables from clean records and writes them,
// with students and their child rows, to the store in one transaction.
package load

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/logging"
)

// LoadSummary counts what one load wrote.
type LoadSummary struct {
	Dimensions    map[core.Category]int
	Students      int
	Motivations   int
	Registrations int
	Outcomes      int
	Duration      time.Duration
}

// Loader writes clean records to a Store.
type Loader struct {
	store     Store
	countries *CountryResolver
}

// NewLoader creates a Loader. A nil resolver stores country answers as given.
func NewLoader(store Store, countries *CountryResolver) *Loader {
	return &Loader{store: store, countries: countries}
}

// Load upserts the dimension tables, students, motivations, registrations
// and outcomes derived from records inside a single transaction. Any error
// rolls the whole batch back.
func (l *Loader) Load(ctx context.Context, records []core.CleanRecord) (*LoadSummary, error) {
	start := time.Now()
	log := logging.WithFields(ctx, "stage", "load")

	tables := BuildCategoryTables(records)

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	summary := &LoadSummary{Dimensions: make(map[core.Category]int, len(core.Categories))}

	// Step 1: dimensions, keyed by value.
	for _, table := range tables.All() {
		stored := make(map[DimensionKey]bool)
		for _, e := range table.Entries() {
			key := l.storedKey(table.Category, e.Key)
			if table.Category == core.CategoryCountry && !l.countryKnown(e.Key.Value) {
				log.Warn("country not recognised, stored as given", "country", key.Value)
			}
			if stored[key] {
				continue
			}
			if _, err := tx.UpsertDimension(ctx, table.Category, key); err != nil {
				log.Error("dimension upsert failed", "category", table.Category, "value", key.Value, "error", err)
				return nil, fmt.Errorf("upsert %s %q: %w", table.Category, key.Value, err)
			}
			stored[key] = true
		}
		summary.Dimensions[table.Category] = len(stored)
	}

	// Step 2: persisted ids by value.
	ids := make(map[core.Category]map[DimensionKey]int64, len(core.Categories))
	for _, c := range core.Categories {
		m, err := tx.DimensionIDs(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("read %s ids: %w", c, err)
		}
		ids[c] = m
	}

	students, err := l.resolveStudents(records, ids)
	if err != nil {
		log.Error("foreign key resolution failed", "error", err)
		return nil, err
	}

	// Step 3: every referenced id must exist before any student is written.
	if err := validateForeignKeys(ctx, tx, students); err != nil {
		log.Error("integrity check failed", "error", err)
		return nil, err
	}

	// Step 4: students.
	for _, s := range students {
		if err := tx.UpsertStudent(ctx, s); err != nil {
			log.Error("student upsert failed", "student_id", s.ID, "error", err)
			return nil, fmt.Errorf("upsert student %s: %w", s.ID, err)
		}
	}
	summary.Students = len(students)

	// Step 5: child rows, resolved by lookup.
	if err := l.loadChildren(ctx, tx, records, ids[core.CategoryAim], summary); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	summary.Duration = time.Since(start)
	log.Info("load committed",
		"students", summary.Students,
		"motivations", summary.Motivations,
		"duration", summary.Duration,
	)
	return summary, nil
}

// storedKey returns the value persisted for key; country answers are
// stored as ISO codes when they resolve.
func (l *Loader) storedKey(c core.Category, key DimensionKey) DimensionKey {
	if c != core.CategoryCountry || l.countries == nil {
		return key
	}
	code, ok := l.countries.Resolve(key.Value)
	if !ok {
		return key
	}
	return DimensionKey{Value: code}
}

func (l *Loader) countryKnown(raw string) bool {
	if l.countries == nil {
		return true
	}
	_, ok := l.countries.Resolve(raw)
	return ok
}

// resolveStudents builds one Student per distinct id; the last record for
// an id wins. Keys that resolve to no persisted id fail the whole batch.
func (l *Loader) resolveStudents(records []core.CleanRecord, ids map[core.Category]map[DimensionKey]int64) ([]Student, error) {
	order := make([]string, 0, len(records))
	byID := make(map[string]Student, len(records))
	unresolved := make(map[core.Category][]string)
	unresolvedRows := make(map[core.Category][]string)

	for i := range records {
		rec := &records[i]
		s := Student{ID: rec.ID, Gender: rec.Gender}
		for _, c := range StudentCategories {
			key := l.storedKey(c, KeyFor(rec, c))
			id, ok := ids[c][key]
			if !ok {
				if !slices.Contains(unresolved[c], key.Value) {
					unresolved[c] = append(unresolved[c], key.Value)
				}
				unresolvedRows[c] = append(unresolvedRows[c], rec.ID)
				continue
			}
			s.setForeignKey(c, id)
		}
		if _, seen := byID[rec.ID]; !seen {
			order = append(order, rec.ID)
		}
		byID[rec.ID] = s
	}

	for _, c := range StudentCategories {
		if len(unresolved[c]) > 0 {
			return nil, &core.IntegrityViolationError{
				Field:         ForeignKeyField(c),
				MissingValues: unresolved[c],
				Rows:          unresolvedRows[c],
			}
		}
	}

	out := make([]Student, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	return out, nil
}

// validateForeignKeys confirms every referenced dimension id exists.
func validateForeignKeys(ctx context.Context, tx Tx, students []Student) error {
	for _, c := range StudentCategories {
		var refs []int64
		seen := make(map[int64]bool)
		for i := range students {
			id := students[i].ForeignKey(c)
			if !seen[id] {
				seen[id] = true
				refs = append(refs, id)
			}
		}
		if len(refs) == 0 {
			continue
		}

		existing, err := tx.ExistingIDs(ctx, c, refs)
		if err != nil {
			return fmt.Errorf("check %s ids: %w", c, err)
		}

		var missing []int64
		for _, id := range refs {
			if !existing[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			continue
		}

		var rows []string
		for i := range students {
			if slices.Contains(missing, students[i].ForeignKey(c)) {
				rows = append(rows, students[i].ID)
			}
		}
		return &core.IntegrityViolationError{Field: ForeignKeyField(c), Missing: missing, Rows: rows}
	}
	return nil
}

func (l *Loader) loadChildren(ctx context.Context, tx Tx, records []core.CleanRecord, aims map[DimensionKey]int64, summary *LoadSummary) error {
	log := logging.WithFields(ctx, "stage", "load")
	motivations := make(map[Motivation]bool)
	checked := make(map[string]bool)

	for i := range records {
		rec := &records[i]

		if !checked[rec.ID] {
			ok, err := tx.StudentExists(ctx, rec.ID)
			if err != nil {
				return fmt.Errorf("check student %s: %w", rec.ID, err)
			}
			if !ok {
				log.Error("student missing for child rows", "student_id", rec.ID)
				return &core.IntegrityViolationError{Field: "student_id", MissingValues: []string{rec.ID}, Rows: []string{rec.ID}}
			}
			checked[rec.ID] = true
		}

		aimID, ok := aims[KeyFor(rec, core.CategoryAim)]
		if !ok {
			return &core.IntegrityViolationError{Field: "aim_id", MissingValues: []string{rec.Aim}, Rows: []string{rec.ID}}
		}

		m := Motivation{StudentID: rec.ID, AimID: aimID, Motivation: rec.Motivation}
		if err := tx.UpsertMotivation(ctx, m); err != nil {
			log.Error("motivation upsert failed", "student_id", rec.ID, "error", err)
			return fmt.Errorf("upsert motivation for %s: %w", rec.ID, err)
		}
		motivations[Motivation{StudentID: rec.ID, AimID: aimID}] = true

		if err := tx.UpsertRegistration(ctx, Registration{
			StudentID: rec.ID,
			Date:      rec.RegistrationDate,
			Time:      rec.RegistrationTime,
		}); err != nil {
			log.Error("registration upsert failed", "student_id", rec.ID, "error", err)
			return fmt.Errorf("upsert registration for %s: %w", rec.ID, err)
		}

		if err := tx.UpsertOutcomes(ctx, Outcomes{
			StudentID:         rec.ID,
			CompletedAptitude: rec.CompletedAptitude,
			AptitudeScore:     rec.AptitudeScore,
			Graduated:         rec.Graduated,
		}); err != nil {
			log.Error("outcomes upsert failed", "student_id", rec.ID, "error", err)
			return fmt.Errorf("upsert outcomes for %s: %w", rec.ID, err)
		}
	}

	summary.Motivations = len(motivations)
	summary.Registrations = len(checked)
	summary.Outcomes = len(checked)
	return nil
}
