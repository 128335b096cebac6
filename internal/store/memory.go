package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/load"
)

// DimensionRow is one persisted lookup row.
type DimensionRow struct {
	ID  int64
	Key load.DimensionKey
}

type motivationKey struct {
	studentID string
	aimID     int64
}

type memoryDimension struct {
	rows   []DimensionRow
	byKey  map[load.DimensionKey]int64
	nextID int64
}

func (d *memoryDimension) clone() *memoryDimension {
	return &memoryDimension{
		rows:   slices.Clone(d.rows),
		byKey:  maps.Clone(d.byKey),
		nextID: d.nextID,
	}
}

type memoryState struct {
	dimensions    map[core.Category]*memoryDimension
	students      map[string]load.Student
	studentOrder  []string
	motivations   map[motivationKey]load.Motivation
	registrations map[string]load.Registration
	outcomes      map[string]load.Outcomes
}

func newMemoryState() *memoryState {
	s := &memoryState{
		dimensions:    make(map[core.Category]*memoryDimension, len(core.Categories)),
		students:      make(map[string]load.Student),
		motivations:   make(map[motivationKey]load.Motivation),
		registrations: make(map[string]load.Registration),
		outcomes:      make(map[string]load.Outcomes),
	}
	for _, c := range core.Categories {
		s.dimensions[c] = &memoryDimension{byKey: make(map[load.DimensionKey]int64), nextID: 1}
	}
	return s
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		dimensions:    make(map[core.Category]*memoryDimension, len(s.dimensions)),
		students:      maps.Clone(s.students),
		studentOrder:  slices.Clone(s.studentOrder),
		motivations:   maps.Clone(s.motivations),
		registrations: maps.Clone(s.registrations),
		outcomes:      maps.Clone(s.outcomes),
	}
	for c, d := range s.dimensions {
		out.dimensions[c] = d.clone()
	}
	return out
}

// Memory is an in-process load.Store. Transactions are serialized; each one
// works on a private copy of the state that replaces the shared state on
// commit.
type Memory struct {
	txMu sync.Mutex // held for the lifetime of a transaction

	mu    sync.RWMutex
	state *memoryState
	runs  map[uuid.UUID]core.RunRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		state: newMemoryState(),
		runs:  make(map[uuid.UUID]core.RunRecord),
	}
}

// Begin starts a transaction. It blocks while another transaction is open.
func (m *Memory) Begin(ctx context.Context) (load.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.txMu.Lock()

	m.mu.RLock()
	work := m.state.clone()
	m.mu.RUnlock()

	return &memoryTx{store: m, state: work}, nil
}

// Dimension returns the rows of category c in id order.
func (m *Memory) Dimension(c core.Category) []DimensionRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.state.dimensions[c].rows)
}

// Students returns every committed student in first-insert order.
func (m *Memory) Students() []load.Student {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]load.Student, 0, len(m.state.studentOrder))
	for _, id := range m.state.studentOrder {
		out = append(out, m.state.students[id])
	}
	return out
}

// Motivations returns every committed motivation for studentID.
func (m *Memory) Motivations(studentID string) []load.Motivation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []load.Motivation
	for k, v := range m.state.motivations {
		if k.studentID == studentID {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b load.Motivation) int { return cmp.Compare(a.AimID, b.AimID) })
	return out
}

// Registration returns the committed registration for studentID.
func (m *Memory) Registration(studentID string) (load.Registration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.state.registrations[studentID]
	return r, ok
}

// Outcomes returns the committed outcomes for studentID.
func (m *Memory) Outcomes(studentID string) (load.Outcomes, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.state.outcomes[studentID]
	return o, ok
}

// Counts returns the committed row count of every table.
func (m *Memory) Counts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(core.Categories)+4)
	for c, d := range m.state.dimensions {
		out[string(c)] = len(d.rows)
	}
	out["student"] = len(m.state.students)
	out["motivation"] = len(m.state.motivations)
	out["registration"] = len(m.state.registrations)
	out["outcomes"] = len(m.state.outcomes)
	return out
}

// StartRun records the start of a pipeline run.
func (m *Memory) StartRun(ctx context.Context, run core.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = run
	return nil
}

// FinishRun records the final state of a pipeline run.
func (m *Memory) FinishRun(ctx context.Context, run core.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.runs[run.RunID]
	if !ok {
		return fmt.Errorf("run %s not started", run.RunID)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = prev.StartedAt
	}
	m.runs[run.RunID] = run
	return nil
}

// Run returns the recorded run with id.
func (m *Memory) Run(id uuid.UUID) (core.RunRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	return r, ok
}

type memoryTx struct {
	store *Memory
	state *memoryState
	done  bool
}

func (tx *memoryTx) check(ctx context.Context) error {
	if tx.done {
		return fmt.Errorf("transaction already closed")
	}
	return ctx.Err()
}

func (tx *memoryTx) UpsertDimension(ctx context.Context, c core.Category, key load.DimensionKey) (int64, error) {
	if err := tx.check(ctx); err != nil {
		return 0, err
	}
	d, ok := tx.state.dimensions[c]
	if !ok {
		return 0, fmt.Errorf("unknown category %q", c)
	}
	if c != core.CategorySkillLevel {
		key.Description = ""
	}
	if id, ok := d.byKey[key]; ok {
		return id, nil
	}
	id := d.nextID
	d.nextID++
	d.byKey[key] = id
	d.rows = append(d.rows, DimensionRow{ID: id, Key: key})
	return id, nil
}

func (tx *memoryTx) DimensionIDs(ctx context.Context, c core.Category) (map[load.DimensionKey]int64, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	d, ok := tx.state.dimensions[c]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", c)
	}
	return maps.Clone(d.byKey), nil
}

func (tx *memoryTx) ExistingIDs(ctx context.Context, c core.Category, ids []int64) (map[int64]bool, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	d, ok := tx.state.dimensions[c]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", c)
	}
	present := make(map[int64]bool, len(d.rows))
	for _, r := range d.rows {
		present[r.ID] = true
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if present[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (tx *memoryTx) UpsertStudent(ctx context.Context, s load.Student) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	for _, c := range load.StudentCategories {
		id := s.ForeignKey(c)
		if _, ok := tx.rowWithID(c, id); !ok {
			return fmt.Errorf("student %s: %s %d does not exist", s.ID, load.ForeignKeyField(c), id)
		}
	}
	if _, ok := tx.state.students[s.ID]; !ok {
		tx.state.studentOrder = append(tx.state.studentOrder, s.ID)
	}
	tx.state.students[s.ID] = s
	return nil
}

func (tx *memoryTx) rowWithID(c core.Category, id int64) (DimensionRow, bool) {
	for _, r := range tx.state.dimensions[c].rows {
		if r.ID == id {
			return r, true
		}
	}
	return DimensionRow{}, false
}

func (tx *memoryTx) StudentExists(ctx context.Context, studentID string) (bool, error) {
	if err := tx.check(ctx); err != nil {
		return false, err
	}
	_, ok := tx.state.students[studentID]
	return ok, nil
}

func (tx *memoryTx) requireStudent(id string) error {
	if _, ok := tx.state.students[id]; !ok {
		return fmt.Errorf("student %s does not exist", id)
	}
	return nil
}

func (tx *memoryTx) UpsertMotivation(ctx context.Context, mv load.Motivation) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if err := tx.requireStudent(mv.StudentID); err != nil {
		return err
	}
	if _, ok := tx.rowWithID(core.CategoryAim, mv.AimID); !ok {
		return fmt.Errorf("aim %d does not exist", mv.AimID)
	}
	tx.state.motivations[motivationKey{mv.StudentID, mv.AimID}] = mv
	return nil
}

func (tx *memoryTx) UpsertRegistration(ctx context.Context, r load.Registration) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if err := tx.requireStudent(r.StudentID); err != nil {
		return err
	}
	tx.state.registrations[r.StudentID] = r
	return nil
}

func (tx *memoryTx) UpsertOutcomes(ctx context.Context, o load.Outcomes) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if err := tx.requireStudent(o.StudentID); err != nil {
		return err
	}
	tx.state.outcomes[o.StudentID] = o
	return nil
}

func (tx *memoryTx) Commit(ctx context.Context) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	tx.store.mu.Lock()
	tx.store.state = tx.state
	tx.store.mu.Unlock()
	tx.close()
	return nil
}

func (tx *memoryTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.close()
	return nil
}

func (tx *memoryTx) close() {
	tx.done = true
	tx.state = nil
	tx.store.txMu.Unlock()
}
