// Package store provides load.Store implementations backed by Postgres and
// by process memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/config"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	db "github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/database"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/load"
)

// Connect opens and pings a connection pool configured from cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// Postgres is the load.Store backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Begin opens a database transaction.
func (p *Postgres) Begin(ctx context.Context) (load.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx, q: db.New(tx)}, nil
}

// StartRun inserts a run log row. It runs outside any load transaction so
// failed runs are still recorded.
func (p *Postgres) StartRun(ctx context.Context, run core.RunRecord) error {
	return db.New(p.pool).InsertEtlRun(ctx, db.InsertEtlRunParams{
		RunID:    core.ToPgUUID(run.RunID.String()),
		FileName: run.FileName,
	})
}

// FinishRun stores the outcome of a run.
func (p *Postgres) FinishRun(ctx context.Context, run core.RunRecord) error {
	return db.New(p.pool).FinishEtlRun(ctx, db.FinishEtlRunParams{
		RunID:          core.ToPgUUID(run.RunID.String()),
		Status:         run.Status,
		RowsRead:       int32(run.RowsRead),
		StudentsLoaded: int32(run.StudentsLoaded),
		ErrorKind:      core.ToPgText(string(run.ErrorKind)),
		ErrorMessage:   core.ToPgText(run.ErrorMessage),
	})
}

// RecentRuns returns up to limit runs, newest first.
func (p *Postgres) RecentRuns(ctx context.Context, limit int) ([]core.RunRecord, error) {
	rows, err := db.New(p.pool).ListEtlRuns(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]core.RunRecord, len(rows))
	for i, r := range rows {
		out[i] = runRecord(r)
	}
	return out, nil
}

// ErrRunNotFound is returned by Run for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run returns the logged run with the given id.
func (p *Postgres) Run(ctx context.Context, id uuid.UUID) (core.RunRecord, error) {
	r, err := db.New(p.pool).GetEtlRun(ctx, core.ToPgUUID(id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return core.RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return runRecord(r), nil
}

func runRecord(r db.EtlRun) core.RunRecord {
	run := core.RunRecord{
		FileName:       r.FileName,
		Status:         r.Status,
		RowsRead:       int(r.RowsRead),
		StudentsLoaded: int(r.StudentsLoaded),
		ErrorKind:      core.Kind(r.ErrorKind.String),
		ErrorMessage:   r.ErrorMessage.String,
		StartedAt:      r.StartedAt.Time,
		FinishedAt:     r.FinishedAt.Time,
	}
	if r.RunID.Valid {
		run.RunID = r.RunID.Bytes
	}
	return run
}

// Counts returns the row count of every dimension and entity table.
func (p *Postgres) Counts(ctx context.Context) (map[string]int64, error) {
	q := db.New(p.pool)
	tables := append(append([]string(nil), db.DimensionTables...), db.EntityTables...)

	var mu sync.Mutex
	out := make(map[string]int64, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(int(p.pool.Config().MaxConns), 1))
	for _, t := range tables {
		g.Go(func() error {
			n, err := q.CountRows(gctx, t)
			if err != nil {
				return fmt.Errorf("count %s: %w", t, err)
			}
			mu.Lock()
			out[t] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type postgresTx struct {
	tx pgx.Tx
	q  *db.Queries
}

func (t *postgresTx) UpsertDimension(ctx context.Context, c core.Category, key load.DimensionKey) (int64, error) {
	if c == core.CategorySkillLevel {
		return t.q.UpsertSkillLevel(ctx, db.UpsertSkillLevelParams{
			Value:       key.Value,
			Description: key.Description,
		})
	}
	return t.q.UpsertDimension(ctx, string(c), key.Value)
}

func (t *postgresTx) DimensionIDs(ctx context.Context, c core.Category) (map[load.DimensionKey]int64, error) {
	rows, err := t.q.ListDimension(ctx, string(c))
	if err != nil {
		return nil, err
	}
	out := make(map[load.DimensionKey]int64, len(rows))
	for _, r := range rows {
		out[load.DimensionKey{Value: r.Value, Description: r.Description}] = r.ID
	}
	return out, nil
}

func (t *postgresTx) ExistingIDs(ctx context.Context, c core.Category, ids []int64) (map[int64]bool, error) {
	found, err := t.q.ExistingDimensionIDs(ctx, string(c), ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(found))
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (t *postgresTx) UpsertStudent(ctx context.Context, s load.Student) error {
	return t.q.UpsertStudent(ctx, db.UpsertStudentParams{
		ID:               s.ID,
		Gender:           core.ToPgText(s.Gender),
		AgeRangeID:       s.AgeRangeID,
		CountryID:        s.CountryID,
		ExperienceID:     s.ExperienceID,
		TrackID:          s.TrackID,
		ReferralID:       s.ReferralID,
		SkillLevelID:     s.SkillLevelID,
		HoursAvailableID: s.HoursAvailableID,
	})
}

func (t *postgresTx) StudentExists(ctx context.Context, studentID string) (bool, error) {
	return t.q.StudentExists(ctx, studentID)
}

func (t *postgresTx) UpsertMotivation(ctx context.Context, m load.Motivation) error {
	return t.q.UpsertMotivation(ctx, db.UpsertMotivationParams{
		StudentID:  m.StudentID,
		AimID:      m.AimID,
		Motivation: core.ToPgText(m.Motivation),
	})
}

func (t *postgresTx) UpsertRegistration(ctx context.Context, r load.Registration) error {
	return t.q.UpsertRegistration(ctx, db.UpsertRegistrationParams{
		StudentID:        r.StudentID,
		RegistrationDate: r.Date,
		RegistrationTime: r.Time,
	})
}

func (t *postgresTx) UpsertOutcomes(ctx context.Context, o load.Outcomes) error {
	return t.q.UpsertOutcomes(ctx, db.UpsertOutcomesParams{
		StudentID:         o.StudentID,
		CompletedAptitude: o.CompletedAptitude,
		AptitudeScore:     o.AptitudeScore,
		Graduated:         o.Graduated,
	})
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
