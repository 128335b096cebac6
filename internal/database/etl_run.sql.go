package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertEtlRun = `
INSERT INTO etl_run (run_id, file_name, status)
VALUES ($1, $2, 'running')
`

type InsertEtlRunParams struct {
	RunID    pgtype.UUID
	FileName string
}

func (q *Queries) InsertEtlRun(ctx context.Context, arg InsertEtlRunParams) error {
	_, err := q.db.Exec(ctx, insertEtlRun, arg.RunID, arg.FileName)
	return err
}

const finishEtlRun = `
UPDATE etl_run
SET status = $2,
    rows_read = $3,
    students_loaded = $4,
    error_kind = $5,
    error_message = $6,
    finished_at = now()
WHERE run_id = $1
`

type FinishEtlRunParams struct {
	RunID          pgtype.UUID
	Status         string
	RowsRead       int32
	StudentsLoaded int32
	ErrorKind      pgtype.Text
	ErrorMessage   pgtype.Text
}

func (q *Queries) FinishEtlRun(ctx context.Context, arg FinishEtlRunParams) error {
	_, err := q.db.Exec(ctx, finishEtlRun,
		arg.RunID,
		arg.Status,
		arg.RowsRead,
		arg.StudentsLoaded,
		arg.ErrorKind,
		arg.ErrorMessage,
	)
	return err
}

const getEtlRun = `
SELECT run_id, file_name, status, rows_read, students_loaded,
       error_kind, error_message, started_at, finished_at
FROM etl_run
WHERE run_id = $1
`

func (q *Queries) GetEtlRun(ctx context.Context, runID pgtype.UUID) (EtlRun, error) {
	row := q.db.QueryRow(ctx, getEtlRun, runID)
	var i EtlRun
	err := row.Scan(
		&i.RunID,
		&i.FileName,
		&i.Status,
		&i.RowsRead,
		&i.StudentsLoaded,
		&i.ErrorKind,
		&i.ErrorMessage,
		&i.StartedAt,
		&i.FinishedAt,
	)
	return i, err
}

const listEtlRuns = `
SELECT run_id, file_name, status, rows_read, students_loaded,
       error_kind, error_message, started_at, finished_at
FROM etl_run
ORDER BY started_at DESC
LIMIT $1
`

func (q *Queries) ListEtlRuns(ctx context.Context, limit int32) ([]EtlRun, error) {
	rows, err := q.db.Query(ctx, listEtlRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EtlRun
	for rows.Next() {
		var i EtlRun
		if err := rows.Scan(
			&i.RunID,
			&i.FileName,
			&i.Status,
			&i.RowsRead,
			&i.StudentsLoaded,
			&i.ErrorKind,
			&i.ErrorMessage,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
