package store

import (
	"database/sql"
	"time"
)

// Failure represents an alert delivery that did not succeed.
type Failure struct {
	ID        int64
	Channel   string
	Target    string
	Error     string
	CreatedAt time.Time
}

// FailureRepository provides access to the dispatch failure log.
type FailureRepository struct {
	db *sql.DB
}

// Failures returns the failure repository for this store.
func (s *Store) Failures() *FailureRepository {
	return &FailureRepository{db: s.db}
}

// Create inserts a failure and sets its ID.
func (r *FailureRepository) Create(f *Failure) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO dispatch_failures (channel, target, error, created_at) VALUES (?, ?, ?, ?)`,
		f.Channel, f.Target, f.Error, f.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

// RecordFailure stores a failed delivery on the given channel.
func (r *FailureRepository) RecordFailure(channel, target string, cause error) error {
	return r.Create(&Failure{
		Channel: channel,
		Target:  target,
		Error:   cause.Error(),
	})
}

// List retrieves the most recent failures, newest first. A limit of zero or
// less returns all failures.
func (r *FailureRepository) List(limit int) ([]*Failure, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, channel, target, error, created_at
		 FROM dispatch_failures ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*Failure
	for rows.Next() {
		f := &Failure{}
		if err := rows.Scan(&f.ID, &f.Channel, &f.Target, &f.Error, &f.CreatedAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return failures, nil
}
