package store

import (
	"database/sql"
	"errors"
	"time"
)

// Alert represents a fired alarm stored in the database.
type Alert struct {
	ID           string
	Sequence     uint64
	FiredAt      time.Time
	Topic        string
	Payload      string
	Message      string
	FlipCount    int
	FlipRatio    float64
	FlipVariance float64
}

// AlertRepository provides access to the alert log.
type AlertRepository struct {
	db *sql.DB
}

// Alerts returns the alert repository for this store.
func (s *Store) Alerts() *AlertRepository {
	return &AlertRepository{db: s.db}
}

// Create inserts a new alert into the database.
func (r *AlertRepository) Create(a *Alert) error {
	if a.FiredAt.IsZero() {
		a.FiredAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO alerts (id, sequence, fired_at, topic, payload, message, flip_count, flip_ratio, flip_variance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, int64(a.Sequence), a.FiredAt, a.Topic, a.Payload, a.Message, a.FlipCount, a.FlipRatio, a.FlipVariance,
	)
	return err
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(id string) (*Alert, error) {
	a, err := scanAlert(r.db.QueryRow(
		`SELECT id, sequence, fired_at, topic, payload, message, flip_count, flip_ratio, flip_variance
		 FROM alerts WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List retrieves the most recent alerts, newest first. A limit of zero or
// less returns all alerts.
func (r *AlertRepository) List(limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, sequence, fired_at, topic, payload, message, flip_count, flip_ratio, flip_variance
		 FROM alerts ORDER BY fired_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}

// Count returns the number of stored alerts.
func (r *AlertRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*Alert, error) {
	a := &Alert{}
	var seq int64
	err := row.Scan(&a.ID, &seq, &a.FiredAt, &a.Topic, &a.Payload, &a.Message, &a.FlipCount, &a.FlipRatio, &a.FlipVariance)
	if err != nil {
		return nil, err
	}
	a.Sequence = uint64(seq)
	return a, nil
}
