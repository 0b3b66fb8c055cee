package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Transition is a journaled change of the scene's discrete state.
type Transition struct {
	ID        string
	From      string
	To        string
	Cause     string
	CreatedAt time.Time
}

// TransitionRepository appends to and reads the transition journal.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Record appends t, filling in ID and CreatedAt when unset.
func (r *TransitionRepository) Record(t *Transition) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO transitions (id, from_state, to_state, cause, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.From, t.To, t.Cause, t.CreatedAt.UTC(),
	)
	return err
}

// Recent returns up to limit transitions, newest first.
func (r *TransitionRepository) Recent(limit int) ([]*Transition, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, from_state, to_state, cause, created_at
		 FROM transitions ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Transition
	for rows.Next() {
		t := &Transition{}
		if err := rows.Scan(&t.ID, &t.From, &t.To, &t.Cause, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of journaled transitions.
func (r *TransitionRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM transitions`).Scan(&n)
	return n, err
}
