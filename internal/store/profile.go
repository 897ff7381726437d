package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/nritya/internal/calibration"
	"github.com/ayusman/nritya/internal/gesture"
)

// ErrNotFrozen is returned when saving a profile that is still collecting.
var ErrNotFrozen = errors.New("profile is not frozen")

// ProfileInfo summarizes a stored profile.
type ProfileInfo struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	Gestures  []gesture.Type `json:"gestures"`
}

// ProfileRepository persists frozen calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Save inserts or replaces a frozen profile. A missing ID is generated and a
// missing name is derived from the creation time.
func (r *ProfileRepository) Save(p *gesture.Profile) error {
	if !p.Frozen() {
		return ErrNotFrozen
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Name == "" {
		p.Name = "profile " + p.CreatedAt.Format("2006-01-02 15:04:05")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO profiles (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		p.ID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM profile_entries WHERE profile_id = ?`, p.ID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO profile_entries (profile_id, gesture, feature, samples, mean) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for t, entry := range p.Entries {
		for f, mean := range entry.Means {
			if _, err := stmt.Exec(p.ID, string(t), string(f), entry.Samples, mean); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Get loads a profile by ID. The returned profile is frozen.
func (r *ProfileRepository) Get(id string) (*gesture.Profile, error) {
	p := gesture.NewProfile()

	err := r.db.QueryRow(
		`SELECT id, name, created_at FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.loadEntries(p); err != nil {
		return nil, err
	}
	return p.Freeze(), nil
}

func (r *ProfileRepository) loadEntries(p *gesture.Profile) error {
	rows, err := r.db.Query(
		`SELECT gesture, feature, samples, mean FROM profile_entries WHERE profile_id = ?`, p.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t, f string
		var samples int
		var mean float64
		if err := rows.Scan(&t, &f, &samples, &mean); err != nil {
			return err
		}

		entry, ok := p.Entries[gesture.Type(t)]
		if !ok {
			entry = &gesture.ProfileEntry{Means: make(map[gesture.Feature]float64)}
			p.Entries[gesture.Type(t)] = entry
		}
		entry.Samples = samples
		entry.Means[gesture.Feature(f)] = mean
	}

	return rows.Err()
}

// List returns a summary of every stored profile, newest first.
func (r *ProfileRepository) List() ([]ProfileInfo, error) {
	rows, err := r.db.Query(
		`SELECT id, name, active, created_at FROM profiles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []ProfileInfo
	for rows.Next() {
		var info ProfileInfo
		var active int
		if err := rows.Scan(&info.ID, &info.Name, &active, &info.CreatedAt); err != nil {
			return nil, err
		}
		info.Active = active != 0
		profiles = append(profiles, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range profiles {
		gestures, err := r.gestures(profiles[i].ID)
		if err != nil {
			return nil, err
		}
		profiles[i].Gestures = gestures
	}
	return profiles, nil
}

// gestures lists the calibrated poses of a profile in calibration order.
func (r *ProfileRepository) gestures(id string) ([]gesture.Type, error) {
	rows, err := r.db.Query(`SELECT DISTINCT gesture FROM profile_entries WHERE profile_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := make(map[gesture.Type]bool)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		present[gesture.Type(t)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []gesture.Type
	for _, t := range calibration.Steps {
		if present[t] {
			out = append(out, t)
		}
	}
	return out, nil
}

// Delete removes a profile and its entries.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive marks id as the profile loaded at startup. Only one profile is
// active at a time.
func (r *ProfileRepository) SetActive(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE profiles SET active = 0 WHERE active != 0`); err != nil {
		return err
	}

	result, err := tx.Exec(`UPDATE profiles SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ClearActive leaves no profile active.
func (r *ProfileRepository) ClearActive() error {
	_, err := r.db.Exec(`UPDATE profiles SET active = 0 WHERE active != 0`)
	return err
}

// Active loads the active profile. It returns ErrNotFound when none is set.
func (r *ProfileRepository) Active() (*gesture.Profile, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM profiles WHERE active != 0 LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.Get(id)
}
