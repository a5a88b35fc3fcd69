// Package sqlite keeps inventory snapshots in a SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/OpenCHAMI/mercator/internal/cache"
)

const TableName = "mercator_snapshots"

// ErrNoSnapshot is returned by Get when a host has no snapshot.
var ErrNoSnapshot = errors.New("no snapshot for host")

// Snapshot is the last inventory collected from one BMC. Inventory holds the
// canonical records as a JSON document.
type Snapshot struct {
	Host       string    `db:"host" json:"host" yaml:"host"`
	Vendor     string    `db:"vendor" json:"vendor" yaml:"vendor"`
	ServiceTag string    `db:"service_tag" json:"service_tag,omitempty" yaml:"service_tag,omitempty"`
	Model      string    `db:"model" json:"model,omitempty" yaml:"model,omitempty"`
	PowerState string    `db:"power_state" json:"power_state,omitempty" yaml:"power_state,omitempty"`
	Inventory  string    `db:"inventory" json:"inventory,omitempty" yaml:"inventory,omitempty"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp" yaml:"timestamp"`
}

// Store is a snapshot cache backed by one SQLite file.
type Store struct {
	db *sqlx.DB
}

var _ cache.Cache[Snapshot] = (*Store)(nil)

// Open opens the database at path, creating the file and table as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		host        TEXT NOT NULL PRIMARY KEY,
		vendor      TEXT NOT NULL,
		service_tag TEXT,
		model       TEXT,
		power_state TEXT,
		inventory   TEXT,
		timestamp   TIMESTAMP
	);
	`, TableName)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenExisting opens a cache without creating it.
func OpenExisting(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no cache found at %s: %w", path, err)
	}
	return Open(path)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes snapshots, replacing any earlier snapshot of the same host.
func (s *Store) Insert(snapshots ...Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (host, vendor, service_tag, model, power_state, inventory, timestamp)
		VALUES (:host, :vendor, :service_tag, :model, :power_state, :inventory, :timestamp);`, TableName)
	for _, snap := range snapshots {
		if snap.Timestamp.IsZero() {
			snap.Timestamp = time.Now().UTC()
		}
		if _, err := tx.NamedExec(query, &snap); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert snapshot for %s: %w", snap.Host, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes the snapshots of the given hosts. Unknown hosts are skipped.
func (s *Store) Delete(hosts ...string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE host = ?;`, TableName)
	for _, host := range hosts {
		if host == "" {
			continue
		}
		res, err := tx.Exec(query, host)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete snapshot for %s: %w", host, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Debug().Str("host", host).Msg("no snapshot to delete")
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Get(host string) (Snapshot, error) {
	var snap Snapshot
	err := s.db.Get(&snap, fmt.Sprintf(`SELECT * FROM %s WHERE host = ?;`, TableName), host)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("%w: %s", ErrNoSnapshot, host)
	}
	if err != nil {
		return snap, fmt.Errorf("failed to retrieve snapshot: %w", err)
	}
	return snap, nil
}

// List returns every snapshot ordered by host.
func (s *Store) List() ([]Snapshot, error) {
	snaps := []Snapshot{}
	if err := s.db.Select(&snaps, fmt.Sprintf(`SELECT * FROM %s ORDER BY host ASC;`, TableName)); err != nil {
		return nil, fmt.Errorf("failed to retrieve snapshots: %w", err)
	}
	return snaps, nil
}
