// Package storage persists acquired job listings in SQLite. Writes are
// idempotent: a listing is keyed by provider and id, and only rows
// whose content fingerprint changed are rewritten.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	source        TEXT NOT NULL,
	id            TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	language      TEXT NOT NULL DEFAULT '',
	company_name  TEXT NOT NULL DEFAULT '',
	company_city  TEXT NOT NULL DEFAULT '',
	job_url       TEXT NOT NULL DEFAULT '',
	external_url  TEXT NOT NULL DEFAULT '',
	contact_email TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL DEFAULT '',
	postal_code   TEXT NOT NULL DEFAULT '',
	canton_code   TEXT NOT NULL DEFAULT '',
	communal_code TEXT NOT NULL DEFAULT '',
	workload_min  INTEGER NOT NULL DEFAULT 0,
	workload_max  INTEGER NOT NULL DEFAULT 0,
	permanent     INTEGER NOT NULL DEFAULT 0,
	posted_at     TEXT,
	fingerprint   TEXT NOT NULL,
	raw           BLOB,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (source, id)
);
CREATE INDEX IF NOT EXISTS idx_listings_canton ON listings(canton_code);
CREATE INDEX IF NOT EXISTS idx_listings_communal ON listings(communal_code);
CREATE INDEX IF NOT EXISTS idx_listings_posted ON listings(posted_at);
`

// Repository is a SQLite-backed listing store.
type Repository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewRepository opens (and if needed creates) the listings database
// under dataDir.
func NewRepository(dataDir string, logger logging.Logger) (*Repository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", filepath.Join(dataDir, "listings.db"))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open listings database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply listings schema: %w", err)
	}
	return &Repository{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Fingerprint hashes the content-bearing fields of a listing. Rows
// with an unchanged fingerprint are left untouched on upsert, so
// updated_at only moves when the portal actually changed something.
func Fingerprint(l *models.JobListing) string {
	h := sha256.New()
	for _, field := range []string{
		l.Title, l.Description, l.Language, l.CompanyName, l.CompanyCity,
		l.JobURL, l.ExternalURL, l.ContactEmail,
		l.Location.City, l.Location.PostalCode, l.Location.CantonCode, l.Location.CommunalCode,
		l.Employment.StartDate, l.Employment.EndDate,
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "%d|%d|%t|%t", l.Employment.WorkloadMin, l.Employment.WorkloadMax, l.Employment.Permanent, l.Employment.Immediate)
	return hex.EncodeToString(h.Sum(nil))
}

// UpsertBatch writes listings transactionally and reports how many
// rows were inserted versus updated. Unchanged rows count as neither.
func (r *Repository) UpsertBatch(ctx context.Context, listings []models.JobListing) (models.UpsertResult, error) {
	var result models.UpsertResult
	if len(listings) == 0 {
		return result, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range listings {
		l := &listings[i]
		fingerprint := Fingerprint(l)

		var existing string
		err := tx.QueryRowContext(ctx, `SELECT fingerprint FROM listings WHERE source = ? AND id = ?`, l.Source, l.ID).Scan(&existing)
		switch {
		case err == sql.ErrNoRows:
			if err := r.insert(ctx, tx, l, fingerprint, now); err != nil {
				return result, err
			}
			result.Inserted++
		case err != nil:
			return result, fmt.Errorf("failed to look up listing %s/%s: %w", l.Source, l.ID, err)
		case existing != fingerprint:
			if err := r.update(ctx, tx, l, fingerprint, now); err != nil {
				return result, err
			}
			result.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit listings: %w", err)
	}
	r.logger.Info("Persisted listings", map[string]interface{}{
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"total":    len(listings),
	})
	return result, nil
}

func (r *Repository) insert(ctx context.Context, tx *sql.Tx, l *models.JobListing, fingerprint, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO listings (
			source, id, title, description, language, company_name, company_city,
			job_url, external_url, contact_email,
			city, postal_code, canton_code, communal_code,
			workload_min, workload_max, permanent, posted_at,
			fingerprint, raw, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Source, l.ID, l.Title, l.Description, l.Language, l.CompanyName, l.CompanyCity,
		l.JobURL, l.ExternalURL, l.ContactEmail,
		l.Location.City, l.Location.PostalCode, l.Location.CantonCode, l.Location.CommunalCode,
		l.Employment.WorkloadMin, l.Employment.WorkloadMax, boolToInt(l.Employment.Permanent), postedAt(l),
		fingerprint, []byte(l.Raw), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing %s/%s: %w", l.Source, l.ID, err)
	}
	return nil
}

func (r *Repository) update(ctx context.Context, tx *sql.Tx, l *models.JobListing, fingerprint, now string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE listings SET
			title = ?, description = ?, language = ?, company_name = ?, company_city = ?,
			job_url = ?, external_url = ?, contact_email = ?,
			city = ?, postal_code = ?, canton_code = ?, communal_code = ?,
			workload_min = ?, workload_max = ?, permanent = ?, posted_at = ?,
			fingerprint = ?, raw = ?, updated_at = ?
		WHERE source = ? AND id = ?`,
		l.Title, l.Description, l.Language, l.CompanyName, l.CompanyCity,
		l.JobURL, l.ExternalURL, l.ContactEmail,
		l.Location.City, l.Location.PostalCode, l.Location.CantonCode, l.Location.CommunalCode,
		l.Employment.WorkloadMin, l.Employment.WorkloadMax, boolToInt(l.Employment.Permanent), postedAt(l),
		fingerprint, []byte(l.Raw), now,
		l.Source, l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing %s/%s: %w", l.Source, l.ID, err)
	}
	return nil
}

// Get loads one stored listing.
func (r *Repository) Get(ctx context.Context, source, id string) (*models.JobListing, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT source, id, title, description, language, company_name, company_city,
		       job_url, external_url, contact_email,
		       city, postal_code, canton_code, communal_code,
		       workload_min, workload_max, permanent, posted_at, raw
		FROM listings WHERE source = ? AND id = ?`, source, id)

	var l models.JobListing
	var permanent int
	var posted sql.NullString
	var raw []byte
	err := row.Scan(
		&l.Source, &l.ID, &l.Title, &l.Description, &l.Language, &l.CompanyName, &l.CompanyCity,
		&l.JobURL, &l.ExternalURL, &l.ContactEmail,
		&l.Location.City, &l.Location.PostalCode, &l.Location.CantonCode, &l.Location.CommunalCode,
		&l.Employment.WorkloadMin, &l.Employment.WorkloadMax, &permanent, &posted, &raw,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %s/%s: %w", source, id, err)
	}

	l.Employment.Permanent = permanent != 0
	l.Location.Resolved = l.Location.CommunalCode != ""
	l.Raw = raw
	if posted.Valid && posted.String != "" {
		if t, err := time.Parse(time.RFC3339, posted.String); err == nil {
			l.PostedAt = &t
		}
	}
	return &l, nil
}

// Count returns the number of stored listings.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func postedAt(l *models.JobListing) interface{} {
	if l.PostedAt == nil {
		return nil
	}
	return l.PostedAt.UTC().Format(time.RFC3339)
}
