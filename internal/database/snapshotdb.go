package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/cheatscan/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "cheatscan.db"

// ErrSnapshotNotFound is returned when no snapshot has the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotDB stores region images in SQLite.
type SnapshotDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SnapshotDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SnapshotDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SnapshotDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapshotDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *SnapshotDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SnapshotDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SnapshotDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		selector TEXT NOT NULL,
		base INTEGER NOT NULL,
		size INTEGER NOT NULL,
		label TEXT,
		digest TEXT NOT NULL,
		data BLOB NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(selector, digest)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_selector ON snapshots(selector);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// Snapshot is one stored region image.
type Snapshot struct {
	ID        int64
	Selector  model.Selector
	Base      uint32
	Size      uint32
	Label     string
	Digest    string
	Timestamp time.Time

	// Data is nil in listings.
	Data []byte
}

// Digest returns the hex SHA3-256 digest of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveSnapshot stores a copy of region as a snapshot and returns its id.
// An identical image already stored for the same selector is not stored
// again; its id is returned instead. Regions with unreadable spans are
// refused.
func (sdb *SnapshotDB) SaveSnapshot(ctx context.Context, region *model.Region, label string) (int64, error) {
	if !region.Valid() {
		return 0, fmt.Errorf("failed to save snapshot: %w", model.ErrAddressUnavailable)
	}
	if holes := region.Holes(); len(holes) > 0 {
		return 0, fmt.Errorf("failed to save snapshot: %w: %d unreadable spans in %s",
			model.ErrAddressUnavailable, len(holes), region.Selector)
	}
	digest := Digest(region.Buffer)

	query := `
	INSERT INTO snapshots (selector, base, size, label, digest, data)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(selector, digest) DO NOTHING
	`
	_, err := sdb.db.ExecContext(ctx, query,
		string(region.Selector),
		int64(region.Base),
		int64(region.Size),
		label,
		digest,
		region.Buffer,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	var id int64
	err = sdb.db.QueryRowContext(ctx,
		"SELECT id FROM snapshots WHERE selector = ? AND digest = ?",
		string(region.Selector), digest,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up saved snapshot: %w", err)
	}
	return id, nil
}

// GetSnapshot retrieves a snapshot including its data.
func (sdb *SnapshotDB) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	query := `
	SELECT id, selector, base, size, label, digest, data, timestamp
	FROM snapshots WHERE id = ?
	`

	var (
		snap      Snapshot
		selector  string
		base      int64
		size      int64
		label     sql.NullString
		timestamp string
	)
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &selector, &base, &size, &label, &snap.Digest, &snap.Data, &timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snap.Selector = model.Selector(selector)
	snap.Base = uint32(base)
	snap.Size = uint32(size)
	snap.Label = label.String
	snap.Timestamp = parseTimestamp(timestamp)
	return &snap, nil
}

// ListSnapshots returns snapshot metadata in ascending id order.
// An empty selector lists every snapshot.
func (sdb *SnapshotDB) ListSnapshots(ctx context.Context, selector model.Selector) ([]Snapshot, error) {
	query := `
	SELECT id, selector, base, size, label, digest, timestamp
	FROM snapshots
	WHERE ? = '' OR selector = ?
	ORDER BY id ASC
	`

	rows, err := sdb.db.QueryContext(ctx, query, string(selector), string(selector))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			snap      Snapshot
			sel       string
			base      int64
			size      int64
			label     sql.NullString
			timestamp string
		)
		if err := rows.Scan(&snap.ID, &sel, &base, &size, &label, &snap.Digest, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Selector = model.Selector(sel)
		snap.Base = uint32(base)
		snap.Size = uint32(size)
		snap.Label = label.String
		snap.Timestamp = parseTimestamp(timestamp)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// LoadSnapshots retrieves every snapshot of selector with its data, in
// ascending id order.
func (sdb *SnapshotDB) LoadSnapshots(ctx context.Context, selector model.Selector) ([]*Snapshot, error) {
	metas, err := sdb.ListSnapshots(ctx, selector)
	if err != nil {
		return nil, err
	}
	snaps := make([]*Snapshot, 0, len(metas))
	for _, m := range metas {
		snap, err := sdb.GetSnapshot(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// DeleteSnapshot removes a snapshot.
func (sdb *SnapshotDB) DeleteSnapshot(ctx context.Context, id int64) error {
	res, err := sdb.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrSnapshotNotFound, id)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
