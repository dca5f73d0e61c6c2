// Package audit persists hub diagnostic records to the hub_records
// table and serves queries from the inspection API.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoredRecord is a persisted hub diagnostic record.
type StoredRecord struct {
	ID         string    `json:"id"`
	Hub        string    `json:"hub"`
	Op         string    `json:"op"`
	Capability string    `json:"capability"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter controls which records to return.
type Filter struct {
	Hub        string // optional: filter by hub name
	Op         string // optional: filter by operation (register, unregister, invoke)
	Capability string // optional: filter by capability identifier
	Limit      int    // default 50, max 200
	Offset     int    // pagination offset
}

// ListResult contains paginated record results.
type ListResult struct {
	Records []StoredRecord `json:"records"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// Repository defines the interface for diagnostic record storage.
type Repository interface {
	Create(ctx context.Context, rec *StoredRecord) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores diagnostic records in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new record repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a record. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, rec *StoredRecord) error {
	if rec.ID == "" {
		rec.ID = "rec-" + uuid.NewString()[:8]
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO hub_records (id, hub, op, capability, outcome, detail, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Hub, rec.Op, rec.Capability, rec.Outcome, rec.Detail,
		rec.DurationMS,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting hub record: %w", err)
	}

	return nil
}

// List returns records matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for record queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.Hub != "" {
		conditions = append(conditions, "hub = ?")
		args = append(args, filter.Hub)
	}
	if filter.Op != "" {
		conditions = append(conditions, "op = ?")
		args = append(args, filter.Op)
	}
	if filter.Capability != "" {
		conditions = append(conditions, "capability = ?")
		args = append(args, filter.Capability)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// WHERE clause is assembled from parameterised conditions (? placeholders).
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM hub_records %s", where) //nolint:gosec // not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting hub records: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, hub, op, capability, outcome, detail, duration_ms, created_at FROM hub_records %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying hub records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var rec StoredRecord
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.Hub, &rec.Op, &rec.Capability,
			&rec.Outcome, &rec.Detail, &rec.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning hub record: %w", err)
		}

		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing hub record timestamp %q: %w", createdAt, err)
		}
		rec.CreatedAt = t

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hub records: %w", err)
	}

	if records == nil {
		records = []StoredRecord{}
	}

	return &ListResult{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
