package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

// group_count is denormalized at write time so aggregate queries can sum it
// without unpacking the JSON payload.
const collectionColumns = `id, collection_date, host_name, individual_count, group_collections, COALESCE(submitted_by, ''), submitted_at`

// CreateCollection inserts a collection entry and assigns the generated ID.
func (r *Repository) CreateCollection(ctx context.Context, collection *domain.SandwichCollection) error {
	payload, err := marshalGroups(collection.GroupCollections)
	if err != nil {
		return err
	}
	const query = `INSERT INTO sandwich_collections (collection_date, host_name, individual_count, group_collections, group_count, submitted_by, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	row := r.pool.QueryRow(ctx, query,
		collection.CollectionDate,
		collection.HostName,
		collection.IndividualCount,
		payload,
		collection.GroupTotal(),
		emptyToNil(collection.SubmittedBy),
		collection.SubmittedAt,
	)
	if err := row.Scan(&collection.ID); err != nil {
		return mapPgError(err)
	}
	return nil
}

// GetCollectionByID fetches one collection entry.
func (r *Repository) GetCollectionByID(ctx context.Context, id int64) (*domain.SandwichCollection, error) {
	const query = `SELECT ` + collectionColumns + ` FROM sandwich_collections WHERE id = $1`
	return scanCollection(r.pool.QueryRow(ctx, query, id))
}

// FindCollection locates an entry matching date, host, and individual count.
// The import scripts use this as their duplicate check.
func (r *Repository) FindCollection(ctx context.Context, date time.Time, hostName string, individualCount int) (*domain.SandwichCollection, error) {
	const query = `SELECT ` + collectionColumns + ` FROM sandwich_collections
		WHERE collection_date = $1 AND host_name = $2 AND individual_count = $3
		LIMIT 1`
	return scanCollection(r.pool.QueryRow(ctx, query, date, hostName, individualCount))
}

// ListCollections returns entries newest first with optional filters.
func (r *Repository) ListCollections(ctx context.Context, filter repository.CollectionFilter) ([]domain.SandwichCollection, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT ` + collectionColumns + ` FROM sandwich_collections
		WHERE ($1 = '' OR host_name = $1)
			AND ($2::timestamptz IS NULL OR collection_date >= $2)
			AND ($3::timestamptz IS NULL OR collection_date <= $3)
		ORDER BY collection_date DESC, id DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.pool.Query(ctx, query,
		filter.HostName,
		nilTime(filter.From),
		nilTime(filter.To),
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := make([]domain.SandwichCollection, 0)
	for rows.Next() {
		var (
			c       domain.SandwichCollection
			payload []byte
		)
		if err := rows.Scan(&c.ID, &c.CollectionDate, &c.HostName, &c.IndividualCount, &payload, &c.SubmittedBy, &c.SubmittedAt); err != nil {
			return nil, err
		}
		if err := unmarshalGroups(payload, &c); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// UpdateCollection mutates an entry and recomputes the denormalized group count.
func (r *Repository) UpdateCollection(ctx context.Context, collection *domain.SandwichCollection) error {
	payload, err := marshalGroups(collection.GroupCollections)
	if err != nil {
		return err
	}
	const query = `UPDATE sandwich_collections
		SET collection_date = $2,
			host_name = $3,
			individual_count = $4,
			group_collections = $5,
			group_count = $6
		WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query,
		collection.ID,
		collection.CollectionDate,
		collection.HostName,
		collection.IndividualCount,
		payload,
		collection.GroupTotal(),
	)
	if err != nil {
		return mapPgError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteCollection removes one entry.
func (r *Repository) DeleteCollection(ctx context.Context, id int64) error {
	const query = `DELETE FROM sandwich_collections WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteCollectionsByHost removes all entries for a host and reports the count.
func (r *Repository) DeleteCollectionsByHost(ctx context.Context, hostName string) (int64, error) {
	const query = `DELETE FROM sandwich_collections WHERE host_name = $1`
	cmdTag, err := r.pool.Exec(ctx, query, hostName)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// CollectionTotals sums individual and group counts across all entries.
func (r *Repository) CollectionTotals(ctx context.Context) (domain.CollectionTotals, error) {
	const query = `SELECT COUNT(1),
		COALESCE(SUM(individual_count), 0),
		COALESCE(SUM(group_count), 0)
		FROM sandwich_collections`
	row := r.pool.QueryRow(ctx, query)
	var totals domain.CollectionTotals
	if err := row.Scan(&totals.Entries, &totals.IndividualTotal, &totals.GroupTotal); err != nil {
		return domain.CollectionTotals{}, err
	}
	totals.CompleteTotal = totals.IndividualTotal + totals.GroupTotal
	return totals, nil
}

// HostTotals aggregates complete counts per host, largest first.
func (r *Repository) HostTotals(ctx context.Context) ([]domain.HostTotal, error) {
	const query = `SELECT host_name, COUNT(1), COALESCE(SUM(individual_count + group_count), 0)
		FROM sandwich_collections
		GROUP BY host_name
		ORDER BY 3 DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.HostTotal, 0)
	for rows.Next() {
		var t domain.HostTotal
		if err := rows.Scan(&t.HostName, &t.Entries, &t.CompleteTotal); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// WeeklyTotals buckets complete counts by week for the trailing window.
func (r *Repository) WeeklyTotals(ctx context.Context, weeks int) ([]domain.WeeklyTotal, error) {
	if weeks <= 0 {
		weeks = 12
	}
	const query = `SELECT date_trunc('week', collection_date) AS week_start,
		COUNT(1),
		COALESCE(SUM(individual_count + group_count), 0)
		FROM sandwich_collections
		WHERE collection_date >= NOW() - ($1 * INTERVAL '1 week')
		GROUP BY week_start
		ORDER BY week_start DESC`
	rows, err := r.pool.Query(ctx, query, weeks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.WeeklyTotal, 0)
	for rows.Next() {
		var t domain.WeeklyTotal
		if err := rows.Scan(&t.WeekStart, &t.Entries, &t.CompleteTotal); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanCollection(row pgx.Row) (*domain.SandwichCollection, error) {
	var (
		c       domain.SandwichCollection
		payload []byte
	)
	if err := row.Scan(&c.ID, &c.CollectionDate, &c.HostName, &c.IndividualCount, &payload, &c.SubmittedBy, &c.SubmittedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := unmarshalGroups(payload, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func marshalGroups(groups []domain.GroupCollection) ([]byte, error) {
	if len(groups) == 0 {
		return []byte("[]"), nil
	}
	payload, err := json.Marshal(groups)
	if err != nil {
		return nil, fmt.Errorf("marshal group collections: %w", err)
	}
	return payload, nil
}

func unmarshalGroups(payload []byte, c *domain.SandwichCollection) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, &c.GroupCollections); err != nil {
		return fmt.Errorf("unmarshal group collections: %w", err)
	}
	if len(c.GroupCollections) == 0 {
		c.GroupCollections = nil
	}
	return nil
}

func nilTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
