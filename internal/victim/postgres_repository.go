package victim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const victimColumns = "id, name, last_name, death_type, details, is_alive, version, created_at, edited_at"

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new victim and its images in a single transaction.
// It fills in the generated id, version and created_at.
func (r *PostgresRepository) Create(ctx context.Context, v *Victim) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO victims (name, last_name, death_type, details, is_alive)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, version, created_at`

	err = tx.QueryRow(ctx, query, v.Name, v.LastName, v.DeathType, v.Details).
		Scan(&v.ID, &v.Version, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting victim: %w", err)
	}
	v.IsAlive = true

	for i, url := range v.Images {
		_, err := tx.Exec(ctx,
			`INSERT INTO victim_images (victim_id, position, url) VALUES ($1, $2, $3)`,
			v.ID, i, url)
		if err != nil {
			return fmt.Errorf("inserting victim image: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing victim insert: %w", err)
	}
	return nil
}

// GetByID retrieves a single victim by its UUID, images included.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Victim, error) {
	query := fmt.Sprintf(`SELECT %s FROM victims WHERE id = $1`, victimColumns)
	return r.scanOne(ctx, query, id)
}

// GetByName retrieves a victim whose first or last name matches the given
// term case-insensitively.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Victim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM victims
		WHERE name = $1 OR last_name = $1
		LIMIT 1`, victimColumns)
	return r.scanOne(ctx, query, strings.ToUpper(name))
}

// List retrieves a paginated list of victims ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM victims`).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting victims: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM victims
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, victimColumns)

	victims, err := r.scanMany(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Victims: victims,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// ListAlive retrieves a bounded page of open victims for the sweeper.
func (r *PostgresRepository) ListAlive(ctx context.Context, limit, offset int) ([]Victim, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM victims
		WHERE is_alive
		ORDER BY created_at
		LIMIT $1 OFFSET $2`, victimColumns)
	return r.scanMany(ctx, query, limit, offset)
}

// CompareAndUpdate applies the patch only if the victim's version still equals
// expectedVersion, bumping the version and stamping edited_at. A version
// mismatch yields ErrConflict; patching a dead victim back to alive yields
// ErrResurrect.
func (r *PostgresRepository) CompareAndUpdate(ctx context.Context, id uuid.UUID, expectedVersion int, p Patch) (*Victim, error) {
	if p.IsAlive != nil && *p.IsAlive {
		return nil, ErrResurrect
	}

	var setClauses []string
	var args []any
	argIdx := 1

	if p.DeathType != nil {
		setClauses = append(setClauses, fmt.Sprintf("death_type = $%d", argIdx))
		args = append(args, *p.DeathType)
		argIdx++
	}
	if p.Details != nil {
		setClauses = append(setClauses, fmt.Sprintf("details = $%d", argIdx))
		args = append(args, *p.Details)
		argIdx++
	}
	if p.IsAlive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_alive = $%d", argIdx))
		args = append(args, *p.IsAlive)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "edited_at = NOW()", "version = version + 1")
	args = append(args, id, expectedVersion)

	query := fmt.Sprintf(`
		UPDATE victims
		SET %s
		WHERE id = $%d AND version = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, victimColumns)

	v, err := r.scanOne(ctx, query, args...)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Zero rows: distinguish a missing victim from a version mismatch.
	var current int
	probeErr := r.pool.QueryRow(ctx, `SELECT version FROM victims WHERE id = $1`, id).Scan(&current)
	if probeErr != nil {
		if errors.Is(probeErr, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("probing victim version: %w", probeErr)
	}
	return nil, ErrConflict
}

// Delete removes a victim; its images go with it via the FK cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM victims WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting victim: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every victim and returns how many were deleted.
func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM victims`)
	if err != nil {
		return 0, fmt.Errorf("deleting all victims: %w", err)
	}
	return result.RowsAffected(), nil
}

// scanOne scans a single victim row and loads its images.
// Returns ErrNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Victim, error) {
	var v Victim
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.Name, &v.LastName, &v.DeathType, &v.Details,
		&v.IsAlive, &v.Version, &v.CreatedAt, &v.EditedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning victim row: %w", err)
	}

	if err := r.loadImages(ctx, []*Victim{&v}); err != nil {
		return nil, err
	}
	return &v, nil
}

// scanMany scans a page of victim rows and loads their images.
func (r *PostgresRepository) scanMany(ctx context.Context, query string, args ...any) ([]Victim, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing victims: %w", err)
	}
	defer rows.Close()

	var victims []Victim
	for rows.Next() {
		var v Victim
		err := rows.Scan(
			&v.ID, &v.Name, &v.LastName, &v.DeathType, &v.Details,
			&v.IsAlive, &v.Version, &v.CreatedAt, &v.EditedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning victim row: %w", err)
		}
		victims = append(victims, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating victim rows: %w", err)
	}

	if victims == nil {
		return []Victim{}, nil
	}

	refs := make([]*Victim, len(victims))
	for i := range victims {
		refs[i] = &victims[i]
	}
	if err := r.loadImages(ctx, refs); err != nil {
		return nil, err
	}
	return victims, nil
}

// loadImages fills in the image URL lists for the given victims with a single query.
func (r *PostgresRepository) loadImages(ctx context.Context, victims []*Victim) error {
	if len(victims) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*Victim, len(victims))
	ids := make([]uuid.UUID, 0, len(victims))
	for _, v := range victims {
		v.Images = []string{}
		byID[v.ID] = v
		ids = append(ids, v.ID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT victim_id, url FROM victim_images WHERE victim_id = ANY($1) ORDER BY victim_id, position`,
		ids)
	if err != nil {
		return fmt.Errorf("listing victim images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var victimID uuid.UUID
		var url string
		if err := rows.Scan(&victimID, &url); err != nil {
			return fmt.Errorf("scanning victim image row: %w", err)
		}
		if v, ok := byID[victimID]; ok {
			v.Images = append(v.Images, url)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating victim image rows: %w", err)
	}
	return nil
}
