package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facility-ops/internal/domain"
)

// AssetFilter captures asset listing parameters.
type AssetFilter struct {
	Building *string
	Statuses []domain.AssetStatus
	Category *string
	Limit    int
	Offset   int
}

// AssetRepository encapsulates asset persistence.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	Update(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	GetByTag(ctx context.Context, tag string) (*domain.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]domain.Asset, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.AssetStatus, at time.Time) (bool, error)
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository instantiates repository.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

const assetColumns = `id, tag, name, category, building, location, status, status_changed_at, created_at, updated_at`

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO assets (tag, name, category, building, location, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, status_changed_at, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		asset.Tag,
		asset.Name,
		asset.Category,
		asset.Building,
		asset.Location,
		asset.Status,
	).Scan(&asset.ID, &asset.StatusChangedAt, &asset.CreatedAt, &asset.UpdatedAt)
}

func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	const query = `
        UPDATE assets SET name=$1, category=$2, building=$3, location=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		asset.Name,
		asset.Category,
		asset.Building,
		asset.Location,
		asset.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id=$1`, assetColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *assetRepository) GetByTag(ctx context.Context, tag string) (*domain.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE tag=$1`, assetColumns)
	return r.fetchSingle(ctx, query, tag)
}

func (r *assetRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Asset, error) {
	var asset domain.Asset
	if err := querierFrom(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&asset.ID,
		&asset.Tag,
		&asset.Name,
		&asset.Category,
		&asset.Building,
		&asset.Location,
		&asset.Status,
		&asset.StatusChangedAt,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]domain.Asset, error) {
	base := fmt.Sprintf(`SELECT %s FROM assets`, assetColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Building != nil {
		args = append(args, *filter.Building)
		clauses = append(clauses, fmt.Sprintf("building=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY tag ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Asset
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.Tag,
			&asset.Name,
			&asset.Category,
			&asset.Building,
			&asset.Location,
			&asset.Status,
			&asset.StatusChangedAt,
			&asset.CreatedAt,
			&asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	return result, rows.Err()
}

// TransitionStatus flips the asset status only when it still holds the
// expected previous value, so a concurrent edit cannot be silently clobbered.
func (r *assetRepository) TransitionStatus(ctx context.Context, id string, from, to domain.AssetStatus, at time.Time) (bool, error) {
	const query = `
        UPDATE assets SET status=$2, status_changed_at=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query, id, to, at, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
