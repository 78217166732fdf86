package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facility-ops/internal/domain"
)

// TechnicianFilter captures technician listing parameters.
type TechnicianFilter struct {
	Building *string
	Trade    *domain.TechnicianTrade
	OnCall   *bool
	Active   *bool
	Limit    int
}

// TechnicianRepository encapsulates technician persistence.
type TechnicianRepository interface {
	Create(ctx context.Context, tech *domain.Technician) error
	Update(ctx context.Context, tech *domain.Technician) error
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error)
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, name, email, trade, building, on_call, active, created_at, updated_at`

func (r *technicianRepository) Create(ctx context.Context, tech *domain.Technician) error {
	const query = `
        INSERT INTO technicians (name, email, trade, building, on_call, active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		tech.Name,
		tech.Email,
		tech.Trade,
		tech.Building,
		tech.OnCall,
		tech.Active,
	).Scan(&tech.ID, &tech.CreatedAt, &tech.UpdatedAt)
}

func (r *technicianRepository) Update(ctx context.Context, tech *domain.Technician) error {
	const query = `
        UPDATE technicians SET name=$1, email=$2, trade=$3, building=$4, on_call=$5, active=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		tech.Name,
		tech.Email,
		tech.Trade,
		tech.Building,
		tech.OnCall,
		tech.Active,
		tech.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	query := fmt.Sprintf(`SELECT %s FROM technicians WHERE id=$1`, technicianColumns)
	var tech domain.Technician
	if err := querierFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&tech.ID,
		&tech.Name,
		&tech.Email,
		&tech.Trade,
		&tech.Building,
		&tech.OnCall,
		&tech.Active,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tech, nil
}

func (r *technicianRepository) List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error) {
	base := fmt.Sprintf(`SELECT %s FROM technicians`, technicianColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Building != nil {
		args = append(args, *filter.Building)
		clauses = append(clauses, fmt.Sprintf("(building IS NULL OR building=$%d)", len(args)))
	}
	if filter.Trade != nil {
		args = append(args, *filter.Trade)
		clauses = append(clauses, fmt.Sprintf("trade=$%d", len(args)))
	}
	if filter.OnCall != nil {
		args = append(args, *filter.OnCall)
		clauses = append(clauses, fmt.Sprintf("on_call=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at ASC LIMIT %d`,
		base, strings.Join(clauses, " AND "), limit)

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		var tech domain.Technician
		if err := rows.Scan(
			&tech.ID,
			&tech.Name,
			&tech.Email,
			&tech.Trade,
			&tech.Building,
			&tech.OnCall,
			&tech.Active,
			&tech.CreatedAt,
			&tech.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tech)
	}
	return result, rows.Err()
}
