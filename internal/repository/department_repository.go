package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventide/conreg-api/internal/eventconfig"
	"github.com/eventide/conreg-api/internal/models"
)

type DepartmentRepository struct {
	db *sqlx.DB
}

func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	depts := []models.Department{}
	query := `SELECT id, name, description, solicits_volunteers, created_at
		FROM departments ORDER BY name`
	if err := r.db.SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

// Options satisfies eventconfig.DepartmentSource.
func (r *DepartmentRepository) Options(ctx context.Context) ([]eventconfig.DeptOpt, error) {
	depts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]eventconfig.DeptOpt, 0, len(depts))
	for _, d := range depts {
		opts = append(opts, eventconfig.DeptOpt{ID: d.ID, Name: d.Name, Description: d.Description})
	}
	return opts, nil
}

// VolunteerOptions lists only departments that take volunteer signups.
func (r *DepartmentRepository) VolunteerOptions(ctx context.Context) ([]models.Department, error) {
	depts := []models.Department{}
	query := `SELECT id, name, description, solicits_volunteers, created_at
		FROM departments WHERE solicits_volunteers ORDER BY name`
	if err := r.db.SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("list volunteer departments: %w", err)
	}
	return depts, nil
}
