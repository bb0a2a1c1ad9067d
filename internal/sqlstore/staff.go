package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"staff-ride-router/internal/database"
	"staff-ride-router/internal/models"
)

type staffRepository struct {
	store *Store
}

const staffColumns = `id, name, address, lat, lng, created_at, updated_at`

func scanStaff(row interface{ Scan(...any) error }) (models.StaffMember, error) {
	var m models.StaffMember
	err := row.Scan(&m.ID, &m.Name, &m.Address, &m.Lat, &m.Lng, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *staffRepository) List(ctx context.Context, search string) ([]models.StaffMember, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT ` + staffColumns + ` FROM staff`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE LOWER(name) LIKE ? OR LOWER(address) LIKE ?`
		pattern := "%" + strings.ToLower(search) + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY name, id`

	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	staff := []models.StaffMember{}
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}
	return staff, nil
}

func (r *staffRepository) GetByID(ctx context.Context, id int64) (*models.StaffMember, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = ?`
	m, err := scanStaff(r.store.db.QueryRowContext(ctx, r.store.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &m, nil
}

func (r *staffRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.StaffMember, error) {
	if len(ids) == 0 {
		return []models.StaffMember{}, nil
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id`

	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff by ids: %w", err)
	}
	defer rows.Close()

	staff := []models.StaffMember{}
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, m)
	}
	return staff, rows.Err()
}

func (r *staffRepository) Create(ctx context.Context, m *models.StaffMember) (*models.StaffMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	query := `INSERT INTO staff (name, address, lat, lng, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(query),
		m.Name, m.Address, m.Lat, m.Lng, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return m, nil
}

func (r *staffRepository) Update(ctx context.Context, m *models.StaffMember) (*models.StaffMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m.UpdatedAt = time.Now().UTC()
	query := `UPDATE staff SET name = ?, address = ?, lat = ?, lng = ?, updated_at = ? WHERE id = ?`
	result, err := r.store.db.ExecContext(ctx, r.store.rebind(query), m.Name, m.Address, m.Lat, m.Lng, m.UpdatedAt, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *staffRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, err := r.store.db.ExecContext(ctx, r.store.rebind(`DELETE FROM staff WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete staff: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
