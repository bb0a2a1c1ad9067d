package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"staff-ride-router/internal/models"
)

type runRepository struct {
	store *Store
}

const runColumns = `id, run_id, destination_lat, destination_lng, params, summary, notes, created_at`

func scanRun(row interface{ Scan(...any) error }) (models.Run, error) {
	var run models.Run
	var params, summary string
	if err := row.Scan(&run.ID, &run.RunID, &run.Destination.Lat, &run.Destination.Lng,
		&params, &summary, &run.Notes, &run.CreatedAt); err != nil {
		return run, err
	}
	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return run, fmt.Errorf("failed to decode run params: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return run, fmt.Errorf("failed to decode run summary: %w", err)
	}
	return run, nil
}

func (r *runRepository) List(ctx context.Context, limit, offset int) ([]models.Run, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var total int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(query), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, total, nil
}

func (r *runRepository) GetByID(ctx context.Context, id int64) (*models.Run, []models.RunAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	run, err := scanRun(r.store.db.QueryRowContext(ctx, r.store.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run: %w", err)
	}

	assignQuery := `SELECT id, run_id, route_name, cluster_id, stop_order, staff_id, staff_name,
	                       staff_address, lat, lng, distance_from_prev_km, unassigned, reason
	                FROM run_assignments
	                WHERE run_id = ?
	                ORDER BY id`
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(assignQuery), id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.RunAssignment{}
	for rows.Next() {
		var a models.RunAssignment
		if err := rows.Scan(&a.ID, &a.RunID, &a.RouteName, &a.ClusterID, &a.StopOrder, &a.StaffID,
			&a.StaffName, &a.StaffAddress, &a.Lat, &a.Lng, &a.DistanceFromPrevKm, &a.Unassigned, &a.Reason); err != nil {
			return nil, nil, fmt.Errorf("failed to scan run assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating run assignments: %w", err)
	}

	return &run, assignments, nil
}

// Create stores the run, its assignment rows and summary in one transaction
func (r *runRepository) Create(ctx context.Context, run *models.Run, assignments []models.RunAssignment) (*models.Run, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	params, err := json.Marshal(run.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run params: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run summary: %w", err)
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	runQuery := `INSERT INTO runs (run_id, destination_lat, destination_lng, params, summary, notes, created_at)
	             VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`
	if err := tx.QueryRowContext(ctx, r.store.rebind(runQuery),
		run.RunID, run.Destination.Lat, run.Destination.Lng, string(params), string(summary), run.Notes, run.CreatedAt,
	).Scan(&run.ID); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	assignQuery := r.store.rebind(`INSERT INTO run_assignments
	                (run_id, route_name, cluster_id, stop_order, staff_id, staff_name, staff_address,
	                 lat, lng, distance_from_prev_km, unassigned, reason)
	                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i := range assignments {
		a := &assignments[i]
		a.RunID = run.ID
		if _, err := tx.ExecContext(ctx, assignQuery,
			a.RunID, a.RouteName, a.ClusterID, a.StopOrder, a.StaffID, a.StaffName, a.StaffAddress,
			a.Lat, a.Lng, a.DistanceFromPrevKm, a.Unassigned, a.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to create run assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return run, nil
}

func (r *runRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.store.rebind(`DELETE FROM run_assignments WHERE run_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete run assignments: %w", err)
	}
	result, err := tx.ExecContext(ctx, r.store.rebind(`DELETE FROM runs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}
	return tx.Commit()
}
