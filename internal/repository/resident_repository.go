package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bless-tracker/internal/domain"
)

// ResidentRepository persists residents owned by a profile.
type ResidentRepository interface {
	// ListByOwner returns the owner's residents, newest first, with their
	// interactions attached newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Resident, error)
	Create(ctx context.Context, ownerID string, resident *domain.Resident) error
	UpdateFields(ctx context.Context, id string, fields []domain.FieldValue) error
	Delete(ctx context.Context, id string) error
}

type residentRepository struct {
	pool *pgxpool.Pool
}

// NewResidentRepository returns a Postgres-backed implementation.
func NewResidentRepository(pool *pgxpool.Pool) ResidentRepository {
	return &residentRepository{pool: pool}
}

func (r *residentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Resident, error) {
	const residentsQuery = `
        SELECT id, longitude, latitude, address, resident_name, current_bless_status,
               prayer_requests, last_interaction, created_at
        FROM residents WHERE profile_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, residentsQuery, ownerID)
	if err != nil {
		return nil, err
	}
	residents, err := scanResidents(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	const interactionsQuery = `
        SELECT i.id, i.resident_id, i.type, i.content, i.status, i.timestamp
        FROM interactions i JOIN residents r ON r.id = i.resident_id
        WHERE r.profile_id=$1 ORDER BY i.timestamp DESC`
	rows, err = r.pool.Query(ctx, interactionsQuery, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byResident := make(map[string][]domain.Interaction, len(residents))
	for rows.Next() {
		var (
			interaction domain.Interaction
			residentID  string
		)
		if err := rows.Scan(
			&interaction.ID,
			&residentID,
			&interaction.Kind,
			&interaction.Content,
			&interaction.Status,
			&interaction.Timestamp,
		); err != nil {
			return nil, err
		}
		byResident[residentID] = append(byResident[residentID], interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range residents {
		residents[i].Interactions = byResident[residents[i].ID]
		if residents[i].Interactions == nil {
			residents[i].Interactions = []domain.Interaction{}
		}
	}
	return residents, nil
}

func (r *residentRepository) Create(ctx context.Context, ownerID string, resident *domain.Resident) error {
	const query = `
        INSERT INTO residents (id, profile_id, longitude, latitude, address, resident_name,
            current_bless_status, prayer_requests, last_interaction, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.pool.Exec(ctx, query,
		resident.ID,
		ownerID,
		resident.Coordinate.Longitude,
		resident.Coordinate.Latitude,
		resident.Address,
		resident.Name,
		resident.CurrentBlessStatus,
		resident.PrayerRequests,
		resident.LastInteraction,
		resident.CreatedAt,
	)
	return err
}

func (r *residentRepository) UpdateFields(ctx context.Context, id string, fields []domain.FieldValue) error {
	query, args, err := buildResidentUpdate(id, fields)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *residentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM residents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanResidents(rows pgx.Rows) ([]domain.Resident, error) {
	var result []domain.Resident
	for rows.Next() {
		var resident domain.Resident
		if err := rows.Scan(
			&resident.ID,
			&resident.Coordinate.Longitude,
			&resident.Coordinate.Latitude,
			&resident.Address,
			&resident.Name,
			&resident.CurrentBlessStatus,
			&resident.PrayerRequests,
			&resident.LastInteraction,
			&resident.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, resident)
	}
	return result, rows.Err()
}
