package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bless-tracker/internal/domain"
)

// InteractionRepository appends history entries. Entries are never updated;
// they disappear only through the residents cascade.
type InteractionRepository interface {
	Create(ctx context.Context, residentID string, interaction *domain.Interaction) error
}

type interactionRepository struct {
	pool *pgxpool.Pool
}

// NewInteractionRepository builds repository.
func NewInteractionRepository(pool *pgxpool.Pool) InteractionRepository {
	return &interactionRepository{pool: pool}
}

func (r *interactionRepository) Create(ctx context.Context, residentID string, interaction *domain.Interaction) error {
	const query = `
        INSERT INTO interactions (id, resident_id, type, content, status, timestamp)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.pool.Exec(ctx, query,
		interaction.ID,
		residentID,
		interaction.Kind,
		interaction.Content,
		interaction.Status,
		interaction.Timestamp,
	)
	return err
}
