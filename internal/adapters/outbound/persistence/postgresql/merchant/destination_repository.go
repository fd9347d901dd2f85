package merchant

import (
	"context"
	"database/sql"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type DestinationRepository struct {
	db *sql.DB
}

var _ portsout.DestinationRepository = (*DestinationRepository)(nil)

func NewDestinationRepository(db *sql.DB) *DestinationRepository {
	return &DestinationRepository{db: db}
}

func (r *DestinationRepository) Create(ctx context.Context, destination entities.SavedDestination) *apperrors.AppError {
	const query = `
INSERT INTO app.saved_destinations (id, merchant_id, chain, address, label, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(
		ctx,
		query,
		destination.ID,
		destination.MerchantID,
		destination.Chain.String(),
		destination.Address,
		destination.Label,
		destination.CreatedAt.UTC(),
	)
	if err != nil {
		return shared.InternalError("destination_insert_failed", "failed to insert saved destination", err)
	}
	return nil
}

func (r *DestinationRepository) GetByID(ctx context.Context, merchantID string, id string) (entities.SavedDestination, bool, *apperrors.AppError) {
	const query = `
SELECT id, merchant_id, chain, address, label, created_at
FROM app.saved_destinations
WHERE id = $1
  AND merchant_id = $2
`
	destination, err := scanDestination(r.db.QueryRowContext(ctx, query, id, merchantID))
	if shared.IsNoRows(err) {
		return entities.SavedDestination{}, false, nil
	}
	if err != nil {
		return entities.SavedDestination{}, false, shared.InternalError("destination_query_failed", "failed to query saved destination", err)
	}
	return destination, true, nil
}

func (r *DestinationRepository) List(ctx context.Context, merchantID string) ([]entities.SavedDestination, *apperrors.AppError) {
	const query = `
SELECT id, merchant_id, chain, address, label, created_at
FROM app.saved_destinations
WHERE merchant_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.QueryContext(ctx, query, merchantID)
	if err != nil {
		return nil, shared.InternalError("destination_query_failed", "failed to list saved destinations", err)
	}
	defer rows.Close()

	destinations := []entities.SavedDestination{}
	for rows.Next() {
		destination, err := scanDestination(rows)
		if err != nil {
			return nil, shared.InternalError("destination_query_failed", "failed to parse saved destination", err)
		}
		destinations = append(destinations, destination)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.InternalError("destination_query_failed", "failed while iterating saved destinations", err)
	}
	return destinations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDestination(row rowScanner) (entities.SavedDestination, error) {
	destination := entities.SavedDestination{}
	var chain string
	if err := row.Scan(
		&destination.ID,
		&destination.MerchantID,
		&chain,
		&destination.Address,
		&destination.Label,
		&destination.CreatedAt,
	); err != nil {
		return entities.SavedDestination{}, err
	}
	destination.Chain = valueobjects.Chain(chain)
	destination.CreatedAt = destination.CreatedAt.UTC()
	return destination, nil
}
