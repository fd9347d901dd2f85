package payout

import (
	"context"
	"database/sql"

	"stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type BalanceReadModel struct {
	db *sql.DB
}

var _ portsout.BalanceReadModel = (*BalanceReadModel)(nil)

func NewBalanceReadModel(db *sql.DB) *BalanceReadModel {
	return &BalanceReadModel{db: db}
}

// GetBalance returns a zero balance for a merchant that has never been credited.
func (m *BalanceReadModel) GetBalance(ctx context.Context, merchantID string, currency string) (entities.Balance, *apperrors.AppError) {
	const query = `
SELECT merchant_id, currency, total, onchain, offchain, updated_at
FROM app.balances
WHERE merchant_id = $1
  AND currency = $2
`
	balance, err := scanBalance(m.db.QueryRowContext(ctx, query, merchantID, currency))
	if shared.IsNoRows(err) {
		return entities.ZeroBalance(merchantID, valueobjects.Currency(currency)), nil
	}
	if err != nil {
		return entities.Balance{}, shared.InternalError("balance_query_failed", "failed to query merchant balance", err)
	}
	return balance, nil
}

func (m *BalanceReadModel) ListBalances(ctx context.Context, merchantID string) ([]entities.Balance, *apperrors.AppError) {
	const query = `
SELECT merchant_id, currency, total, onchain, offchain, updated_at
FROM app.balances
WHERE merchant_id = $1
ORDER BY currency ASC
`
	rows, err := m.db.QueryContext(ctx, query, merchantID)
	if err != nil {
		return nil, shared.InternalError("balance_query_failed", "failed to list merchant balances", err)
	}
	defer rows.Close()

	balances := []entities.Balance{}
	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, shared.InternalError("balance_query_failed", "failed to parse merchant balance", err)
		}
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.InternalError("balance_query_failed", "failed while iterating merchant balances", err)
	}
	return balances, nil
}

func scanBalance(row rowScanner) (entities.Balance, error) {
	balance := entities.Balance{}
	var currency string
	if err := row.Scan(
		&balance.MerchantID,
		&currency,
		&balance.Total,
		&balance.Onchain,
		&balance.Offchain,
		&balance.UpdatedAt,
	); err != nil {
		return entities.Balance{}, err
	}
	balance.Currency = valueobjects.Currency(currency)
	balance.UpdatedAt = balance.UpdatedAt.UTC()
	return balance, nil
}
