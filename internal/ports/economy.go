package ports

import "context"

// WalletUpdate represents a single currency change for a user.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort defines the interface for managing the ink currency.
type EconomyPort interface {
	// GetBalance retrieves the current ink balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies multiple wallet changes.
	// This is used when a game completes to award ink to its contributors.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
