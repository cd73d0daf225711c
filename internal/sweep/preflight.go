package sweep

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// CheckAffordability verifies the owner's native balance covers the
// estimated network fees for batchCount transactions. The per-transaction
// fee is a conservative flat estimate (base fee plus priority budget), not
// a simulation result.
func (p *Planner) CheckAffordability(ctx context.Context, owner solana.PublicKey, batchCount int) error {
	if batchCount <= 0 {
		return nil
	}

	required := p.cfg.PerTxFeeLamports * uint64(batchCount)

	available, err := p.ledger.NativeBalance(ctx, owner)
	if err != nil {
		return fmt.Errorf("read native balance for %s: %w", owner, err)
	}

	if available < required {
		return &InsufficientFundsError{
			RequiredLamports:  required,
			AvailableLamports: available,
		}
	}
	return nil
}
