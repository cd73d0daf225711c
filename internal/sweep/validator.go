package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/chain"
)

// validateRequests gates a plan before any quote is fetched: rejects empty
// and duplicate-bearing request lists, then checks that every mint has a
// token account with a non-zero balance, failing fast on the first
// offender. The resolved accounts and balances are reused by the planner
// so the swept amount is exactly the balance that passed the gate.
func (p *Planner) validateRequests(ctx context.Context, owner solana.PublicKey, mints []solana.PublicKey) ([]resolvedRequest, error) {
	if len(mints) == 0 {
		return nil, ErrNoRequests
	}

	seen := make(map[solana.PublicKey]struct{}, len(mints))
	for _, mint := range mints {
		if _, dup := seen[mint]; dup {
			return nil, &DuplicateMintError{Mint: mint}
		}
		seen[mint] = struct{}{}
	}

	resolved := make([]resolvedRequest, 0, len(mints))
	for _, mint := range mints {
		meta, err := p.meta.Resolve(ctx, mint)
		if err != nil {
			if errors.Is(err, chain.ErrAccountNotFound) {
				return nil, &AccountNotFoundError{Mint: mint}
			}
			return nil, fmt.Errorf("resolve mint %s: %w", mint, err)
		}

		ata, _, err := FindAssociatedTokenAddress(owner, mint, meta.Program())
		if err != nil {
			return nil, fmt.Errorf("derive token account for mint %s: %w", mint, err)
		}

		balance, err := p.ledger.TokenAccountBalance(ctx, ata)
		if err != nil {
			if errors.Is(err, chain.ErrAccountNotFound) {
				return nil, &AccountNotFoundError{Mint: mint}
			}
			return nil, fmt.Errorf("read balance for mint %s: %w", mint, err)
		}
		if balance == 0 {
			return nil, &NoBalanceError{Mint: mint}
		}

		resolved = append(resolved, resolvedRequest{
			Mint:    mint,
			Meta:    meta,
			Account: ata,
			Balance: balance,
		})
	}

	return resolved, nil
}
