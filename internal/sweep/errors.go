package sweep

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrNoRequests is returned when a plan is requested for an empty mint list.
var ErrNoRequests = errors.New("no swap requests to plan")

// DuplicateMintError rejects request lists naming the same mint twice. A
// sweep drains the full balance, so a second request for the same mint
// could only ever double-quote a balance that the first already consumed.
type DuplicateMintError struct {
	Mint solana.PublicKey
}

func (e *DuplicateMintError) Error() string {
	return fmt.Sprintf("duplicate mint in request list: %s", e.Mint)
}

// NoBalanceError means the owner's token account for a requested mint
// holds a zero balance.
type NoBalanceError struct {
	Mint solana.PublicKey
}

func (e *NoBalanceError) Error() string {
	return fmt.Sprintf("no balance to sweep for mint %s", e.Mint)
}

// AccountNotFoundError means the owner has no token account at all for a
// requested mint.
type AccountNotFoundError struct {
	Mint solana.PublicKey
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("no token account for mint %s", e.Mint)
}

// QuoteUnavailableError means the quote provider could not route a mint to
// the native asset (or failed to return instructions for a quote). It
// aborts the entire multi-batch plan.
type QuoteUnavailableError struct {
	Mint       solana.PublicKey
	BatchIndex int
	Err        error
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("quote unavailable for mint %s (batch %d): %v", e.Mint, e.BatchIndex, e.Err)
}

func (e *QuoteUnavailableError) Unwrap() error { return e.Err }

// InsufficientFundsError means the owner's native balance cannot cover the
// estimated network fees for the planned batch count.
type InsufficientFundsError struct {
	RequiredLamports  uint64
	AvailableLamports uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for network fees: need %d lamports, have %d",
		e.RequiredLamports, e.AvailableLamports)
}

// TransactionTooLargeError means a compiled batch exceeded the network's
// transaction size ceiling; the batch size knob must be lowered.
type TransactionTooLargeError struct {
	BatchIndex int
	ByteSize   int
	Limit      int
}

func (e *TransactionTooLargeError) Error() string {
	return fmt.Sprintf("batch %d serialized to %d bytes, over the %d-byte transaction limit",
		e.BatchIndex, e.ByteSize, e.Limit)
}
