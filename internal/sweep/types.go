package sweep

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/jupiter"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/tokenmeta"
)

// Ledger is the on-chain read/write surface the sweep subsystem needs.
// Implemented by chain.Client; faked in tests.
type Ledger interface {
	TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	LookupTable(ctx context.Context, address solana.PublicKey) (solana.PublicKeySlice, error)
	SendRawTransaction(ctx context.Context, txBytes []byte) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) error
}

// QuoteProvider returns exchange quotes and the raw instructions to execute
// them. Implemented by jupiter.Client.
type QuoteProvider interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
	SwapInstructions(ctx context.Context, req jupiter.SwapInstructionsRequest) (*jupiter.SwapInstructionsResponse, error)
}

// FeeOracle converts the USD admin-fee target into lamports.
// Implemented by pricing.Oracle.
type FeeOracle interface {
	QuoteFeeLamports(ctx context.Context, usdAmount decimal.Decimal) (uint64, error)
}

// MetaResolver resolves mint decimals and owning token program.
// Implemented by tokenmeta.Resolver.
type MetaResolver interface {
	Resolve(ctx context.Context, mint solana.PublicKey) (tokenmeta.Meta, error)
}

// Config carries the sweep policy knobs. All of them are heuristics tied to
// typical route complexity, not protocol constants.
type Config struct {
	BatchSize             int
	BaseComputeUnits      uint32
	PerSwapComputeUnits   uint32
	ComputeUnitPriceMicro uint64
	SlippageBps           uint16
	PerTxFeeLamports      uint64
	AdminFeeUSD           decimal.Decimal
	AdminFeeReceiver      solana.PublicKey
}

// PlannedBatch is one compiled, unsigned transaction plus the metadata the
// caller needs to identify what it covers. The mint list is attached so a
// partially failed sweep can be retried for exactly the failed subset.
type PlannedBatch struct {
	Index                int      `json:"index"`
	Mints                []string `json:"mints"`
	TransactionBase64    string   `json:"transaction"`
	SwapCount            int      `json:"swapCount"`
	InstructionCount     int      `json:"instructionCount"`
	ByteSize             int      `json:"byteSize"`
	ExpectedLamportsOut  uint64   `json:"expectedLamportsOut"`
	AdminFeeLamports     uint64   `json:"adminFeeLamports"`
	LastValidBlockHeight uint64   `json:"lastValidBlockHeight"`
}

// SwapOutcome reports one planned swap for UI display.
type SwapOutcome struct {
	Mint                string                 `json:"mint"`
	InAmount            uint64                 `json:"inAmount"`
	ExpectedLamportsOut uint64                 `json:"expectedLamportsOut"`
	Quote               *jupiter.QuoteResponse `json:"quote"`
}

// Totals aggregates the whole plan.
type Totals struct {
	TotalBatches                int    `json:"totalBatches"`
	TotalInstructions           int    `json:"totalInstructions"`
	TotalExpectedLamportsOut    uint64 `json:"totalExpectedLamportsOut"`
	AdminFeeLamports            uint64 `json:"adminFeeLamports"`
	NetLamportsOut              uint64 `json:"netLamportsOut"`
	EstimatedNetworkFeeLamports uint64 `json:"estimatedNetworkFeeLamports"`
}

// Plan is the complete result of a planning call: either every requested
// mint is accounted for here, or the call failed with a typed error.
type Plan struct {
	Owner   string         `json:"owner"`
	Batches []PlannedBatch `json:"batches"`
	Swaps   []SwapOutcome  `json:"swaps"`
	Totals  Totals         `json:"totals"`
}

// BatchResult is the per-transaction outcome of a broadcast. Failures are
// reported independently; confirmed siblings are never rolled back.
type BatchResult struct {
	Index     int    `json:"index"`
	Signature string `json:"signature,omitempty"`
	Confirmed bool   `json:"confirmed"`
	Error     string `json:"error,omitempty"`
}

// resolvedRequest is the validator's view of one sweep request after the
// balance gate: derived token account, metadata, and the full balance that
// will be swept.
type resolvedRequest struct {
	Mint    solana.PublicKey
	Meta    tokenmeta.Meta
	Account solana.PublicKey
	Balance uint64
}
