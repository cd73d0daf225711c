package sweep

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/constants"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/jupiter"
)

// Planner turns a list of token mints into a set of executable, fee-correct,
// size-bounded transactions that sweep every balance into native SOL.
// Planning is all-or-nothing: any failure aborts the whole call and nothing
// is returned for signature.
type Planner struct {
	ledger Ledger
	quotes QuoteProvider
	oracle FeeOracle
	meta   MetaResolver
	cfg    Config
	logger *logrus.Logger
}

func NewPlanner(ledger Ledger, quotes QuoteProvider, oracle FeeOracle, meta MetaResolver, cfg Config, logger *logrus.Logger) *Planner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Planner{
		ledger: ledger,
		quotes: quotes,
		oracle: oracle,
		meta:   meta,
		cfg:    cfg,
		logger: logger,
	}
}

var wsolMint = solana.MustPublicKeyFromBase58(constants.WrappedSOLMint)

// Plan validates every request, computes the admin fee once, partitions the
// requests into batches of batchSize (cfg default when <= 0), compiles one
// versioned transaction per batch, and verifies the owner can afford the
// aggregate network fees before anything is returned for signing.
func (p *Planner) Plan(ctx context.Context, owner solana.PublicKey, mints []solana.PublicKey, batchSize int) (*Plan, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.BatchSize
	}

	resolved, err := p.validateRequests(ctx, owner, mints)
	if err != nil {
		return nil, err
	}

	// One fee for the whole sweep, computed up front so every chunk sees
	// the same immutable amount.
	adminFeeLamports, err := p.oracle.QuoteFeeLamports(ctx, p.cfg.AdminFeeUSD)
	if err != nil {
		return nil, err
	}

	totalBatches := (len(resolved) + batchSize - 1) / batchSize

	plan := &Plan{
		Owner:   owner.String(),
		Batches: make([]PlannedBatch, 0, totalBatches),
		Swaps:   make([]SwapOutcome, 0, len(resolved)),
	}

	for start := 0; start < len(resolved); start += batchSize {
		end := start + batchSize
		if end > len(resolved) {
			end = len(resolved)
		}
		chunk := resolved[start:end]
		batchIndex := start / batchSize
		isLast := end == len(resolved)

		batch, swaps, err := p.planBatch(ctx, owner, chunk, batchIndex, isLast, adminFeeLamports)
		if err != nil {
			return nil, err
		}

		plan.Batches = append(plan.Batches, *batch)
		plan.Swaps = append(plan.Swaps, swaps...)
	}

	for _, b := range plan.Batches {
		plan.Totals.TotalInstructions += b.InstructionCount
		plan.Totals.TotalExpectedLamportsOut += b.ExpectedLamportsOut
	}
	plan.Totals.TotalBatches = len(plan.Batches)
	plan.Totals.AdminFeeLamports = adminFeeLamports
	if plan.Totals.TotalExpectedLamportsOut > adminFeeLamports {
		plan.Totals.NetLamportsOut = plan.Totals.TotalExpectedLamportsOut - adminFeeLamports
	}
	plan.Totals.EstimatedNetworkFeeLamports = p.cfg.PerTxFeeLamports * uint64(len(plan.Batches))

	// The caller must never be handed transactions it cannot afford to
	// submit.
	if err := p.CheckAffordability(ctx, owner, len(plan.Batches)); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"owner":     owner.String(),
		"mints":     len(resolved),
		"batches":   len(plan.Batches),
		"admin_fee": adminFeeLamports,
	}).Info("sweep plan ready")

	return plan, nil
}

// planBatch assembles and compiles one chunk. Instruction order inside the
// transaction is significant: compute-budget directives first, then each
// swap's setup/swap/cleanup in request order, and the admin-fee transfer
// last on the final batch only.
func (p *Planner) planBatch(
	ctx context.Context,
	owner solana.PublicKey,
	chunk []resolvedRequest,
	batchIndex int,
	isLast bool,
	adminFeeLamports uint64,
) (*PlannedBatch, []SwapOutcome, error) {
	unitLimit := p.cfg.BaseComputeUnits + p.cfg.PerSwapComputeUnits*uint32(len(chunk))

	instructions := []solana.Instruction{
		NewSetComputeUnitPriceIx(p.cfg.ComputeUnitPriceMicro),
		NewSetComputeUnitLimitIx(unitLimit),
	}

	// Lookup tables are deduplicated per batch; each batch is an
	// independent transaction and only its own compilation needs them.
	tableSet := make(map[solana.PublicKey]struct{})
	var tableAddrs []solana.PublicKey

	swaps := make([]SwapOutcome, 0, len(chunk))
	mints := make([]string, 0, len(chunk))
	var expectedOut uint64

	for _, req := range chunk {
		slippage := p.cfg.SlippageBps
		quote, err := p.quotes.Quote(ctx, jupiter.QuoteRequest{
			InputMint:   req.Mint.String(),
			OutputMint:  wsolMint.String(),
			Amount:      strconv.FormatUint(req.Balance, 10),
			SlippageBps: &slippage,
			SwapMode:    "ExactIn",
		})
		if err != nil {
			return nil, nil, &QuoteUnavailableError{Mint: req.Mint, BatchIndex: batchIndex, Err: err}
		}

		ixSet, err := p.quotes.SwapInstructions(ctx, jupiter.SwapInstructionsRequest{
			UserPublicKey:            owner.String(),
			QuoteResponse:            quote,
			WrapAndUnwrapSol:         true,
			SkipUserAccountsRpcCalls: true,
		})
		if err != nil {
			return nil, nil, &QuoteUnavailableError{Mint: req.Mint, BatchIndex: batchIndex, Err: err}
		}

		for _, raw := range ixSet.AddressLookupTableAddresses {
			addr, err := solana.PublicKeyFromBase58(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("batch %d: invalid lookup table address %q: %w", batchIndex, raw, err)
			}
			if _, ok := tableSet[addr]; !ok {
				tableSet[addr] = struct{}{}
				tableAddrs = append(tableAddrs, addr)
			}
		}

		// The provider's own compute-budget instructions are discarded;
		// the batch carries a single budget covering all of its swaps.
		setup, err := jupiter.DecodeAll(ixSet.SetupInstructions)
		if err != nil {
			return nil, nil, fmt.Errorf("batch %d mint %s: %w", batchIndex, req.Mint, err)
		}
		swapIx, err := ixSet.SwapInstruction.Decode()
		if err != nil {
			return nil, nil, fmt.Errorf("batch %d mint %s: %w", batchIndex, req.Mint, err)
		}

		instructions = append(instructions, setup...)
		instructions = append(instructions, swapIx)
		if ixSet.CleanupInstruction != nil {
			cleanup, err := ixSet.CleanupInstruction.Decode()
			if err != nil {
				return nil, nil, fmt.Errorf("batch %d mint %s: %w", batchIndex, req.Mint, err)
			}
			instructions = append(instructions, cleanup)
		}

		out, err := strconv.ParseUint(quote.OutAmount, 10, 64)
		if err != nil {
			return nil, nil, &QuoteUnavailableError{Mint: req.Mint, BatchIndex: batchIndex,
				Err: fmt.Errorf("invalid outAmount %q", quote.OutAmount)}
		}
		expectedOut += out

		swaps = append(swaps, SwapOutcome{
			Mint:                req.Mint.String(),
			InAmount:            req.Balance,
			ExpectedLamportsOut: out,
			Quote:               quote,
		})
		mints = append(mints, req.Mint.String())
	}

	batchFee := uint64(0)
	if isLast {
		instructions = append(instructions, NewSystemTransferIx(owner, p.cfg.AdminFeeReceiver, adminFeeLamports))
		batchFee = adminFeeLamports
	}

	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(tableAddrs))
	for _, addr := range tableAddrs {
		addresses, err := p.ledger.LookupTable(ctx, addr)
		if err != nil {
			return nil, nil, fmt.Errorf("batch %d: fetch lookup table %s: %w", batchIndex, addr, err)
		}
		tables[addr] = addresses
	}

	blockhash, lastValid, err := p.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("batch %d: fetch blockhash: %w", batchIndex, err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(owner),
		solana.TransactionAddressTables(tables),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("batch %d: compile transaction: %w", batchIndex, err)
	}

	// Placeholder signatures so the serialized size matches what will
	// actually hit the wire after the caller signs.
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("batch %d: serialize transaction: %w", batchIndex, err)
	}
	if len(txBytes) > constants.MaxTransactionBytes {
		return nil, nil, &TransactionTooLargeError{
			BatchIndex: batchIndex,
			ByteSize:   len(txBytes),
			Limit:      constants.MaxTransactionBytes,
		}
	}

	return &PlannedBatch{
		Index:                batchIndex,
		Mints:                mints,
		TransactionBase64:    base64.StdEncoding.EncodeToString(txBytes),
		SwapCount:            len(chunk),
		InstructionCount:     len(instructions),
		ByteSize:             len(txBytes),
		ExpectedLamportsOut:  expectedOut,
		AdminFeeLamports:     batchFee,
		LastValidBlockHeight: lastValid,
	}, swaps, nil
}
