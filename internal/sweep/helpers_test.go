package sweep

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/chain"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/jupiter"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/tokenmeta"
)

// fakeLedger implements Ledger against in-memory state.
type fakeLedger struct {
	mu               sync.Mutex
	tokenBalances    map[solana.PublicKey]uint64 // keyed by token account address
	nativeBalance    uint64
	tables           map[solana.PublicKey]solana.PublicKeySlice
	lookupTableCalls int

	sendFn    func(txBytes []byte) (solana.Signature, error)
	confirmFn func(sig solana.Signature) error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		tokenBalances: make(map[solana.PublicKey]uint64),
		nativeBalance: 1_000_000_000,
		tables:        make(map[solana.PublicKey]solana.PublicKeySlice),
	}
}

func (f *fakeLedger) TokenAccountBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.tokenBalances[account]
	if !ok {
		return 0, chain.ErrAccountNotFound
	}
	return balance, nil
}

func (f *fakeLedger) NativeBalance(context.Context, solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nativeBalance, nil
}

func (f *fakeLedger) LatestBlockhash(context.Context) (solana.Hash, uint64, error) {
	var hash solana.Hash
	hash[0] = 0x42
	return hash, 250_000_000, nil
}

func (f *fakeLedger) LookupTable(_ context.Context, address solana.PublicKey) (solana.PublicKeySlice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupTableCalls++
	addresses, ok := f.tables[address]
	if !ok {
		return nil, fmt.Errorf("lookup table %s not found", address)
	}
	return addresses, nil
}

func (f *fakeLedger) SendRawTransaction(_ context.Context, txBytes []byte) (solana.Signature, error) {
	if f.sendFn != nil {
		return f.sendFn(txBytes)
	}
	var sig solana.Signature
	if len(txBytes) > 0 {
		sig[0] = txBytes[0]
	}
	return sig, nil
}

func (f *fakeLedger) ConfirmTransaction(_ context.Context, sig solana.Signature, _ time.Duration) error {
	if f.confirmFn != nil {
		return f.confirmFn(sig)
	}
	return nil
}

// fakeQuotes returns one setup, one swap, and one cleanup instruction per
// request, with a fixed output amount per input token.
type fakeQuotes struct {
	outAmounts map[string]uint64 // keyed by input mint, default 1_000_000
	lutAddrs   []string          // attached to every swap
	failMints  map[string]bool
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		outAmounts: make(map[string]uint64),
		failMints:  make(map[string]bool),
	}
}

func (f *fakeQuotes) outFor(mint string) uint64 {
	if out, ok := f.outAmounts[mint]; ok {
		return out
	}
	return 1_000_000
}

func (f *fakeQuotes) Quote(_ context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error) {
	if f.failMints[req.InputMint] {
		return nil, fmt.Errorf("no route for %s", req.InputMint)
	}
	return &jupiter.QuoteResponse{
		InputMint:  req.InputMint,
		OutputMint: req.OutputMint,
		InAmount:   req.Amount,
		OutAmount:  strconv.FormatUint(f.outFor(req.InputMint), 10),
		SwapMode:   req.SwapMode,
	}, nil
}

func (f *fakeQuotes) SwapInstructions(_ context.Context, req jupiter.SwapInstructionsRequest) (*jupiter.SwapInstructionsResponse, error) {
	ix := func(data []byte) jupiter.InstructionData {
		return jupiter.InstructionData{
			ProgramID: solana.TokenProgramID.String(),
			Accounts: []jupiter.AccountMeta{
				{Pubkey: req.UserPublicKey, IsSigner: true, IsWritable: true},
				{Pubkey: req.QuoteResponse.InputMint, IsSigner: false, IsWritable: true},
			},
			Data: base64.StdEncoding.EncodeToString(data),
		}
	}
	return &jupiter.SwapInstructionsResponse{
		SetupInstructions:           []jupiter.InstructionData{ix([]byte{1})},
		SwapInstruction:             &jupiter.InstructionData{ProgramID: solana.TokenProgramID.String(), Accounts: []jupiter.AccountMeta{{Pubkey: req.UserPublicKey, IsSigner: true, IsWritable: true}}, Data: base64.StdEncoding.EncodeToString([]byte{2})},
		CleanupInstruction:          &jupiter.InstructionData{ProgramID: solana.TokenProgramID.String(), Accounts: []jupiter.AccountMeta{{Pubkey: req.UserPublicKey, IsSigner: true, IsWritable: true}}, Data: base64.StdEncoding.EncodeToString([]byte{3})},
		AddressLookupTableAddresses: f.lutAddrs,
	}, nil
}

// fakeOracle converts at a fixed lamports-per-call rate.
type fakeOracle struct {
	feeLamports uint64
	err         error
}

func (f *fakeOracle) QuoteFeeLamports(context.Context, decimal.Decimal) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.feeLamports, nil
}

// fakeMeta resolves every mint as a plain 6-decimal SPL token.
type fakeMeta struct{}

func (fakeMeta) Resolve(context.Context, solana.PublicKey) (tokenmeta.Meta, error) {
	return tokenmeta.Meta{Decimals: 6, TokenProgram: solana.TokenProgramID.String()}, nil
}

func testConfig(receiver solana.PublicKey) Config {
	return Config{
		BatchSize:             3,
		BaseComputeUnits:      200_000,
		PerSwapComputeUnits:   150_000,
		ComputeUnitPriceMicro: 5_000,
		SlippageBps:           100,
		PerTxFeeLamports:      1_000_000,
		AdminFeeUSD:           decimal.RequireFromString("0.50"),
		AdminFeeReceiver:      receiver,
	}
}

// seedBalances credits the owner's derived token account for every mint.
func seedBalances(ledger *fakeLedger, owner solana.PublicKey, mints []solana.PublicKey, balance uint64) {
	for _, mint := range mints {
		ata, _, err := FindAssociatedTokenAddress(owner, mint, solana.TokenProgramID)
		if err != nil {
			panic(err)
		}
		ledger.tokenBalances[ata] = balance
	}
}

func newMints(n int) []solana.PublicKey {
	mints := make([]solana.PublicKey, n)
	for i := range mints {
		mints[i] = solana.NewWallet().PublicKey()
	}
	return mints
}
