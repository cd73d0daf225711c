package sweep

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner(ledger *fakeLedger, quotes *fakeQuotes, oracle *fakeOracle, receiver solana.PublicKey) *Planner {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewPlanner(ledger, quotes, oracle, fakeMeta{}, testConfig(receiver), logger)
}

func decodeTx(t *testing.T, encoded string) *solana.Transaction {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	return tx
}

func TestPlanner_BatchPartition(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(7)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	oracle := &fakeOracle{feeLamports: 2_500_000}
	planner := newTestPlanner(ledger, newFakeQuotes(), oracle, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	require.NoError(t, err)

	// 7 requests at 3 per batch partition as [3, 3, 1]
	require.Len(t, plan.Batches, 3)
	assert.Equal(t, 3, plan.Batches[0].SwapCount)
	assert.Equal(t, 3, plan.Batches[1].SwapCount)
	assert.Equal(t, 1, plan.Batches[2].SwapCount)
	assert.Len(t, plan.Swaps, 7)

	// Batch indexes are sequential and every requested mint is covered
	covered := make(map[string]bool)
	for i, b := range plan.Batches {
		assert.Equal(t, i, b.Index)
		for _, m := range b.Mints {
			covered[m] = true
		}
	}
	assert.Len(t, covered, 7)

	// Admin fee lands on the final batch only
	assert.Zero(t, plan.Batches[0].AdminFeeLamports)
	assert.Zero(t, plan.Batches[1].AdminFeeLamports)
	assert.Equal(t, uint64(2_500_000), plan.Batches[2].AdminFeeLamports)

	assert.Equal(t, 3, plan.Totals.TotalBatches)
	assert.Equal(t, uint64(2_500_000), plan.Totals.AdminFeeLamports)
	assert.Equal(t, uint64(7_000_000), plan.Totals.TotalExpectedLamportsOut)
	assert.Equal(t, uint64(4_500_000), plan.Totals.NetLamportsOut)
	assert.Equal(t, uint64(3_000_000), plan.Totals.EstimatedNetworkFeeLamports)
}

func TestPlanner_SingleBatchGetsFee(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(2)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 2_500_000}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	require.NoError(t, err)

	require.Len(t, plan.Batches, 1)
	assert.Equal(t, uint64(2_500_000), plan.Batches[0].AdminFeeLamports)
}

func TestPlanner_FeeTransferIsLastInstruction(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(4)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 2_500_000}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	require.NoError(t, err)
	require.Len(t, plan.Batches, 2)

	// First batch carries no transfer at all
	first := decodeTx(t, plan.Batches[0].TransactionBase64)
	for _, ix := range first.Message.Instructions {
		assert.NotEqual(t, solana.SystemProgramID, first.Message.AccountKeys[ix.ProgramIDIndex])
	}

	// Final batch ends with exactly one SystemProgram transfer to the
	// fee receiver
	last := decodeTx(t, plan.Batches[1].TransactionBase64)
	require.NotEmpty(t, last.Message.Instructions)
	feeIx := last.Message.Instructions[len(last.Message.Instructions)-1]
	assert.Equal(t, solana.SystemProgramID, last.Message.AccountKeys[feeIx.ProgramIDIndex])

	require.Len(t, feeIx.Data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(feeIx.Data[0:4]))
	assert.Equal(t, uint64(2_500_000), binary.LittleEndian.Uint64(feeIx.Data[4:12]))

	require.Len(t, feeIx.Accounts, 2)
	assert.Equal(t, owner, last.Message.AccountKeys[feeIx.Accounts[0]])
	assert.Equal(t, receiver, last.Message.AccountKeys[feeIx.Accounts[1]])
}

func TestPlanner_ComputeBudgetScalesWithBatch(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(4)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 2_500_000}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	require.NoError(t, err)
	require.Len(t, plan.Batches, 2)

	limitFor := func(encoded string) uint32 {
		tx := decodeTx(t, encoded)
		// Second instruction is SetComputeUnitLimit
		ix := tx.Message.Instructions[1]
		require.Len(t, ix.Data, 5)
		require.Equal(t, uint8(2), ix.Data[0])
		return binary.LittleEndian.Uint32(ix.Data[1:5])
	}

	assert.Equal(t, uint32(200_000+3*150_000), limitFor(plan.Batches[0].TransactionBase64))
	assert.Equal(t, uint32(200_000+1*150_000), limitFor(plan.Batches[1].TransactionBase64))
}

func TestPlanner_EmptyRequestList(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()

	planner := newTestPlanner(newFakeLedger(), newFakeQuotes(), &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, nil, 3)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, ErrNoRequests)
}

func TestPlanner_DuplicateMintRejected(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(2)
	mints = append(mints, mints[0])

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	assert.Nil(t, plan)

	var dup *DuplicateMintError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, mints[0], dup.Mint)
}

func TestPlanner_ZeroBalanceAborts(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(3)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)
	// Drain the middle mint's account
	ata, _, err := FindAssociatedTokenAddress(owner, mints[1], solana.TokenProgramID)
	require.NoError(t, err)
	ledger.tokenBalances[ata] = 0

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	assert.Nil(t, plan)

	var noBalance *NoBalanceError
	require.ErrorAs(t, err, &noBalance)
	assert.Equal(t, mints[1], noBalance.Mint)

	// Retrying the same bad input yields the same error class
	_, err = planner.Plan(context.Background(), owner, mints, 3)
	require.ErrorAs(t, err, &noBalance)
}

func TestPlanner_MissingAccountAborts(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(2)

	ledger := newFakeLedger()
	// Only seed the first mint; the second has no token account
	seedBalances(ledger, owner, mints[:1], 500_000)

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	assert.Nil(t, plan)

	var notFound *AccountNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, mints[1], notFound.Mint)
}

func TestPlanner_QuoteFailureAbortsWholePlan(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(4)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	quotes := newFakeQuotes()
	quotes.failMints[mints[3].String()] = true

	planner := newTestPlanner(ledger, quotes, &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	assert.Nil(t, plan)

	var unavailable *QuoteUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, mints[3], unavailable.Mint)
	assert.Equal(t, 1, unavailable.BatchIndex)
}

func TestPlanner_FeeOracleFailureAborts(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(1)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	oracleErr := errors.New("feed down")
	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{err: oracleErr}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, oracleErr)
}

func TestPlanner_InsufficientNativeBalance(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(7)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)
	// 3 batches at 1_000_000 lamports each, one short
	ledger.nativeBalance = 2_999_999

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	assert.Nil(t, plan)

	var broke *InsufficientFundsError
	require.ErrorAs(t, err, &broke)
	assert.Equal(t, uint64(3_000_000), broke.RequiredLamports)
	assert.Equal(t, uint64(2_999_999), broke.AvailableLamports)
}

func TestPlanner_TransactionsFitSizeLimit(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(6)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	require.NoError(t, err)

	for _, b := range plan.Batches {
		raw, err := base64.StdEncoding.DecodeString(b.TransactionBase64)
		require.NoError(t, err)
		assert.Equal(t, b.ByteSize, len(raw))
		assert.LessOrEqual(t, b.ByteSize, 1232)

		tx := decodeTx(t, b.TransactionBase64)
		assert.Equal(t, owner, tx.Message.AccountKeys[0], "owner is the fee payer")

		// Serialization round-trips byte for byte
		again, err := tx.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, raw, again)
	}
}

func TestPlanner_LookupTableFetchedOncePerBatch(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(6)

	table := solana.NewWallet().PublicKey()
	ledger := newFakeLedger()
	seedBalances(ledger, owner, mints, 500_000)
	ledger.tables[table] = solana.PublicKeySlice(mints)

	quotes := newFakeQuotes()
	// Every swap references the same table; each batch should resolve it
	// a single time
	quotes.lutAddrs = []string{table.String()}

	planner := newTestPlanner(ledger, quotes, &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	require.NoError(t, err)
	require.Len(t, plan.Batches, 2)
	assert.Equal(t, 2, ledger.lookupTableCalls)
}

func TestPlanner_SweepsFullBalance(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	mints := newMints(2)

	ledger := newFakeLedger()
	seedBalances(ledger, owner, []solana.PublicKey{mints[0]}, 123_456)
	seedBalances(ledger, owner, []solana.PublicKey{mints[1]}, 789_000)

	planner := newTestPlanner(ledger, newFakeQuotes(), &fakeOracle{feeLamports: 1}, receiver)

	plan, err := planner.Plan(context.Background(), owner, mints, 3)
	require.NoError(t, err)

	require.Len(t, plan.Swaps, 2)
	assert.Equal(t, uint64(123_456), plan.Swaps[0].InAmount)
	assert.Equal(t, uint64(789_000), plan.Swaps[1].InAmount)
}
