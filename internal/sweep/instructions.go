package sweep

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/constants"
)

// FindAssociatedTokenAddress derives the ATA PDA for (owner, mint) under
// the given token program (legacy SPL Token or Token-2022).
func FindAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (ata solana.PublicKey, bump uint8, err error) {
	// Seeds: [owner, token_program, mint]
	return solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgram.Bytes(),
			mint.Bytes(),
		},
		constants.AssociatedTokenProgram,
	)
}

// NewSetComputeUnitLimitIx builds a ComputeBudget SetComputeUnitLimit
// instruction.
func NewSetComputeUnitLimitIx(units uint32) solana.Instruction {
	// ComputeBudget instruction layout:
	// u8: instruction index (2 = SetComputeUnitLimit)
	// u32: units
	data := make([]byte, 1+4)
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:5], units)
	return solana.NewInstruction(constants.ComputeBudgetProgramID, nil, data)
}

// NewSetComputeUnitPriceIx builds a ComputeBudget SetComputeUnitPrice
// instruction (priority fee in micro-lamports per compute unit).
func NewSetComputeUnitPriceIx(microLamports uint64) solana.Instruction {
	// u8: instruction index (3 = SetComputeUnitPrice)
	// u64: micro-lamports per unit
	data := make([]byte, 1+8)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:9], microLamports)
	return solana.NewInstruction(constants.ComputeBudgetProgramID, nil, data)
}

// NewSystemTransferIx builds a SystemProgram transfer instruction. The
// admin fee on the final batch is one of these.
func NewSystemTransferIx(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	// SystemProgram instruction layout:
	// u32: instruction index (2 = Transfer)
	// u64: lamports
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	accounts := []*solana.AccountMeta{
		{PublicKey: from, IsSigner: true, IsWritable: true},
		{PublicKey: to, IsSigner: false, IsWritable: true},
	}
	return solana.NewInstruction(solana.SystemProgramID, accounts, data)
}
