package jupiter

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Decode converts a wire-form instruction into a solana.Instruction.
func (ix *InstructionData) Decode() (solana.Instruction, error) {
	if ix == nil {
		return nil, fmt.Errorf("instruction is nil")
	}

	programID, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid programId %q: %w", ix.ProgramID, err)
	}

	accounts := make([]*solana.AccountMeta, 0, len(ix.Accounts))
	for _, a := range ix.Accounts {
		pk, err := solana.PublicKeyFromBase58(a.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid account pubkey %q: %w", a.Pubkey, err)
		}
		accounts = append(accounts, &solana.AccountMeta{
			PublicKey:  pk,
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		})
	}

	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid instruction data: %w", err)
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// DecodeAll decodes a slice of wire-form instructions, preserving order.
func DecodeAll(ixs []InstructionData) ([]solana.Instruction, error) {
	out := make([]solana.Instruction, 0, len(ixs))
	for i := range ixs {
		ix, err := ixs[i].Decode()
		if err != nil {
			return nil, err
		}
		out = append(out, ix)
	}
	return out, nil
}
