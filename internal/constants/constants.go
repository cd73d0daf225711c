package constants

import "github.com/gagliardetto/solana-go"

// Well-known mints
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// Native asset
const (
	LamportsPerSOL = 1_000_000_000
	SOLDecimals    = 9
)

// MaxTransactionBytes is the network's hard ceiling on a serialized
// transaction (one IPv6 MTU minus headers). A planned batch whose compiled
// transaction exceeds this can never be submitted.
const MaxTransactionBytes = 1232

// Program IDs the sweep planner builds raw instructions against.
var (
	ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	Token2022ProgramID     = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgram = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// Redis keys
const (
	RedisKeyPricePrefix     = "price:"
	RedisKeyTokenMetaPrefix = "tokenmeta:"
)
