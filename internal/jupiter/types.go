package jupiter

// QuoteRequest holds parameters for GET /quote.
type QuoteRequest struct {
	InputMint  string
	OutputMint string
	Amount     string // raw integer as string (uint64)

	SlippageBps *uint16
	SwapMode    string // ExactIn | ExactOut

	RestrictIntermediateTokens *bool
	OnlyDirectRoutes           *bool
	MaxAccounts                *uint64
}

type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`

	ContextSlot uint64  `json:"contextSlot,omitempty"`
	TimeTaken   float64 `json:"timeTaken,omitempty"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  *uint8   `json:"percent,omitempty"`
	Bps      uint16   `json:"bps"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// SwapInstructionsRequest is the body for POST /swap-instructions.
// The quote is passed back verbatim; Jupiter rejects mismatched quotes.
type SwapInstructionsRequest struct {
	UserPublicKey    string         `json:"userPublicKey"`
	QuoteResponse    *QuoteResponse `json:"quoteResponse"`
	WrapAndUnwrapSol bool           `json:"wrapAndUnwrapSol"`

	// The planner sets its own compute budget per batch, so Jupiter's
	// per-swap compute budget instructions are requested but discarded.
	DynamicComputeUnitLimit  bool `json:"dynamicComputeUnitLimit"`
	SkipUserAccountsRpcCalls bool `json:"skipUserAccountsRpcCalls"`
}

// InstructionData is the wire form of one instruction: opaque base64 data
// plus a program target and account list. The planner never interprets the
// data, only sequences it.
type InstructionData struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"` // base64
}

type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type SwapInstructionsResponse struct {
	ComputeBudgetInstructions   []InstructionData `json:"computeBudgetInstructions"`
	SetupInstructions           []InstructionData `json:"setupInstructions"`
	SwapInstruction             *InstructionData  `json:"swapInstruction"`
	CleanupInstruction          *InstructionData  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string          `json:"addressLookupTableAddresses"`
}
