package server

import "github.com/aman-zulfiqar/solana-sweep-service/internal/sweep"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// PlanRequest represents a request to plan a full-balance sweep to SOL
type PlanRequest struct {
	Owner     string   `json:"owner"`               // Wallet that owns the token accounts and signs
	Mints     []string `json:"mints"`               // Token mints to sweep, full balance each
	BatchSize int      `json:"batchSize,omitempty"` // Optional swaps-per-transaction override
}

// SubmitRequest represents a request to broadcast signed sweep batches
type SubmitRequest struct {
	Batches []sweep.SignedBatch `json:"batches"` // Signed transactions tagged with plan index
}

// SubmitResponse carries one outcome per submitted batch
type SubmitResponse struct {
	Results []sweep.BatchResult `json:"results"`
}

// PriceResponse represents the USD price of one mint
type PriceResponse struct {
	Mint  string `json:"mint"`  // Token mint address
	Price string `json:"price"` // USD price as a decimal string
}
