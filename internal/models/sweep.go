package models

import "time"

// SweepBatchRecord is the analytics row written for every planned or
// broadcast sweep batch. Best-effort only; never correctness-bearing.
type SweepBatchRecord struct {
	Owner               string    `json:"owner"`
	BatchIndex          int       `json:"batch_index"`
	TotalBatches        int       `json:"total_batches"`
	Mints               []string  `json:"mints"`
	SwapCount           int       `json:"swap_count"`
	ExpectedLamportsOut uint64    `json:"expected_lamports_out"`
	AdminFeeLamports    uint64    `json:"admin_fee_lamports"`
	Stage               string    `json:"stage"` // "planned" | "broadcast"
	Signature           string    `json:"signature,omitempty"`
	Confirmed           bool      `json:"confirmed"`
	Error               string    `json:"error,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}
