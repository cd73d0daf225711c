package sweep

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SignedBatch is one signed transaction handed back by the caller for
// submission, tagged with the plan index it came from.
type SignedBatch struct {
	Index             int    `json:"index"`
	TransactionBase64 string `json:"transaction"`
}

// Broadcaster submits signed batches concurrently and confirms each one
// independently. There is no rollback: a failed batch never undoes a
// confirmed sibling, callers retry failed batches on their own.
type Broadcaster struct {
	ledger         Ledger
	confirmTimeout time.Duration
	logger         *logrus.Logger
}

func NewBroadcaster(ledger Ledger, confirmTimeout time.Duration, logger *logrus.Logger) *Broadcaster {
	if confirmTimeout <= 0 {
		confirmTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Broadcaster{
		ledger:         ledger,
		confirmTimeout: confirmTimeout,
		logger:         logger,
	}
}

// SubmitAll broadcasts every batch in parallel and waits for each to
// confirm or fail. Results come back ordered by batch index, one entry per
// input, and the error return covers only malformed input, never on-chain
// failure.
func (b *Broadcaster) SubmitAll(ctx context.Context, batches []SignedBatch) ([]BatchResult, error) {
	if len(batches) == 0 {
		return nil, ErrNoRequests
	}

	results := make([]BatchResult, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func(slot int, batch SignedBatch) {
			defer wg.Done()
			results[slot] = b.submitOne(ctx, batch)
		}(i, batch)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	confirmed := 0
	for _, r := range results {
		if r.Confirmed {
			confirmed++
		}
	}
	b.logger.WithFields(logrus.Fields{
		"batches":   len(batches),
		"confirmed": confirmed,
	}).Info("sweep broadcast complete")

	return results, nil
}

func (b *Broadcaster) submitOne(ctx context.Context, batch SignedBatch) BatchResult {
	result := BatchResult{Index: batch.Index}

	txBytes, err := base64.StdEncoding.DecodeString(batch.TransactionBase64)
	if err != nil {
		result.Error = fmt.Sprintf("decode transaction: %v", err)
		return result
	}

	sig, err := b.ledger.SendRawTransaction(ctx, txBytes)
	if err != nil {
		result.Error = fmt.Sprintf("send transaction: %v", err)
		b.logger.WithError(err).WithField("batch", batch.Index).Warn("batch broadcast failed")
		return result
	}
	result.Signature = sig.String()

	if err := b.ledger.ConfirmTransaction(ctx, sig, b.confirmTimeout); err != nil {
		result.Error = fmt.Sprintf("confirm transaction: %v", err)
		b.logger.WithError(err).WithFields(logrus.Fields{
			"batch":     batch.Index,
			"signature": sig.String(),
		}).Warn("batch confirmation failed")
		return result
	}

	result.Confirmed = true
	return result
}
