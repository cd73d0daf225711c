package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/models"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/storage"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/sweep"
)

// SweepPlanner plans a multi-batch sweep. Implemented by sweep.Planner.
type SweepPlanner interface {
	Plan(ctx context.Context, owner solana.PublicKey, mints []solana.PublicKey, batchSize int) (*sweep.Plan, error)
}

// SweepBroadcaster submits signed batches. Implemented by sweep.Broadcaster.
type SweepBroadcaster interface {
	SubmitAll(ctx context.Context, batches []sweep.SignedBatch) ([]sweep.BatchResult, error)
}

// PriceSource looks up the USD price of a mint. Implemented by pricing.Oracle.
type PriceSource interface {
	Price(ctx context.Context, mint string) (decimal.Decimal, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Planner     SweepPlanner       // Sweep validation and batch planning
	Broadcaster SweepBroadcaster   // Concurrent broadcast and confirmation
	Prices      PriceSource        // USD price lookups
	Sink        storage.SweepStore // Optional analytics sink (ClickHouse)
	DevMode     bool               // Enable detailed error responses in development
	Logger      *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// parseAddress validates and decodes a base58 Solana address
func parseAddress(raw string) (solana.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	decoded, err := base58.Decode(raw)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(decoded) != solana.PublicKeyLength {
		return solana.PublicKey{}, &base58LengthError{got: len(decoded)}
	}
	return solana.PublicKeyFromBytes(decoded), nil
}

type base58LengthError struct{ got int }

func (e *base58LengthError) Error() string {
	return fmt.Sprintf("address must decode to 32 bytes, got %d", e.got)
}

// PlanSweep validates the request, plans the full multi-batch sweep, and
// returns unsigned transactions ready for wallet signature.
// The call is all-or-nothing: any invalid mint or upstream failure rejects
// the whole plan.
func (h *Handlers) PlanSweep(c echo.Context) error {
	var req PlanRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	owner, err := parseAddress(req.Owner)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid owner address", map[string]any{"owner": err.Error()})
	}

	mints := make([]solana.PublicKey, 0, len(req.Mints))
	for _, raw := range req.Mints {
		mint, err := parseAddress(raw)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid mint address", map[string]any{"mint": raw})
		}
		mints = append(mints, mint)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	plan, err := h.Planner.Plan(ctx, owner, mints, req.BatchSize)
	if err != nil {
		code := planStatus(err)
		if code == http.StatusInternalServerError {
			h.Logger.WithError(err).WithField("owner", req.Owner).Error("sweep planning failed")
			return h.err(c, code, "failed to plan sweep", map[string]any{"err": err.Error()})
		}
		return h.err(c, code, err.Error(), nil)
	}

	h.recordPlan(plan)

	return c.JSON(http.StatusOK, plan)
}

// SubmitSweep broadcasts signed batches concurrently and reports one
// outcome per batch. Partial failure is a valid result, not an error.
func (h *Handlers) SubmitSweep(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if len(req.Batches) == 0 {
		return h.err(c, http.StatusBadRequest, "no batches to submit", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 120*time.Second)
	defer cancel()

	results, err := h.Broadcaster.SubmitAll(ctx, req.Batches)
	if err != nil {
		return h.err(c, http.StatusBadRequest, err.Error(), nil)
	}

	h.recordResults(results)

	return c.JSON(http.StatusOK, SubmitResponse{Results: results})
}

// Price returns the current USD price for a given mint
func (h *Handlers) Price(c echo.Context) error {
	raw := strings.TrimSpace(c.Param("mint"))
	if _, err := parseAddress(raw); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint address", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	price, err := h.Prices.Price(ctx, raw)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "failed to get price", nil)
	}
	return c.JSON(http.StatusOK, PriceResponse{Mint: raw, Price: price.String()})
}

// recordPlan writes one analytics row per planned batch. Best-effort: sink
// failures are logged and never surface to the caller.
func (h *Handlers) recordPlan(plan *sweep.Plan) {
	if h.Sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		now := time.Now().UTC()
		for _, b := range plan.Batches {
			rec := &models.SweepBatchRecord{
				Owner:               plan.Owner,
				BatchIndex:          b.Index,
				TotalBatches:        plan.Totals.TotalBatches,
				Mints:               b.Mints,
				SwapCount:           b.SwapCount,
				ExpectedLamportsOut: b.ExpectedLamportsOut,
				AdminFeeLamports:    b.AdminFeeLamports,
				Stage:               "planned",
				Timestamp:           now,
			}
			if err := h.Sink.InsertBatch(ctx, rec); err != nil {
				h.Logger.WithError(err).Warn("failed to record planned batch")
			}
		}
	}()
}

// recordResults writes one analytics row per broadcast outcome.
func (h *Handlers) recordResults(results []sweep.BatchResult) {
	if h.Sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		now := time.Now().UTC()
		for _, r := range results {
			rec := &models.SweepBatchRecord{
				BatchIndex: r.Index,
				Stage:      "broadcast",
				Signature:  r.Signature,
				Confirmed:  r.Confirmed,
				Error:      r.Error,
				Timestamp:  now,
			}
			if err := h.Sink.InsertBatch(ctx, rec); err != nil {
				h.Logger.WithError(err).Warn("failed to record broadcast batch")
			}
		}
	}()
}
