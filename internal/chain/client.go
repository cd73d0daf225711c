package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sirupsen/logrus"
)

// ErrAccountNotFound is returned when an address has no account on-chain.
var ErrAccountNotFound = errors.New("account not found")

// isAccountNotFound classifies the node's two ways of reporting a missing
// account: a null result (rpc.ErrNotFound) for getAccountInfo, and a
// JSON-RPC invalid-param error for getTokenAccountBalance.
func isAccountNotFound(err error) bool {
	if errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == -32602 && strings.Contains(rpcErr.Message, "could not find account")
	}
	return false
}

// isFatalRPCError reports whether the node rejected the request itself.
// These error codes mean the call is malformed and will never succeed, so
// retrying only burns the caller's deadline.
func isFatalRPCError(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	switch rpcErr.Code {
	case -32700, -32600, -32601, -32602:
		return true
	}
	return false
}

// Client wraps the Solana RPC client with retry, backoff and structured
// logging for the handful of ledger operations the sweep service needs.
type Client struct {
	rpc          *rpc.Client
	logger       *logrus.Logger
	maxRetries   int
	retryBackoff time.Duration
}

type ClientConfig struct {
	RPCUrl       string
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &Client{
		rpc:          rpc.New(cfg.RPCUrl),
		logger:       cfg.Logger,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
}

// withRetry runs fn with exponential backoff. Not-found results are final
// and never retried.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"op":      op,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrAccountNotFound) {
			return err
		}
		if isFatalRPCError(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err
	}

	return fmt.Errorf("%s: max retries exceeded: %w", op, lastErr)
}

// TokenAccountBalance returns the raw base-unit balance of a token account.
// Returns ErrAccountNotFound if the account does not exist.
func (c *Client) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var balance uint64
	err := c.withRetry(ctx, "getTokenAccountBalance", func() error {
		out, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
		if err != nil {
			if isAccountNotFound(err) {
				return ErrAccountNotFound
			}
			return err
		}
		if out == nil || out.Value == nil {
			return ErrAccountNotFound
		}
		n, err := strconv.ParseUint(out.Value.Amount, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid token balance %q: %w", out.Value.Amount, err)
		}
		balance = n
		return nil
	})
	return balance, err
}

// NativeBalance returns the owner's lamport balance.
func (c *Client) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	var balance uint64
	err := c.withRetry(ctx, "getBalance", func() error {
		out, err := c.rpc.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		balance = out.Value
		return nil
	})
	return balance, err
}

// LatestBlockhash fetches a fresh blockhash and its expiry height.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	var hash solana.Hash
	var lastValid uint64
	err := c.withRetry(ctx, "getLatestBlockhash", func() error {
		out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		hash = out.Value.Blockhash
		lastValid = out.Value.LastValidBlockHeight
		return nil
	})
	return hash, lastValid, err
}

// MintInfo resolves a mint's decimals and owning token program.
func (c *Client) MintInfo(ctx context.Context, mint solana.PublicKey) (uint8, solana.PublicKey, error) {
	var decimals uint8
	var program solana.PublicKey
	err := c.withRetry(ctx, "getAccountInfo", func() error {
		out, err := c.rpc.GetAccountInfo(ctx, mint)
		if err != nil {
			if isAccountNotFound(err) {
				return ErrAccountNotFound
			}
			return err
		}
		if out == nil || out.Value == nil {
			return ErrAccountNotFound
		}
		data := out.Value.Data.GetBinary()
		// SPL mint layout: COption<authority> (36) + supply (8) + decimals (1).
		// Token-2022 shares the base layout.
		if len(data) < 45 {
			return fmt.Errorf("mint %s: account data too short (%d bytes)", mint, len(data))
		}
		decimals = data[44]
		program = out.Value.Owner
		return nil
	})
	return decimals, program, err
}

// LookupTable fetches and decodes an address lookup table. Deactivated
// tables are rejected: a transaction compiled against one would fail
// on-chain.
func (c *Client) LookupTable(ctx context.Context, address solana.PublicKey) (solana.PublicKeySlice, error) {
	var addresses solana.PublicKeySlice
	err := c.withRetry(ctx, "getAddressLookupTable", func() error {
		state, err := addresslookuptable.GetAddressLookupTable(ctx, c.rpc, address)
		if err != nil {
			return err
		}
		if !state.IsActive() {
			return fmt.Errorf("lookup table %s is deactivated", address)
		}
		addresses = state.Addresses
		return nil
	})
	return addresses, err
}

// SendRawTransaction submits a fully signed, serialized transaction.
func (c *Client) SendRawTransaction(ctx context.Context, txBytes []byte) (solana.Signature, error) {
	var sig solana.Signature
	err := c.withRetry(ctx, "sendTransaction", func() error {
		out, err := c.rpc.SendRawTransactionWithOpts(ctx, txBytes, rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentProcessed,
		})
		if err != nil {
			return err
		}
		sig = out
		return nil
	})
	return sig, err
}

// ConfirmTransaction polls signature status until the transaction reaches
// confirmed commitment, fails on-chain, or the timeout elapses.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	backoff := 500 * time.Millisecond
	maxBackoff := 4 * time.Second

	for time.Now().Before(deadline) {
		confirmed, err := c.checkSignatureStatus(ctx, sig)
		if err != nil {
			return err
		}
		if confirmed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return fmt.Errorf("transaction %s: confirmation timeout after %v", sig, timeout)
}

func (c *Client) checkSignatureStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return false, fmt.Errorf("getSignatureStatuses: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil // not yet processed
	}

	status := out.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("transaction %s failed on-chain: %v", sig, status.Err)
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return true, nil
	default:
		return false, nil
	}
}
