package tokenmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/constants"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/storage"
)

// MintReader is the chain-side lookup the resolver memoizes.
type MintReader interface {
	MintInfo(ctx context.Context, mint solana.PublicKey) (decimals uint8, tokenProgram solana.PublicKey, err error)
}

// Meta describes a mint: its decimals and the token program that owns it
// (legacy SPL Token or Token-2022). Both are needed to derive the owner's
// associated token account.
type Meta struct {
	Decimals     uint8  `json:"decimals"`
	TokenProgram string `json:"token_program"`
}

func (m Meta) Program() solana.PublicKey {
	pk, err := solana.PublicKeyFromBase58(m.TokenProgram)
	if err != nil {
		return solana.TokenProgramID
	}
	return pk
}

// Resolver memoizes mint metadata behind an injectable TTL cache. Mint
// decimals and token programs are immutable in practice, so the TTL only
// bounds staleness of mistaken entries.
type Resolver struct {
	reader MintReader
	cache  storage.MetaCache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewResolver(reader MintReader, cache storage.MetaCache, ttl time.Duration, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Resolver{reader: reader, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the metadata for mint, consulting the cache first.
// Cache failures degrade to a direct chain lookup.
func (r *Resolver) Resolve(ctx context.Context, mint solana.PublicKey) (Meta, error) {
	key := constants.RedisKeyTokenMetaPrefix + mint.String()

	if r.cache != nil {
		if raw, ok, err := r.cache.Get(ctx, key); err != nil {
			r.logger.WithError(err).WithField("mint", mint.String()).Warn("token meta cache read failed")
		} else if ok {
			var m Meta
			if err := json.Unmarshal([]byte(raw), &m); err == nil {
				return m, nil
			}
		}
	}

	decimals, program, err := r.reader.MintInfo(ctx, mint)
	if err != nil {
		return Meta{}, fmt.Errorf("resolve mint %s: %w", mint, err)
	}

	m := Meta{Decimals: decimals, TokenProgram: program.String()}

	if r.cache != nil {
		if raw, err := json.Marshal(m); err == nil {
			if err := r.cache.Put(ctx, key, string(raw), r.ttl); err != nil {
				r.logger.WithError(err).WithField("mint", mint.String()).Warn("token meta cache write failed")
			}
		}
	}

	return m, nil
}
