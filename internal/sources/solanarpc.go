// internal/sources/solanarpc.go
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rovshanmuradov/solana-market-collector/internal/collector"
	"github.com/rovshanmuradov/solana-market-collector/internal/config"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
	"github.com/rovshanmuradov/solana-market-collector/internal/metrics"
	"go.uber.org/zap"
)

const NameSolanaRPC = "solana-rpc"

// parsedMint is the jsonParsed layout of an SPL mint account.
type parsedMint struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Decimals        int     `json:"decimals"`
			MintAuthority   *string `json:"mintAuthority"`
			FreezeAuthority *string `json:"freezeAuthority"`
			Supply          string  `json:"supply"`
		} `json:"info"`
	} `json:"parsed"`
}

// SolanaRPC reads supply and mint authorities straight from a node.
type SolanaRPC struct {
	client    *rpc.Client
	transport *transport
	logger    *zap.Logger
}

// NewSolanaRPC talks JSON-RPC over an http.Client bounded by cfg.Timeout,
// shared with the adapter's transport.
func NewSolanaRPC(cfg config.SourceConfig, logger *zap.Logger, m *metrics.Metrics) *SolanaRPC {
	t := newTransport(NameSolanaRPC, cfg, NewHTTPClient(cfg.Timeout), logger, m)
	rpcClient := jsonrpc.NewClientWithOpts(cfg.BaseURL, &jsonrpc.RPCClientOpts{HTTPClient: t.client})
	return &SolanaRPC{
		client:    rpc.NewWithCustomRPCClient(rpcClient),
		transport: t,
		logger:    logger.Named(NameSolanaRPC),
	}
}

func (s *SolanaRPC) Name() string         { return NameSolanaRPC }
func (s *SolanaRPC) Kind() collector.Kind { return collector.KindOnChain }

func (s *SolanaRPC) Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error) {
	mint, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}

	var supply *rpc.GetTokenSupplyResult
	err = s.transport.call(ctx, func(ctx context.Context) error {
		var err error
		supply, err = s.client.GetTokenSupply(ctx, mint, rpc.CommitmentConfirmed)
		return classifyRPCError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("get token supply: %w", err)
	}
	if supply == nil || supply.Value == nil {
		return nil, fmt.Errorf("%w: empty token supply", ErrMalformedResponse)
	}

	rec := market.NewPartial(address, NameSolanaRPC)
	decimals := int(supply.Value.Decimals)
	rec.Decimals = &decimals
	rec.TotalSupply = parseFloat(supply.Value.UiAmountString)
	if rec.TotalSupply == nil && supply.Value.UiAmount != nil {
		v := *supply.Value.UiAmount
		rec.TotalSupply = &v
	}

	mintInfo, err := s.mintAccount(ctx, mint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Authorities are a bonus; supply alone is a useful answer.
		s.logger.Debug("mint account unavailable", zap.String("address", address), zap.Error(err))
		return rec, nil
	}
	if a := mintInfo.Parsed.Info.MintAuthority; a != nil {
		rec.MintAuthority = *a
	}
	if a := mintInfo.Parsed.Info.FreezeAuthority; a != nil {
		rec.FreezeAuthority = *a
	}
	return rec, nil
}

func (s *SolanaRPC) mintAccount(ctx context.Context, mint solana.PublicKey) (*parsedMint, error) {
	var info *rpc.GetAccountInfoResult
	err := s.transport.call(ctx, func(ctx context.Context) error {
		var err error
		info, err = s.client.GetAccountInfoWithOpts(ctx, mint, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingJSONParsed,
			Commitment: rpc.CommitmentConfirmed,
		})
		return classifyRPCError(err)
	})
	if err != nil {
		return nil, err
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return nil, ErrNotFound
	}

	raw := info.Value.Data.GetRawJSON()
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: account data is not jsonParsed", ErrMalformedResponse)
	}
	var parsed parsedMint
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.Parsed.Type != "mint" {
		return nil, fmt.Errorf("%w: account type %q", ErrMalformedResponse, parsed.Parsed.Type)
	}
	return &parsed, nil
}

// classifyRPCError marks answers that retrying cannot change.
func classifyRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rpc.ErrNotFound):
		return backoff.Permanent(ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return backoff.Permanent(err)
	default:
		// Node-side JSON-RPC errors are deterministic; transport errors are not.
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			return backoff.Permanent(err)
		}
		return err
	}
}
