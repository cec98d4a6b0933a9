// Package ingest orchestrates market sweeps: pull the top collections from
// the upstream source, fan out per collection to fetch trade history, tokens,
// traits, and whales, normalize everything, and persist it.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nftpulse/market-indexer/internal/adapter"
	"github.com/nftpulse/market-indexer/internal/config"
	"github.com/nftpulse/market-indexer/internal/logger"
	"github.com/nftpulse/market-indexer/internal/normalizer"
	"github.com/nftpulse/market-indexer/internal/providers/rarify"
	"github.com/nftpulse/market-indexer/internal/store"
)

// TOKEN_PAGE_LIMIT caps how many tokens are fetched per collection
const TOKEN_PAGE_LIMIT = 100

// Sweeper defines the interface for sweep implementations
type Sweeper interface {
	// Start begins the sweeper's main loop. With a zero interval it performs
	// one sweep and returns; otherwise it blocks, sweeping on the interval,
	// until the context is canceled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the sweeper, waiting for in-progress work
	Stop(ctx context.Context) error

	// Name returns the sweeper's name for logging and identification
	Name() string
}

// Report summarizes one sweep run
type Report struct {
	RunID              string
	CollectionsFetched int
	CollectionsFailed  int
	Collections        store.BatchResult
	Trades             store.BatchResult
	Tokens             store.BatchResult
	TokenAttributes    store.BatchResult
	Whales             store.BatchResult
	Duration           time.Duration
}

// marketSweeper implements the Sweeper interface for market data ingestion
type marketSweeper struct {
	sweep      *config.SweepConfig
	worker     *config.WorkerConfig
	client     rarify.Client
	store      store.Store
	normalizer *normalizer.Normalizer
	clock      adapter.Clock
	running    atomic.Bool
	stopChan   chan struct{}
	stoppedCh  chan struct{}
}

// NewMarketSweeper creates a new market sweeper
func NewMarketSweeper(
	sweep *config.SweepConfig,
	worker *config.WorkerConfig,
	client rarify.Client,
	st store.Store,
	norm *normalizer.Normalizer,
	clock adapter.Clock,
) Sweeper {
	return &marketSweeper{
		sweep:      sweep,
		worker:     worker,
		client:     client,
		store:      st,
		normalizer: norm,
		clock:      clock,
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *marketSweeper) Name() string {
	return "market-sweeper"
}

// Start begins the sweeper's main loop
func (s *marketSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.Info("starting market sweeper",
		zap.String("network", string(s.sweep.Network)),
		zap.String("period", string(s.sweep.Period)),
		zap.Int("max_collections", s.sweep.MaxCollections),
		zap.Duration("interval", s.sweep.Interval),
	)

	// Single-shot mode
	if s.sweep.Interval <= 0 {
		_, err := s.RunSweep(ctx)
		return err
	}

	ticker := time.NewTicker(s.sweep.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunSweep(ctx); err != nil {
			logger.Error(err, zap.String("sweeper", s.Name()))
		}

		select {
		case <-ctx.Done():
			logger.Info("market sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.Info("market sweeper stop requested")
			return nil
		case <-ticker.C:
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *marketSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.Info("stopping market sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.Info("market sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.Warn("market sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// RunSweep performs one full sweep and reports what it persisted. Collection
// failures are counted and logged, never fatal: the rest of the sweep keeps
// going.
func (s *marketSweeper) RunSweep(ctx context.Context) (*Report, error) {
	startTime := s.clock.Now()
	report := &Report{RunID: uuid.NewString()}

	logger.Info("starting sweep",
		zap.String("run_id", report.RunID),
		zap.String("network", string(s.sweep.Network)),
		zap.String("period", string(s.sweep.Period)),
	)

	contracts, err := s.client.GetTopCollections(ctx, string(s.sweep.Network), s.sweep.MaxCollections)
	if err != nil {
		return report, fmt.Errorf("failed to fetch top collections: %w", err)
	}
	report.CollectionsFetched = len(contracts)

	collections := s.normalizer.Collections(contracts)
	report.Collections, err = s.store.SaveCollections(ctx, collections)
	if err != nil {
		return report, fmt.Errorf("failed to save collections: %w", err)
	}

	pool := pond.NewPool(
		s.worker.WorkerPoolSize,
		pond.WithQueueSize(s.worker.WorkerQueueSize),
		pond.WithContext(ctx),
	)

	var mu sync.Mutex
	for i := range collections {
		contractID := collections[i].ContractID
		pool.Submit(func() {
			partial, err := s.sweepCollection(ctx, contractID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.CollectionsFailed++
			}
			if partial != nil {
				report.Trades.Add(partial.Trades)
				report.Tokens.Add(partial.Tokens)
				report.TokenAttributes.Add(partial.TokenAttributes)
				report.Whales.Add(partial.Whales)
			}
		})
	}
	pool.StopAndWait()

	report.Duration = s.clock.Since(startTime)
	logger.Info("sweep finished",
		zap.String("run_id", report.RunID),
		zap.Int("collections_fetched", report.CollectionsFetched),
		zap.Int("collections_failed", report.CollectionsFailed),
		zap.Int("trades_saved", report.Trades.Saved),
		zap.Int("trades_skipped", report.Trades.Skipped),
		zap.Int("tokens_saved", report.Tokens.Saved),
		zap.Duration("duration", report.Duration),
	)

	return report, ctx.Err()
}

// sweepCollection fetches and persists everything for one collection. Errors
// on individual entities are logged and folded into the partial report;
// the returned error reflects whether anything failed.
func (s *marketSweeper) sweepCollection(ctx context.Context, contractID string) (*Report, error) {
	partial := &Report{}
	var firstErr error

	if err := s.sweepTrades(ctx, contractID, partial); err != nil {
		logger.Warn("failed to sweep trade history",
			zap.String("contract_id", contractID),
			zap.Error(err))
		firstErr = err
	}

	if s.sweep.FetchTokens {
		if err := s.sweepTokens(ctx, contractID, partial); err != nil {
			logger.Warn("failed to sweep tokens",
				zap.String("contract_id", contractID),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if s.sweep.FetchWhales {
		if err := s.sweepWhales(ctx, contractID, partial); err != nil {
			logger.Warn("failed to sweep whales",
				zap.String("contract_id", contractID),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return partial, firstErr
}

func (s *marketSweeper) sweepTrades(ctx context.Context, contractID string, partial *Report) error {
	points, err := s.client.GetTradeHistory(ctx, contractID, s.sweep.Period)
	if err != nil {
		return err
	}

	trades := s.normalizer.Trades(contractID, s.sweep.Period, points)
	result, err := s.store.SaveTrades(ctx, trades)
	partial.Trades.Add(result)
	return err
}

func (s *marketSweeper) sweepTokens(ctx context.Context, contractID string, partial *Report) error {
	resources, err := s.client.GetTokensByContract(ctx, contractID, TOKEN_PAGE_LIMIT)
	if err != nil {
		return err
	}

	tokens := s.normalizer.Tokens(contractID, resources)
	result, err := s.store.SaveTokens(ctx, tokens)
	partial.Tokens.Add(result)
	if err != nil {
		return err
	}

	// Token rows are append-only; a skipped row is an existing token whose
	// rarity may have moved since it was first recorded. Refresh it through
	// the dedicated update path.
	if result.Skipped > 0 {
		for i := range tokens {
			if tokens[i].RarityScore == 0 && tokens[i].Ranking == 0 {
				continue
			}
			err := s.store.UpdateTokenRarity(ctx, tokens[i].TokenID, contractID,
				tokens[i].RarityScore, tokens[i].Ranking)
			if err != nil {
				logger.Warn("failed to refresh token rarity",
					zap.String("token_id", tokens[i].TokenID),
					zap.Error(err))
			}
		}
	}

	if !s.sweep.FetchAttributes {
		return nil
	}

	for i := range tokens {
		_, stats, err := s.client.GetTokenWithAttributes(ctx, tokens[i].TokenID)
		if err != nil {
			logger.Warn("failed to fetch token attributes",
				zap.String("token_id", tokens[i].TokenID),
				zap.Error(err))
			continue
		}

		attributes := s.normalizer.TokenAttributes(tokens[i].TokenID, stats)
		result, err := s.store.SaveTokenAttributes(ctx, attributes)
		partial.TokenAttributes.Add(result)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *marketSweeper) sweepWhales(ctx context.Context, contractID string, partial *Report) error {
	resources, err := s.client.GetWhales(ctx, contractID)
	if err != nil {
		return err
	}

	whales := s.normalizer.Whales(contractID, resources)
	result, err := s.store.SaveWhales(ctx, whales)
	partial.Whales.Add(result)
	return err
}
