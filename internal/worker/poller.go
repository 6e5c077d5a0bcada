// Package worker runs the periodic analysis loop: one tick re-runs
// wallet aggregation, spending classification of registered wallets and
// the daily top-spender scan for every enabled chain.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/types"
)

// DetectionRunner runs one aggregation pass.
type DetectionRunner interface {
	Detect(ctx context.Context, chain types.ChainID, filter types.FilterType, skipDemo bool) (*service.DetectionResult, error)
}

// SpendingAnalyzer classifies one wallet's spending.
type SpendingAnalyzer interface {
	Analyze(ctx context.Context, address string, chain types.ChainID, window service.Window) (*models.SpendingProfile, error)
}

// TopSpenderScanner records the day's biggest spender.
type TopSpenderScanner interface {
	Scan(ctx context.Context, chain types.ChainID, day string) (*models.TopSpender, error)
}

// RegistrationLister lists registered wallets to re-analyze.
type RegistrationLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.Registration, error)
}

// PollerConfig holds configuration for the analysis poller.
type PollerConfig struct {
	Chains   []types.ChainID
	Interval time.Duration
	// Filter and SkipDemo are applied to every scheduled detection run.
	Filter   types.FilterType
	SkipDemo bool
	// RegisteredBatch caps how many registered wallets one tick
	// re-analyzes.
	RegisteredBatch int
}

// Poller serializes analysis runs on a fixed interval. One tick finishes
// before the next starts; a slow provider delays the schedule rather
// than stacking runs.
type Poller struct {
	cfg           PollerConfig
	detection     DetectionRunner
	spending      SpendingAnalyzer
	topSpenders   TopSpenderScanner
	registrations RegistrationLister
	alerts        *service.AlertService
	logger        *logging.Logger

	running bool
	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPoller creates an analysis poller.
func NewPoller(
	cfg PollerConfig,
	detection DetectionRunner,
	spending SpendingAnalyzer,
	topSpenders TopSpenderScanner,
	registrations RegistrationLister,
	alerts *service.AlertService,
	logger *logging.Logger,
) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Filter == "" {
		cfg.Filter = types.FilterAll
	}
	if cfg.RegisteredBatch <= 0 {
		cfg.RegisteredBatch = 50
	}
	return &Poller{
		cfg:           cfg,
		detection:     detection,
		spending:      spending,
		topSpenders:   topSpenders,
		registrations: registrations,
		alerts:        alerts,
		logger:        logger.WithField("component", "poller"),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is already running")
	}
	p.running = true
	p.mu.Unlock()

	p.logger.WithFields(map[string]interface{}{
		"interval": p.cfg.Interval.String(),
		"chains":   len(p.cfg.Chains),
	}).Info("Starting analysis poller")

	go p.loop(ctx)
	return nil
}

// Stop waits for the current tick to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is not running")
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.doneCh)

	// First tick runs immediately; subsequent ticks follow the interval.
	p.RunOnce(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce executes one full analysis tick across all enabled chains.
func (p *Poller) RunOnce(ctx context.Context) {
	start := time.Now()

	for _, chain := range p.cfg.Chains {
		p.runChain(ctx, chain)
	}
	p.analyzeRegistered(ctx)

	p.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Analysis tick completed")
}

// runChain runs detection and the top-spender scan for one chain.
// Failures are logged; one broken chain never blocks the others.
func (p *Poller) runChain(ctx context.Context, chain types.ChainID) {
	if _, err := p.detection.Detect(ctx, chain, p.cfg.Filter, p.cfg.SkipDemo); err != nil {
		p.logger.WithField("chain", chain).WithError(err).Error("Scheduled detection run failed")
	}

	if p.topSpenders != nil {
		spender, err := p.topSpenders.Scan(ctx, chain, "")
		if err != nil {
			p.logger.WithField("chain", chain).WithError(err).Error("Scheduled top spender scan failed")
		} else if spender != nil && p.alerts != nil {
			p.alerts.AnnounceTopSpender(ctx, spender)
		}
	}
}

// analyzeRegistered re-classifies the wallets of registered users.
func (p *Poller) analyzeRegistered(ctx context.Context) {
	if p.spending == nil || p.registrations == nil {
		return
	}

	regs, err := p.registrations.List(ctx, p.cfg.RegisteredBatch, 0)
	if err != nil {
		p.logger.WithError(err).Error("Failed to list registered wallets")
		return
	}

	for _, reg := range regs {
		profile, err := p.spending.Analyze(ctx, reg.WalletAddress, reg.Blockchain, service.Window{})
		if err != nil {
			if errors.Is(err, service.ErrNoData) {
				continue
			}
			p.logger.WithField("wallet", reg.WalletAddress).WithError(err).Error("Scheduled spending analysis failed")
			continue
		}
		if p.alerts != nil {
			p.alerts.AnnounceDemoWallet(ctx, profile)
		}
	}
}
