package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/domain"
	"github.com/acikit/go-aci-validator/internal/validator"
)

// Monitor revalidates all registered servers on an interval. Validations run
// sequentially; the validator itself performs no parallel probing.
type Monitor struct {
	store     *Store
	validator *validator.Validator
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	// stopCh signals the polling goroutine to stop
	stopCh chan struct{}
}

// NewMonitor creates a Monitor. timeout bounds one full validation of a
// single server.
func NewMonitor(store *Store, v *validator.Validator, interval, timeout time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		store:     store,
		validator: v,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.Named("monitor"),
		stopCh:    make(chan struct{}),
	}
}

// Start runs an initial validation pass and begins the polling loop.
func (m *Monitor) Start(ctx context.Context) {
	m.RunOnce(ctx)
	go m.pollLoop(ctx)
}

// Stop stops the polling loop.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce validates every registered server and records the outcomes.
func (m *Monitor) RunOnce(ctx context.Context) {
	names := m.store.Names()

	var validCount int
	for _, name := range names {
		entry, err := m.ValidateServer(ctx, name)
		if err != nil {
			// the entry was removed mid-pass
			m.logger.Debug("skipping server", zap.String("server", name), zap.Error(err))
			continue
		}
		if entry.Outcome.Valid {
			validCount++
		} else {
			m.logger.Warn("server failed validation",
				zap.String("server", name),
				zap.String("reason", string(entry.Outcome.Reason)))
		}
	}

	m.logger.Info("validation pass complete",
		zap.Int("servers", len(names)),
		zap.Int("valid", validCount))
}

// ValidateServer validates one registered server, records the outcome, and
// returns the updated entry.
func (m *Monitor) ValidateServer(ctx context.Context, name string) (Entry, error) {
	entry, ok := m.store.Get(name)
	if !ok {
		return Entry{}, fmt.Errorf("no server registered under %q", name)
	}

	validateCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	outcome, details := m.validator.Run(validateCtx, entry.Descriptor)

	if err := m.store.SetOutcome(name, outcome, details); err != nil {
		return Entry{}, err
	}

	updated, _ := m.store.Get(name)
	return updated, nil
}

// Seed registers a set of named descriptors, merging each with defaults
// before registration. Defaults may be nil.
func Seed(store *Store, servers map[string]domain.ServerDescriptor, defaults *domain.ServerDescriptor) {
	for name, sd := range servers {
		store.Register(name, sd.Merge(defaults))
	}
}
