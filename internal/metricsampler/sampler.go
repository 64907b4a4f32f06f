package metricsampler

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/config"
	"github.com/uktrade/activity-stream/internal/esgateway"
	"github.com/uktrade/activity-stream/internal/kv"
	"github.com/uktrade/activity-stream/internal/supervisor"
)

const sampleInterval = 1 * time.Second

// Sampler drives one sampling round per interval, publishing the serialised
// registry snapshot to the KV store's "metrics" key.
type Sampler struct {
	gateway  *esgateway.Gateway
	kvClient *kv.Client
	feeds    []config.Feed
	registry *Registry
	logger   *zap.Logger
}

func New(gateway *esgateway.Gateway, kvClient *kv.Client, feeds []config.Feed, registry *Registry, logger *zap.Logger) *Sampler {
	return &Sampler{gateway: gateway, kvClient: kvClient, feeds: feeds, registry: registry, logger: logger}
}

// Run is the supervised entrypoint: it loops until ctx is cancelled,
// sampling once per second and never propagating MetricsUnavailable as a
// failure to the Supervisor.
func (s *Sampler) Run(ctx context.Context, reporter supervisor.Reporter) {
	supervisor.RepeatUntilCancelled(ctx, s.logger, reporter, []time.Duration{sampleInterval}, map[string]string{"component": "metrics_sampler"}, func(ctx context.Context) error {
		if err := s.sampleOnce(ctx); err != nil {
			return err
		}
		timer := time.NewTimer(sampleInterval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		return nil
	})
}

func (s *Sampler) sampleOnce(ctx context.Context) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(setMetricIfCan(s.logger, "searchable_total", func() error {
		v, err := s.gateway.SearchableTotal(ctx)
		if err != nil {
			return err
		}
		s.registry.setSearchableTotal(float64(v))
		return nil
	}))

	record(setMetricIfCan(s.logger, "nonsearchable_total", func() error {
		v, err := s.gateway.NonSearchableTotal(ctx)
		if err != nil {
			return err
		}
		s.registry.setNonSearchableTotal(float64(v))
		return nil
	}))

	record(setMetricIfCan(s.logger, "verification_age", func() error {
		v, err := s.gateway.MinVerificationAge(ctx, time.Now())
		if err != nil {
			return err
		}
		s.registry.setVerificationAge(v)
		return nil
	}))

	for _, feed := range s.feeds {
		feed := feed
		record(setMetricIfCan(s.logger, "feed_totals:"+feed.UniqueID, func() error {
			searchable, nonSearchable, err := s.gateway.FeedActivitiesTotal(ctx, feed.UniqueID)
			if err != nil {
				return err
			}
			s.registry.setFeedSearchable(feed.UniqueID, float64(searchable))
			s.registry.setFeedNonSearchable(feed.UniqueID, float64(nonSearchable))
			return nil
		}))
	}

	snapshot, err := s.serialise()
	if err != nil {
		return err
	}
	if err := s.kvClient.Set(ctx, kv.KeyMetrics, snapshot, 0); err != nil {
		return err
	}
	return firstErr
}

// setMetricIfCan runs fn, swallowing ErrMetricsUnavailable (logged at debug,
// not returned) so one unavailable label never prevents the others from
// updating and never surfaces as a supervisor-visible failure. Any other
// error is returned so the caller can still let the round finish before
// reporting it.
func setMetricIfCan(logger *zap.Logger, label string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if errors.Is(err, esgateway.ErrMetricsUnavailable) {
		logger.Debug("metrics temporarily unavailable, skipping", zap.String("label", label))
		return nil
	}
	logger.Warn("metrics sample failed", zap.String("label", label), zap.Error(err))
	return err
}

func (s *Sampler) serialise() (string, error) {
	families, err := s.registry.reg.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
