// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package hybrid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rosterops/shiftcast/internal/feature"
	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/metrics"
	"github.com/rosterops/shiftcast/internal/models"
)

// Fallback reasons recorded on results and metrics.
const (
	ReasonLowConfidence   = "low_confidence"
	ReasonPredictorError  = "predictor_error"
	ReasonBreakerOpen     = "breaker_open"
	ReasonCompliance      = "compliance"
	ReasonFeatureFailure  = "feature_generation_failed"
	reasonRuleUnavailable = "rule_engine_unavailable"
)

// DefaultConfidenceThreshold gates the ML candidate when no override is
// configured.
const DefaultConfidenceThreshold = 0.6

// Config holds the controller's policy constants.
type Config struct {
	// ConfidenceThreshold is the minimum model confidence for the ML
	// candidate to proceed. Default: 0.6.
	ConfidenceThreshold float64 `koanf:"confidence_threshold" validate:"gte=0,lte=1"`

	// BreakerFailureThreshold is the number of consecutive predictor
	// failures before the circuit opens. Default: 5.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold"`

	// BreakerTimeout is how long the circuit stays open before probing
	// the predictor again. Default: 30s.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// DefaultConfig returns the reference policy constants.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:     DefaultConfidenceThreshold,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
	}
}

// Request is one prediction request. Historical doubles as the
// schedule-data snapshot for the cache fingerprint check.
type Request struct {
	Staff      []models.StaffMember
	Dates      models.DateRange
	Historical models.Schedule

	// ConfidenceThreshold overrides the controller's configured gate for
	// this request when non-nil. Must be in [0, 1].
	ConfidenceThreshold *float64
}

// requestThreshold returns the effective confidence gate for the request.
func (c *Controller) requestThreshold(req Request) float64 {
	if req.ConfidenceThreshold != nil {
		return *req.ConfidenceThreshold
	}
	return c.threshold
}

// Controller is the hybrid decision core. A request walks
// CacheLookupOrGenerate -> MLPredict -> ConfidenceGate -> [RuleFallback]
// -> ComplianceValidate; the compliance invariant is that no response
// leaves the controller below 100%.
type Controller struct {
	store      *feature.Store
	producer   feature.Producer
	predictor  Predictor
	ruleEngine RuleEngine
	validator  Validator

	threshold float64
	breaker   *gobreaker.CircuitBreaker[PredictorOutput]

	// configMu serializes fingerprint checks; concurrent prediction
	// requests otherwise proceed in parallel.
	configMu sync.Mutex

	logger zerolog.Logger
}

// NewController wires the decision core. The store is an explicit
// dependency rather than a package-level singleton; the composition root
// owns the shared instance.
func NewController(cfg Config, store *feature.Store, producer feature.Producer, predictor Predictor, ruleEngine RuleEngine, validator Validator) *Controller {
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[PredictorOutput](gobreaker.Settings{
		Name:    "predictor",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	})

	return &Controller{
		store:      store,
		producer:   producer,
		predictor:  predictor,
		ruleEngine: ruleEngine,
		validator:  validator,
		threshold:  cfg.ConfidenceThreshold,
		breaker:    breaker,
		logger:     logging.WithComponent("hybrid-controller"),
	}
}

// Predict runs one request to completion. The returned error is non-nil
// only for invalid top-level input or rule-engine failure; in both cases
// the result carries Success=false and a diagnostic message, never a
// partially valid schedule.
func (c *Controller) Predict(ctx context.Context, req Request) (models.PredictionResult, error) {
	start := time.Now()

	if len(req.Staff) == 0 {
		err := fmt.Errorf("empty staff roster")
		return newFailureResult(err, elapsedMS(start)), err
	}
	days := req.Dates.Days()
	if len(days) == 0 {
		err := fmt.Errorf("empty or inverted date range %s..%s", req.Dates.Start, req.Dates.End)
		return newFailureResult(err, elapsedMS(start)), err
	}
	if t := req.ConfidenceThreshold; t != nil && (math.IsNaN(*t) || *t < 0 || *t > 1) {
		err := fmt.Errorf("confidence threshold override %g outside [0, 1]", *t)
		return newFailureResult(err, elapsedMS(start)), err
	}

	// The fingerprint check is serialized across requests; a roster or
	// schedule mutation clears the cache before features are assembled.
	c.configMu.Lock()
	invalidated, err := c.store.InvalidateOnConfigChange(req.Staff, req.Historical)
	c.configMu.Unlock()
	if err != nil {
		return newFailureResult(err, elapsedMS(start)), err
	}
	if invalidated {
		c.logger.Debug().Msg("feature cache invalidated before assembly")
	}

	batch, cached, genErr := c.assembleFeatures(ctx, req, days)
	if errors.Is(genErr, feature.ErrDisposed) {
		return newFailureResult(genErr, elapsedMS(start)), genErr
	}

	var (
		mlOut  PredictorOutput
		mlErr  error
		hasML  bool
		reason string
	)

	switch {
	case genErr != nil:
		// A missing vector must never be papered over with a
		// zero/placeholder; the ML path is skipped entirely.
		reason = ReasonFeatureFailure
		c.logger.Warn().Err(genErr).Msg("feature assembly incomplete, skipping ML path")
	default:
		mlOut, mlErr = c.predictML(ctx, batch, req)
		switch {
		case mlErr != nil:
			reason = ReasonPredictorError
			if errors.Is(mlErr, gobreaker.ErrOpenState) || errors.Is(mlErr, gobreaker.ErrTooManyRequests) {
				reason = ReasonBreakerOpen
			}
			c.logger.Warn().Err(mlErr).Msg("predictor failed, falling back to rule engine")
		case mlOut.Confidence < c.requestThreshold(req):
			reason = ReasonLowConfidence
			hasML = true
		default:
			hasML = true
		}
	}

	// ConfidenceGate passed: validate the ML candidate.
	if hasML && reason == "" {
		report := c.validator.Validate(mlOut.Schedule, req.Staff)
		if report.Compliant() {
			result := newMLResult(mlOut.Schedule, mlOut.Confidence, report, elapsedMS(start))
			c.observe(result, cached)
			return result, nil
		}
		reason = ReasonCompliance
		c.logger.Info().
			Float64("overall", report.Overall).
			Msg("ML candidate failed compliance, falling back to rule engine")
	}

	return c.ruleFallback(ctx, req, mlOut, hasML, reason, cached, start)
}

// assembleFeatures walks every (staff, date) pair cache-first, generating
// and storing vectors synchronously on miss. cached reports whether the
// whole batch was served from cache. The first generation failure aborts
// assembly; the ML path cannot run on a partial batch.
func (c *Controller) assembleFeatures(ctx context.Context, req Request, days []models.DateKey) (FeatureBatch, bool, error) {
	batch := make(FeatureBatch, len(req.Staff))
	cached := true

	for _, member := range req.Staff {
		for i, day := range days {
			vector, hit, err := c.store.Get(member.ID, day)
			if err != nil {
				return nil, false, err
			}
			if hit {
				batch.put(member.ID, day, vector)
				continue
			}

			cached = false
			genStart := time.Now()
			vector, err = c.producer.Generate(ctx, member, day, feature.GenerationContext{
				DateIndex:  i,
				Period:     req.Dates,
				Historical: req.Historical,
				Staff:      req.Staff,
			})
			metrics.FeatureGenerationDuration.Observe(time.Since(genStart).Seconds())
			if err != nil {
				metrics.FeatureGenerationErrors.Inc()
				return nil, false, err
			}

			if ok, err := c.store.Set(member.ID, day, vector); err != nil {
				return nil, false, err
			} else if !ok {
				return nil, false, &feature.GenerationError{
					StaffID: member.ID,
					Date:    day,
					Err:     fmt.Errorf("producer returned an invalid vector"),
				}
			}
			batch.put(member.ID, day, vector)
		}
	}

	return batch, cached, nil
}

// predictML invokes the predictor through the circuit breaker. A
// predictor that reports failure or a non-finite confidence counts as a
// breaker failure.
func (c *Controller) predictML(ctx context.Context, batch FeatureBatch, req Request) (PredictorOutput, error) {
	return c.breaker.Execute(func() (PredictorOutput, error) {
		out, err := c.predictor.Predict(ctx, batch, req.Staff, req.Dates)
		if err != nil {
			return PredictorOutput{}, err
		}
		if !out.Success {
			return PredictorOutput{}, fmt.Errorf("predictor reported failure")
		}
		if math.IsNaN(out.Confidence) || math.IsInf(out.Confidence, 0) {
			return PredictorOutput{}, fmt.Errorf("predictor returned non-finite confidence")
		}
		return out, nil
	})
}

// ruleFallback obtains the guaranteed-compliant candidate. When the ML
// candidate exists, its per-staff dominant shifts are passed as hints and
// the result is tagged hybrid; otherwise it is a pure rule result.
func (c *Controller) ruleFallback(ctx context.Context, req Request, mlOut PredictorOutput, hasML bool, reason string, cached bool, start time.Time) (models.PredictionResult, error) {
	var (
		schedule models.Schedule
		err      error
	)

	if hasML {
		schedule, err = c.ruleEngine.GenerateWithHints(ctx, req.Staff, req.Dates, dominantShifts(mlOut.Schedule))
	} else {
		schedule, err = c.ruleEngine.GenerateOptimalSchedule(ctx, req.Staff, req.Dates)
	}
	if err != nil {
		failure := &SchedulingFailure{Reason: reasonRuleUnavailable, Err: err}
		metrics.PredictionFailures.Inc()
		c.logger.Error().Err(err).Msg("rule engine failed, request is terminal")
		return newFailureResult(failure, elapsedMS(start)), failure
	}

	// The chosen candidate is always validated, regardless of origin.
	report := c.validator.Validate(schedule, req.Staff)
	if !report.Compliant() {
		failure := &SchedulingFailure{
			Reason: reasonRuleUnavailable,
			Err:    fmt.Errorf("rule engine output scored %.1f%% compliance", report.Overall),
		}
		metrics.PredictionFailures.Inc()
		return newFailureResult(failure, elapsedMS(start)), failure
	}

	metrics.PredictionFallbacks.WithLabelValues(reason).Inc()

	var result models.PredictionResult
	if hasML {
		result = newHybridResult(schedule, report, reason, elapsedMS(start))
	} else {
		result = newRuleResult(schedule, report, reason, elapsedMS(start))
	}
	c.observe(result, cached)
	return result, nil
}

// observe records timing metrics and the decision log line for a
// successful result.
func (c *Controller) observe(result models.PredictionResult, cached bool) {
	metrics.ObservePrediction(string(result.Method), time.Duration(result.ProcessingTimeMS)*time.Millisecond)
	c.logger.Info().
		Str("method", string(result.Method)).
		Float64("confidence", result.Confidence).
		Int64("processing_time_ms", result.ProcessingTimeMS).
		Bool("cached", cached).
		Str("fallback_reason", result.FallbackReason).
		Msg("prediction complete")
}

// dominantShifts reduces an ML schedule to one preferred working shift per
// staff member, the parameter form the rule engine accepts as hints.
func dominantShifts(schedule models.Schedule) map[models.StaffID]models.ShiftType {
	counts := make(map[models.StaffID]map[models.ShiftType]int)
	for _, e := range schedule.Entries {
		if e.Shift == models.ShiftOff || !e.Shift.Valid() {
			continue
		}
		if counts[e.StaffID] == nil {
			counts[e.StaffID] = make(map[models.ShiftType]int)
		}
		counts[e.StaffID][e.Shift]++
	}

	hints := make(map[models.StaffID]models.ShiftType, len(counts))
	for staffID, perShift := range counts {
		best, bestCount := models.ShiftType(""), 0
		// Deterministic tie-break by shift name.
		for _, shift := range []models.ShiftType{models.ShiftMorning, models.ShiftEvening, models.ShiftNight} {
			if n := perShift[shift]; n > bestCount {
				best, bestCount = shift, n
			}
		}
		if best != "" {
			hints[staffID] = best
		}
	}
	return hints
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
