// Package admission runs the bounded retry loop that gets a volunteer into
// a campaign and reconciles the result into the local campaign cache.
package admission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hellovoter/hellovoter/internal/platform/id"
	"github.com/hellovoter/hellovoter/internal/platform/logging"
	platformotel "github.com/hellovoter/hellovoter/internal/platform/otel"
	"github.com/hellovoter/hellovoter/internal/platform/timeouts"
	"github.com/hellovoter/hellovoter/internal/services/canvass/credential"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
	"github.com/hellovoter/hellovoter/internal/services/canvass/transport"
)

// ErrSuperseded is returned by a run that a newer run replaced before it
// finished. A superseded run leaves the cache and credential untouched.
var ErrSuperseded = errors.New("admission run superseded")

// Handshaker performs one admission handshake.
type Handshaker interface {
	Hello(ctx context.Context, target domain.ResolvedTarget, token string, body transport.HelloRequest) (transport.HelloResponse, error)
}

// Credentials hands out and discards the volunteer's credential.
type Credentials interface {
	Obtain(ctx context.Context, host string) (credential.Credential, error)
	Discard(ctx context.Context) error
}

// Campaigns records joined campaigns.
type Campaigns interface {
	Merge(ctx context.Context, entry domain.CampaignEntry) error
}

// Assignments materializes the forms a handshake references.
type Assignments interface {
	Fetch(ctx context.Context, target domain.ResolvedTarget, refs []domain.Form, token string) ([]domain.Form, error)
}

// Progress is the waiting indicator driven while the server is at capacity.
type Progress interface {
	Start()
	Stop()
}

// DaylightFunc decides whether canvassing is permitted at a place and time.
type DaylightFunc func(loc domain.Location, at time.Time) bool

// Config wires a Protocol. Handshaker, Credentials, Campaigns and
// Assignments are required.
type Config struct {
	Handshaker  Handshaker
	Credentials Credentials
	Campaigns   Campaigns
	Assignments Assignments
	Progress    Progress
	Daylight    DaylightFunc
	Clock       clockwork.Clock
	// Backoff spaces attempts. Defaults to a constant timeouts.RetryDelay.
	Backoff         backoff.BackOff
	MaxAttempts     int
	OutOfHoursGrace time.Duration
	DeviceInfo      map[string]any
	Logger          *zap.Logger
	Tracer          trace.Tracer
}

// Protocol admits a volunteer into campaigns. Only one run is current at a
// time: starting a run cancels the previous one.
type Protocol struct {
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// New returns a protocol. Missing optional collaborators get defaults.
func New(cfg Config) *Protocol {
	if cfg.Progress == nil {
		cfg.Progress = noProgress{}
	}
	if cfg.Daylight == nil {
		cfg.Daylight = domain.IsDaytime
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Backoff == nil {
		cfg.Backoff = backoff.NewConstantBackOff(timeouts.RetryDelay)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = timeouts.ProgressMaxTicks / 10
	}
	if cfg.OutOfHoursGrace < 0 {
		cfg.OutOfHoursGrace = 0
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = platformotel.Tracer("github.com/hellovoter/hellovoter/internal/services/canvass/admission")
	}
	return &Protocol{cfg: cfg, logger: logging.OrNop(cfg.Logger), tracer: tracer}
}

// run is the per-call state of one Admit.
type run struct {
	generation uint64
	ctx        context.Context
	logger     *zap.Logger
	span       trace.Span
}

// Admit runs one admission for target from loc and returns its outcome.
// Errors are reserved for unexpected failures, cancellation and
// supersession; every protocol result is an Outcome.
func (p *Protocol) Admit(ctx context.Context, target domain.CampaignTarget, loc domain.Location) (domain.Outcome, error) {
	r, done := p.begin(ctx)
	defer done()

	if err := loc.Validate(); err != nil {
		return p.finish(r, domain.Outcome{Kind: domain.OutcomeInvalidTarget, Err: err}), nil
	}
	resolved, err := domain.Resolve(target)
	if err != nil {
		return p.finish(r, domain.Outcome{Kind: domain.OutcomeInvalidTarget, Err: err}), nil
	}
	r.logger = r.logger.With(zap.String("host", resolved.Host), zap.String("org_id", resolved.OrgID))
	r.span.SetAttributes(attribute.String("campaign.host", resolved.Host), attribute.String("campaign.org_id", resolved.OrgID))

	cred, err := p.cfg.Credentials.Obtain(r.ctx, resolved.Host)
	if err != nil {
		if !credential.IsCredentialError(err) {
			return p.fail(r, fmt.Errorf("obtain credential: %w", err))
		}
		r.logger.Info("credential rejected before handshake", zap.Error(err))
		if err := p.discardCredential(r); err != nil {
			return p.fail(r, err)
		}
		return p.finish(r, domain.Outcome{Kind: domain.OutcomeUnauthorized, Target: resolved, Err: err}), nil
	}

	result, err := p.handshake(r, resolved, cred.Token, loc)
	if err != nil {
		return p.fail(r, err)
	}
	if result.terminal != nil {
		return p.finish(r, *result.terminal), nil
	}
	return p.settle(r, resolved, cred.Token, loc, result)
}

type handshakeResult struct {
	response transport.HelloResponse
	attempts int
	// terminal is set when the loop ended without a 200.
	terminal *domain.Outcome
}

// handshake runs the retry loop until the server accepts, a terminal
// decision is reached or the attempt budget is spent.
func (p *Protocol) handshake(r *run, target domain.ResolvedTarget, token string, loc domain.Location) (handshakeResult, error) {
	defer p.stopProgress(r)

	state := domain.NewRetryState(p.cfg.MaxAttempts)
	p.cfg.Backoff.Reset()
	body := transport.HelloRequest{
		Longitude:  loc.Longitude,
		Latitude:   loc.Latitude,
		DeviceInfo: p.cfg.DeviceInfo,
		InviteCode: target.InviteCode,
	}
	terminal := func(kind domain.OutcomeKind, status int, err error) (handshakeResult, error) {
		return handshakeResult{
			attempts: state.Attempt,
			terminal: &domain.Outcome{Kind: kind, Target: target, Code: status, Attempts: state.Attempt, Err: err},
		}, nil
	}

	waiting := false
	lastStatus := 0
	var lastErr error
	for state.Begin() {
		resp, err := p.cfg.Handshaker.Hello(r.ctx, target, token, body)
		if stale := p.abandoned(r); stale != nil {
			return handshakeResult{}, stale
		}
		if err != nil {
			lastErr = err
			r.logger.Warn("handshake failed", zap.Int("attempt", state.Attempt), zap.Error(err))
			r.span.AddEvent("attempt", trace.WithAttributes(
				attribute.Int("attempt", state.Attempt),
				attribute.String("error", err.Error()),
			))
		} else {
			lastStatus = resp.Status
			decision := state.Classify(resp.Status)
			r.logger.Info("handshake answered",
				zap.Int("attempt", state.Attempt),
				zap.Int("status", resp.Status),
				zap.Stringer("decision", decision.Kind),
			)
			r.span.AddEvent("attempt", trace.WithAttributes(
				attribute.Int("attempt", state.Attempt),
				attribute.Int("status", resp.Status),
				attribute.String("decision", decision.Kind.String()),
			))
			if decision.Terminal() {
				switch decision.Kind {
				case domain.DecisionProceed:
					return handshakeResult{response: resp, attempts: state.Attempt}, nil
				case domain.DecisionTerminalUnauthorized:
					if err := p.discardCredential(r); err != nil {
						return handshakeResult{}, err
					}
					return terminal(domain.OutcomeUnauthorized, resp.Status, nil)
				case domain.DecisionTerminalBusiness:
					return terminal(domain.OutcomeBlocked, resp.Status, nil)
				default:
					return terminal(domain.OutcomeNetworkFailure, resp.Status, nil)
				}
			}
			if decision.Kind == domain.DecisionRetryExcused && !waiting {
				waiting = true
				p.startProgress(r)
			}
		}
		if state.Attempt >= state.MaxAttempts {
			break
		}
		more, err := p.wait(r)
		if err != nil {
			return handshakeResult{}, err
		}
		if !more {
			break
		}
	}
	r.logger.Warn("admission attempts exhausted", zap.Int("attempts", state.Attempt), zap.Int("status", lastStatus))
	return terminal(domain.OutcomeNetworkFailure, lastStatus, lastErr)
}

// settle applies the daylight gate to an accepted handshake, fetches
// assignments and records the campaign.
func (p *Protocol) settle(r *run, target domain.ResolvedTarget, token string, loc domain.Location, result handshakeResult) (domain.Outcome, error) {
	resp := result.response
	outcome := domain.Outcome{Target: target, Code: resp.Status, Attempts: result.attempts}

	if !resp.Admin && !resp.SundownOK && !p.cfg.Daylight(loc, p.cfg.Clock.Now()) {
		r.logger.Info("outside canvassing hours")
		if err := p.sleep(r, p.cfg.OutOfHoursGrace); err != nil {
			return p.fail(r, err)
		}
		outcome.Kind = domain.OutcomeOutOfHours
		return p.finish(r, outcome), nil
	}

	if resp.Ready && len(resp.Forms) > 0 {
		forms, err := p.cfg.Assignments.Fetch(r.ctx, target, resp.Forms, token)
		if err != nil {
			if stale := p.abandoned(r); stale != nil {
				return p.fail(r, stale)
			}
			r.logger.Warn("assignment fetch failed", zap.Error(err))
			outcome.Kind = domain.OutcomeNetworkFailure
			outcome.Err = err
			return p.finish(r, outcome), nil
		}
		if err := p.merge(r, domain.EntryFor(target, forms)); err != nil {
			return p.fail(r, err)
		}
		outcome.Kind = domain.OutcomeAdmitted
		outcome.Forms = forms
		outcome.IsAdministrator = resp.Admin
		return p.finish(r, outcome), nil
	}

	if err := p.merge(r, domain.EntryFor(target, nil)); err != nil {
		return p.fail(r, err)
	}
	outcome.Kind = domain.OutcomeAwaitingAssignment
	return p.finish(r, outcome), nil
}

// begin makes a new run current, cancelling and silencing the previous one.
func (p *Protocol) begin(ctx context.Context) (*run, func()) {
	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	generation := p.generation
	p.cancel = cancel
	p.cfg.Progress.Stop()
	p.mu.Unlock()

	runID, err := id.NewID()
	if err != nil {
		runID = fmt.Sprintf("run-%d", generation)
	}
	spanCtx, span := p.tracer.Start(runCtx, "admission.admit", trace.WithAttributes(attribute.String("admission.run_id", runID)))
	r := &run{
		generation: generation,
		ctx:        spanCtx,
		logger:     p.logger.With(zap.String("run_id", runID)),
		span:       span,
	}
	return r, func() {
		p.mu.Lock()
		if p.generation == generation {
			p.cfg.Progress.Stop()
			p.cancel = nil
		}
		p.mu.Unlock()
		cancel()
		span.End()
	}
}

// abandoned reports why r may no longer act, or nil while it is current.
func (p *Protocol) abandoned(r *run) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.staleLocked(r)
}

func (p *Protocol) staleLocked(r *run) error {
	if r.generation != p.generation {
		return ErrSuperseded
	}
	return r.ctx.Err()
}

func (p *Protocol) startProgress(r *run) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.staleLocked(r) == nil {
		p.cfg.Progress.Start()
	}
}

func (p *Protocol) stopProgress(r *run) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.generation == p.generation {
		p.cfg.Progress.Stop()
	}
}

// merge writes entry to the cache while r is still current.
func (p *Protocol) merge(r *run, entry domain.CampaignEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.staleLocked(r); err != nil {
		return err
	}
	if err := p.cfg.Campaigns.Merge(r.ctx, entry); err != nil {
		return fmt.Errorf("merge campaign cache: %w", err)
	}
	return nil
}

// discardCredential deletes the stored credential while r is still current.
func (p *Protocol) discardCredential(r *run) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.staleLocked(r); err != nil {
		return err
	}
	if err := p.cfg.Credentials.Discard(r.ctx); err != nil {
		return fmt.Errorf("discard credential: %w", err)
	}
	return nil
}

// wait sleeps for the next backoff interval. It returns false when the
// schedule has no more intervals.
func (p *Protocol) wait(r *run) (bool, error) {
	delay := p.cfg.Backoff.NextBackOff()
	if delay == backoff.Stop {
		return false, nil
	}
	if err := p.sleep(r, delay); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Protocol) sleep(r *run, d time.Duration) error {
	if d > 0 {
		select {
		case <-r.ctx.Done():
		case <-p.cfg.Clock.After(d):
		}
	}
	return p.abandoned(r)
}

func (p *Protocol) finish(r *run, outcome domain.Outcome) domain.Outcome {
	r.span.SetAttributes(
		attribute.String("admission.outcome", outcome.Kind.String()),
		attribute.Int("admission.attempts", outcome.Attempts),
		attribute.Int("admission.status", outcome.Code),
	)
	fields := []zap.Field{
		zap.Stringer("outcome", outcome.Kind),
		zap.Int("attempts", outcome.Attempts),
		zap.Int("status", outcome.Code),
	}
	if outcome.Err != nil {
		fields = append(fields, zap.Error(outcome.Err))
	}
	r.logger.Info("admission finished", fields...)
	return outcome
}

func (p *Protocol) fail(r *run, err error) (domain.Outcome, error) {
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) {
		r.logger.Info("admission abandoned", zap.Error(err))
	} else {
		r.logger.Error("admission failed", zap.Error(err))
	}
	return domain.Outcome{}, err
}

type noProgress struct{}

func (noProgress) Start() {}
func (noProgress) Stop()  {}
