// Package dispatch drives spawn rules from host events.
//
// For every event the Dispatcher walks the rule set in order. A rule that
// listens for the event, accepts the murder method, is not yet triggered, has
// its prerequisite item spawned and has no city scan in flight counts the
// occurrence. Once enough occurrences were seen the probability gate is rolled;
// on a hit the roles are resolved, a location is found, a placement is picked
// and the item is materialized. Only a successful spawn advances the trigger
// state.
//
// Custom locations need a scan of the whole city. Those rules submit a
// RoomScan to the scan scheduler and finish on the Tick that completes it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/locate"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/observe"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/ownership"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/place"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/rules"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/scan"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/spawn"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger"
	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/world"
)

// Config wires a Dispatcher. Rules, Graph, Spawner and Store are required.
type Config struct {
	Rules   *rules.RuleSet
	Graph   world.Graph
	Cast    ownership.Cast
	Spawner *spawn.Manager
	Store   trigger.Store
	// Slot is the save slot trigger state is stored under.
	Slot string
	// SessionID starts the tracker; Load or NewSession replace it.
	SessionID string

	// Optional.
	Scheduler *scan.Scheduler
	Metrics   *observe.Metrics
	Rng       *rand.Rand
	Now       func() time.Time
}

// pendingScan is a Custom firing waiting for its city scan.
type pendingScan struct {
	rule       rules.SpawnRule
	spec       rules.Custom
	event      string
	assignment ownership.Assignment
	scan       *locate.RoomScan
}

type finishedScan struct {
	key       string
	cancelled bool
}

// Dispatcher evaluates spawn rules. All exported methods are safe for
// concurrent use; they serialize on one mutex.
type Dispatcher struct {
	mu       sync.Mutex
	rules    *rules.RuleSet
	graph    world.Graph
	resolver *ownership.Resolver
	tracker  *trigger.Tracker
	store    trigger.Store
	slot     string
	spawner  *spawn.Manager
	scans    *scan.Scheduler
	metrics  *observe.Metrics
	rng      *rand.Rand
	now      func() time.Time

	pending  map[string]*pendingScan // rule name → scan in flight
	finished []finishedScan          // filled by scheduler callbacks, d.mu held
}

// New creates a Dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	var errs []error
	if cfg.Rules == nil {
		errs = append(errs, errors.New("rule set is required"))
	}
	if cfg.Graph == nil {
		errs = append(errs, errors.New("world graph is required"))
	}
	if cfg.Spawner == nil {
		errs = append(errs, errors.New("spawn manager is required"))
	}
	if cfg.Store == nil {
		errs = append(errs, errors.New("trigger store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	if cfg.Scheduler == nil {
		cfg.Scheduler = scan.NewScheduler(scan.DefaultBatch)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Rng == nil {
		cfg.Rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	EnableVerbose(cfg.Rules.Verbose)

	return &Dispatcher{
		rules:    cfg.Rules,
		graph:    cfg.Graph,
		resolver: ownership.NewResolver(cfg.Cast, cfg.Rng),
		tracker:  trigger.NewTracker(cfg.SessionID),
		store:    cfg.Store,
		slot:     cfg.Slot,
		spawner:  cfg.Spawner,
		scans:    cfg.Scheduler,
		metrics:  cfg.Metrics,
		rng:      cfg.Rng,
		now:      cfg.Now,
		pending:  make(map[string]*pendingScan),
	}, nil
}

// Tracker returns the trigger tracker.
func (d *Dispatcher) Tracker() *trigger.Tracker {
	return d.tracker
}

// Rules returns the current rule set.
func (d *Dispatcher) Rules() *rules.RuleSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rules
}

// Pending returns the number of Custom firings waiting for a scan.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// SetCast replaces the actors roles resolve to. Scans already in flight keep
// the assignment they were submitted with.
func (d *Dispatcher) SetCast(cast ownership.Cast) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolver = ownership.NewResolver(cast, d.rng)
}

// ReloadRules swaps the rule set. Scans of rules that no longer exist are
// cancelled. Trigger state is keyed by name and carries over.
func (d *Dispatcher) ReloadRules(ctx context.Context, rs *rules.RuleSet) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rules = rs
	EnableVerbose(rs.Verbose)

	for name := range d.pending {
		if _, ok := rs.Rule(name); !ok {
			d.scans.Cancel(name)
		}
	}
	d.drain(ctx)

	slog.Info("spawn rules reloaded",
		"rules", len(rs.Rules),
		"enabled", rs.Enabled,
		"digest", rs.Digest(),
		"phases", d.tracker.Summary(rs))
}

// OnEvent evaluates every rule against one host event and returns a result
// per rule that counted the occurrence.
func (d *Dispatcher) OnEvent(ctx context.Context, event, method string) []Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.metrics.Events.Add(ctx, 1)

	rs := d.rules
	if !rs.Enabled {
		return nil
	}

	var results []Result
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if !d.eligible(r, event, method) {
			continue
		}
		results = append(results, d.evaluate(ctx, r, event))
	}
	return results
}

func (d *Dispatcher) eligible(r *rules.SpawnRule, event, method string) bool {
	switch {
	case !r.Enabled, !r.TriggeredBy(event), !r.AcceptsMethod(method):
		return false
	case d.tracker.IsTriggered(r):
		return false
	case r.RequiresItem != "" && !d.tracker.HasSpawned(r.RequiresItem):
		if IsVerbose() {
			slog.Info("rule waits for prerequisite item", "rule", r.Name, "item", r.RequiresItem)
		}
		return false
	}
	if _, inFlight := d.pending[r.Name]; inFlight {
		return false
	}
	return true
}

func (d *Dispatcher) evaluate(ctx context.Context, r *rules.SpawnRule, event string) Result {
	res := Result{Rule: r.Name, Event: event}

	if phase := d.tracker.Observe(r); phase != trigger.PhaseReady {
		if IsVerbose() {
			slog.Info("rule occurrence counted",
				"rule", r.Name,
				"occurrences", d.tracker.State(r.Name).Occurrences,
				"required", r.RequiredOccurrences)
		}
		res.Status = StatusObserved
		return res
	}

	if d.rng.Float64() >= r.Chance {
		d.metrics.GateMisses.Add(ctx, 1)
		res.Status = StatusGateMiss
		return res
	}

	a, err := d.resolver.ResolveRule(r)
	if err != nil {
		return d.abandon(ctx, res, r, observe.ReasonOwnership, err)
	}

	if spec, ok := r.Location.(rules.Custom); ok {
		return d.submitScan(ctx, res, r, spec, a)
	}

	req := locate.Request{Recipient: a.Recipient, Graph: d.graph, Rng: d.rng}
	target, err := locate.Resolve(req, r.Location)
	if err != nil {
		d.logLocationMiss(r, event, a.Recipient)
		return d.abandon(ctx, res, r, observe.ReasonLocation, err)
	}
	return d.placeAndSpawn(ctx, res, r, a, target)
}

func (d *Dispatcher) submitScan(ctx context.Context, res Result, r *rules.SpawnRule, spec rules.Custom, a ownership.Assignment) Result {
	p := &pendingScan{
		rule:       *r,
		spec:       spec,
		event:      res.Event,
		assignment: a,
		scan:       locate.NewRoomScan(d.graph, spec),
	}
	key := r.Name
	if !d.scans.Submit(key, p.scan, func(cancelled bool) {
		d.finished = append(d.finished, finishedScan{key: key, cancelled: cancelled})
	}) {
		return d.abandon(ctx, res, r, observe.ReasonCancelled, fmt.Errorf("scan for rule %s already running", key))
	}

	d.pending[key] = p
	d.metrics.ActiveScans.Add(ctx, 1)

	slog.Debug("city scan submitted", "rule", r.Name, "buildings", len(d.graph.Buildings()))

	res.Status = StatusPending
	return res
}

// Tick advances city scans by one batch each and finishes the firings whose
// scan completed.
func (d *Dispatcher) Tick(ctx context.Context) []Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	stepped, _ := d.scans.Tick()
	if stepped > 0 {
		d.metrics.ScanBatches.Add(ctx, int64(stepped))
	}
	return d.drain(ctx)
}

// drain handles scans the scheduler reported as finished. Called with d.mu held.
func (d *Dispatcher) drain(ctx context.Context) []Result {
	if len(d.finished) == 0 {
		return nil
	}
	finished := d.finished
	d.finished = nil

	results := make([]Result, 0, len(finished))
	for _, f := range finished {
		p, ok := d.pending[f.key]
		if !ok {
			continue
		}
		delete(d.pending, f.key)
		d.metrics.ActiveScans.Add(ctx, -1)

		res := Result{Rule: p.rule.Name, Event: p.event}
		if f.cancelled {
			results = append(results, d.abandon(ctx, res, &p.rule, observe.ReasonCancelled, context.Canceled))
			continue
		}
		results = append(results, d.completeScan(ctx, res, p))
	}
	return results
}

func (d *Dispatcher) completeScan(ctx context.Context, res Result, p *pendingScan) Result {
	req := locate.Request{Recipient: p.assignment.Recipient, Graph: d.graph, Rng: d.rng}
	target, err := locate.ResolveScanned(req, p.spec, p.scan)
	if err != nil {
		d.logLocationMiss(&p.rule, p.event, p.assignment.Recipient)
		return d.abandon(ctx, res, &p.rule, observe.ReasonLocation, err)
	}
	return d.placeAndSpawn(ctx, res, &p.rule, p.assignment, target)
}

func (d *Dispatcher) placeAndSpawn(ctx context.Context, res Result, r *rules.SpawnRule, a ownership.Assignment, target locate.Target) Result {
	decision, err := place.Resolve(target, d.rng)
	if err != nil {
		return d.abandon(ctx, res, r, observe.ReasonPlacement, err)
	}

	h, err := d.spawner.Spawn(ctx, r.Name, r.ItemID, a, decision)
	if err != nil {
		reason := observe.ReasonOwnership
		if errors.Is(err, spawn.ErrRejected) {
			reason = observe.ReasonRejected
		}
		return d.abandon(ctx, res, r, reason, err)
	}

	phase := d.tracker.MarkFired(r, r.ItemID)
	d.metrics.RecordFiring(ctx, r.Name)

	slog.Info("spawn rule fired",
		"rule", r.Name,
		"event", res.Event,
		"item", r.ItemID,
		"objectID", h.ID(),
		"location", target.Kind,
		"strategy", target.Strategy,
		"phase", phase)

	res.Status = StatusSpawned
	res.ObjectID = h.ID()
	return res
}

func (d *Dispatcher) abandon(ctx context.Context, res Result, r *rules.SpawnRule, reason string, err error) Result {
	d.metrics.RecordAbandoned(ctx, reason)

	slog.Warn("spawn rule firing abandoned",
		"rule", r.Name,
		"event", res.Event,
		"location", r.Location.Kind(),
		"reason", reason,
		"error", err)

	res.Status = StatusAbandoned
	res.Reason = reason
	res.Err = err
	return res
}

func (d *Dispatcher) logLocationMiss(r *rules.SpawnRule, event string, recipient *world.Actor) {
	if !IsVerbose() {
		return
	}
	if s := locate.Suggestions(d.graph, recipient, r.Location); len(s) > 0 {
		slog.Info("no room matched the rule filter",
			"rule", r.Name,
			"event", event,
			"recipient", recipient.Name,
			"didYouMean", s)
	}
}

// NewSession cancels scans in flight, resets every rule and clears the stored
// record of the slot.
func (d *Dispatcher) NewSession(ctx context.Context, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := d.scans.CancelAll(); n > 0 {
		slog.Info("city scans cancelled for new session", "count", n)
	}
	d.drain(ctx)

	d.tracker.Reset(sessionID)
	if err := d.store.Clear(ctx, d.slot); err != nil {
		return fmt.Errorf("clearing trigger state of slot %q: %w", d.slot, err)
	}

	slog.Info("spawn session started", "session", sessionID, "slot", d.slot)
	return nil
}

// Load cancels scans in flight and restores the trigger state of the slot. A
// record saved for a different session is discarded and every rule starts
// untriggered.
func (d *Dispatcher) Load(ctx context.Context, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := d.scans.CancelAll(); n > 0 {
		slog.Info("city scans cancelled for load", "count", n)
	}
	d.drain(ctx)

	rec, err := d.store.Load(ctx, d.slot)
	switch {
	case errors.Is(err, trigger.ErrNoRecord):
		d.tracker.Reset(sessionID)
		slog.Info("no trigger state stored, starting fresh", "session", sessionID, "slot", d.slot)
		return nil
	case err != nil:
		d.tracker.Reset(sessionID)
		return fmt.Errorf("loading trigger state of slot %q: %w", d.slot, err)
	}

	if rec.SessionID != sessionID {
		d.tracker.Reset(sessionID)
		slog.Warn("stored trigger state belongs to another session, discarded",
			"session", sessionID,
			"stored", rec.SessionID,
			"slot", d.slot)
		return nil
	}

	d.tracker.Restore(rec)
	slog.Info("trigger state restored",
		"session", sessionID,
		"slot", d.slot,
		"savedAt", rec.SavedAt,
		"phases", d.tracker.Summary(d.rules))
	return nil
}

// Save writes the trigger state to the slot.
func (d *Dispatcher) Save(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.tracker.Snapshot(d.now())
	if err := d.store.Save(ctx, d.slot, rec); err != nil {
		return fmt.Errorf("saving trigger state of slot %q: %w", d.slot, err)
	}
	slog.Debug("trigger state saved", "session", rec.SessionID, "slot", d.slot, "rules", len(rec.Rules))
	return nil
}
