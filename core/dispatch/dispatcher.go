package dispatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/logger"
	"github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/triplog"
	"github.com/kilianp07/ridedispatch/internal/eventbus"
)

// Dispatcher owns the vehicle registry and resolves ride requests.
// It is safe for concurrent use; each call holds the registry lock for the
// whole match, assignment and completion.
type Dispatcher struct {
	filter   VehicleFilter
	matcher  Matcher
	cfg      Config
	logger   logger.Logger
	metrics  metrics.MetricsSink
	bus      *eventbus.Bus[events.Event]
	store    triplog.Store
	notifier Notifier

	now    func() time.Time
	tripID func() string

	mu       sync.Mutex
	vehicles map[int]*model.Vehicle
	pending  []model.RideRequest
}

// NewDispatcher creates a dispatcher with an empty registry. A nil filter
// defaults to AvailableFilter and a nil logger to NopLogger.
func NewDispatcher(filter VehicleFilter, matcher Matcher, cfg Config, log logger.Logger) (*Dispatcher, error) {
	if matcher == nil {
		return nil, ErrNilMatcher
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = AvailableFilter{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Dispatcher{
		filter:   filter,
		matcher:  matcher,
		cfg:      cfg,
		logger:   log,
		metrics:  metrics.NopSink{},
		now:      time.Now,
		tripID:   uuid.NewString,
		vehicles: make(map[int]*model.Vehicle),
	}, nil
}

// SetMetricsSink configures the sink receiving one event per request.
func (d *Dispatcher) SetMetricsSink(sink metrics.MetricsSink) {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	d.mu.Lock()
	d.metrics = sink
	d.mu.Unlock()
}

// SetEventBus configures the bus dispatch events are published on.
func (d *Dispatcher) SetEventBus(bus *eventbus.Bus[events.Event]) {
	d.mu.Lock()
	d.bus = bus
	d.mu.Unlock()
}

// SetTripLog configures the store used to persist outcomes.
func (d *Dispatcher) SetTripLog(store triplog.Store) {
	d.mu.Lock()
	d.store = store
	d.mu.Unlock()
}

// SetNotifier configures the notifier informed of each assignment.
func (d *Dispatcher) SetNotifier(n Notifier) {
	d.mu.Lock()
	d.notifier = n
	d.mu.Unlock()
}

// sideEffects is a snapshot of the collaborators taken under the lock.
type sideEffects struct {
	metrics  metrics.MetricsSink
	bus      *eventbus.Bus[events.Event]
	store    triplog.Store
	notifier Notifier
}

func (d *Dispatcher) effectsLocked() sideEffects {
	return sideEffects{metrics: d.metrics, bus: d.bus, store: d.store, notifier: d.notifier}
}

// RegisterVehicle inserts or replaces the vehicle with the given id. The
// vehicle starts available at loc.
//
// When deferred matching is enabled, pending requests are matched right
// away and their outcomes are returned in arrival order; otherwise the
// returned slice is nil.
func (d *Dispatcher) RegisterVehicle(id int, driver string, loc model.Location) []model.Outcome {
	d.mu.Lock()
	_, replaced := d.vehicles[id]
	v := &model.Vehicle{ID: id, Driver: driver, Location: loc, State: model.StateAvailable}
	d.vehicles[id] = v
	snapshot := *v
	size := len(d.vehicles)
	fx := d.effectsLocked()
	var served []resolution
	if d.cfg.DeferUnmatched {
		served = d.drainPendingLocked()
	}
	pend := len(d.pending)
	d.mu.Unlock()

	registeredVehicles.Set(float64(size))
	pendingRequests.Set(float64(pend))
	if replaced {
		d.logger.Warnf("vehicle %d replaced by new registration (driver %s)", id, driver)
	} else {
		d.logger.Debugf("registered vehicle %d (driver %s) at %s", id, driver, loc)
	}
	if fx.bus != nil {
		fx.bus.Publish(events.RegistrationEvent{Vehicle: snapshot, Replaced: replaced, Time: d.now()})
	}
	if fr, ok := fx.metrics.(metrics.FleetSizeRecorder); ok {
		if err := fr.RecordFleetSize(size); err != nil {
			d.logger.Errorf("fleet size metrics error: %v", err)
		}
	}
	if len(served) == 0 {
		return nil
	}
	outs := make([]model.Outcome, len(served))
	for i, r := range served {
		d.report(context.Background(), fx, r)
		outs[i] = r.outcome
	}
	return outs
}

// SubmitRequest matches the request to the nearest available vehicle and
// completes the trip before returning. A request nobody can serve yields
// StatusNoVehicle, or StatusQueued when deferred matching is enabled. The
// only error is the context being done before matching starts.
func (d *Dispatcher) SubmitRequest(ctx context.Context, req model.RideRequest) (model.Outcome, error) {
	outs, err := d.Dispatch(ctx, req)
	if err != nil {
		return model.Outcome{}, err
	}
	return outs[0], nil
}

// Dispatch behaves like SubmitRequest and also returns, after the outcome of
// req, the outcomes of pending requests the completed trip made servable.
// Pending requests are only revisited when deferred matching is enabled.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.RideRequest) ([]model.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	r := d.resolveLocked(req)
	var served []resolution
	switch {
	case !r.outcome.Assigned() && d.cfg.DeferUnmatched:
		d.enqueueLocked(req)
		r.outcome.Status = model.StatusQueued
	case r.outcome.Assigned() && d.cfg.DeferUnmatched:
		served = d.drainPendingLocked()
	}
	pend := len(d.pending)
	fx := d.effectsLocked()
	d.mu.Unlock()

	pendingRequests.Set(float64(pend))
	outs := make([]model.Outcome, 0, 1+len(served))
	d.report(ctx, fx, r)
	outs = append(outs, r.outcome)
	for _, s := range served {
		d.report(ctx, fx, s)
		outs = append(outs, s.outcome)
	}
	return outs, nil
}

// resolution carries what happened to one request for reporting once the
// registry lock is released.
type resolution struct {
	req      model.RideRequest
	outcome  model.Outcome
	onTrip   model.Vehicle
	done     model.Vehicle
	latency  time.Duration
	finished time.Time
}

// resolveLocked runs the matching algorithm and, on success, the pickup and
// completion transitions.
func (d *Dispatcher) resolveLocked(req model.RideRequest) resolution {
	start := time.Now()
	res := resolution{
		req: req,
		outcome: model.Outcome{
			Status:      model.StatusNoVehicle,
			RequestID:   req.ID,
			Pickup:      req.Pickup,
			Destination: req.Destination,
		},
	}
	eligible := d.filter.Filter(d.snapshotLocked(), req)
	c, ok := d.matcher.Match(eligible, req.Pickup)
	var v *model.Vehicle
	if ok {
		v = d.vehicles[c.VehicleID]
	}
	if v == nil || !v.Available() {
		res.latency = time.Since(start)
		res.finished = d.now()
		return res
	}

	v.State = model.StateOnTrip
	res.onTrip = *v

	v.Location = req.Destination
	v.State = model.StateAvailable
	res.done = *v

	res.outcome.Status = model.StatusAssigned
	res.outcome.TripID = d.tripID()
	res.outcome.VehicleID = v.ID
	res.outcome.Driver = v.Driver
	res.outcome.Distance = c.Distance
	res.latency = time.Since(start)
	res.finished = d.now()
	return res
}

func (d *Dispatcher) enqueueLocked(req model.RideRequest) {
	if d.cfg.MaxPending > 0 && len(d.pending) >= d.cfg.MaxPending {
		dropped := d.pending[0]
		d.pending = d.pending[1:]
		d.logger.Warnf("pending queue full, dropping request %d", dropped.ID)
	}
	d.pending = append(d.pending, req)
}

// drainPendingLocked matches queued requests in arrival order. Each served
// request moves a vehicle, so passes repeat until one serves nothing.
// Requests that still find no vehicle stay queued.
func (d *Dispatcher) drainPendingLocked() []resolution {
	var served []resolution
	for len(d.pending) > 0 {
		progress := false
		remaining := d.pending[:0]
		for _, req := range d.pending {
			r := d.resolveLocked(req)
			if r.outcome.Assigned() {
				served = append(served, r)
				progress = true
				continue
			}
			remaining = append(remaining, req)
		}
		d.pending = remaining
		if !progress {
			break
		}
	}
	return served
}

// report publishes events, records metrics, appends to the trip log and
// notifies. Failures are logged and never change the outcome.
func (d *Dispatcher) report(ctx context.Context, fx sideEffects, r resolution) {
	out := r.outcome
	requestsTotal.WithLabelValues(out.Status.String()).Inc()
	matchLatency.Observe(r.latency.Seconds())

	switch out.Status {
	case model.StatusAssigned:
		pickupDistance.Observe(out.Distance)
		d.logger.Infof("request %d assigned to vehicle %d (driver %s), pickup distance %.2f",
			out.RequestID, out.VehicleID, out.Driver, out.Distance)
		if fx.bus != nil {
			fx.bus.Publish(events.AssignmentEvent{TripID: out.TripID, Request: r.req, Vehicle: r.onTrip, Distance: out.Distance, Time: r.finished})
			fx.bus.Publish(events.CompletionEvent{TripID: out.TripID, Request: r.req, Vehicle: r.done, Time: r.finished})
		}
	default:
		d.logger.Infof("request %d: no vehicle available (%s)", out.RequestID, out.Status)
		if fx.bus != nil {
			fx.bus.Publish(events.UnmatchedEvent{Request: r.req, Queued: out.Status == model.StatusQueued, Time: r.finished})
		}
	}

	if err := fx.metrics.RecordOutcome(metrics.OutcomeEvent{Outcome: out, Latency: r.latency, Time: r.finished}); err != nil {
		d.logger.Errorf("metrics sink error: %v", err)
	}
	if fx.store != nil {
		rec := triplog.Record{Timestamp: r.finished, Outcome: out, LatencyMicros: r.latency.Microseconds()}
		if err := fx.store.Append(ctx, rec); err != nil {
			d.logger.Errorf("trip log append: %v", err)
		}
	}
	if fx.notifier != nil && out.Assigned() {
		if err := fx.notifier.NotifyAssignment(ctx, out); err != nil {
			d.logger.Errorf("notify vehicle %d: %v", out.VehicleID, err)
		}
	}
}

// snapshotLocked copies the registry ordered by id.
func (d *Dispatcher) snapshotLocked() []model.Vehicle {
	list := make([]model.Vehicle, 0, len(d.vehicles))
	for _, v := range d.vehicles {
		list = append(list, *v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Vehicle returns a copy of the registered vehicle.
func (d *Dispatcher) Vehicle(id int) (model.Vehicle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.vehicles[id]
	if !ok {
		return model.Vehicle{}, false
	}
	return *v, true
}

// Vehicles returns a copy of the registry ordered by id.
func (d *Dispatcher) Vehicles() []model.Vehicle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Len returns the number of registered vehicles.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.vehicles)
}

// Pending returns the queued requests in arrival order.
func (d *Dispatcher) Pending() []model.RideRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.RideRequest, len(d.pending))
	copy(out, d.pending)
	return out
}

// Run submits requests received on the channel until the context is
// cancelled or the channel is closed. Outcomes are reported through the
// configured bus, sinks and trip log.
func (d *Dispatcher) Run(ctx context.Context, requests <-chan model.RideRequest) {
	for {
		select {
		case req, ok := <-requests:
			if !ok {
				return
			}
			if _, err := d.SubmitRequest(ctx, req); err != nil {
				d.logger.Warnf("request %d not processed: %v", req.ID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}
