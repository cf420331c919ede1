package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/ridedispatch/api/requests"
	"github.com/kilianp07/ridedispatch/api/trips"
	"github.com/kilianp07/ridedispatch/api/vehicles"
	"github.com/kilianp07/ridedispatch/config"
	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/events"
	coremetrics "github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/triplog"
	"github.com/kilianp07/ridedispatch/core/vehiclestatus"
	"github.com/kilianp07/ridedispatch/infra/logger"
	"github.com/kilianp07/ridedispatch/infra/metrics"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
	"github.com/kilianp07/ridedispatch/internal/eventbus"
)

// Service wires the dispatcher to its sinks, trip log, MQTT client and
// HTTP API.
type Service struct {
	Dispatcher *dispatch.Dispatcher
	Store      triplog.Store
	Status     *vehiclestatus.MemoryStore

	sink     coremetrics.MetricsSink
	cfg      *config.Config
	bus      *eventbus.Bus[events.Event]
	mqtt     *mqtt.PahoClient
	log      logger.Logger
	events   <-chan events.Event
	statuses <-chan events.Event
}

// eventBuffer is the per subscriber buffer of the service bus.
const eventBuffer = 256

// Options override collaborators built from the configuration.
type Options struct {
	Logger logger.Logger
	// Notifier replaces the MQTT client as assignment notifier.
	Notifier dispatch.Notifier
	// Offline skips the MQTT connection even when it is enabled.
	Offline bool
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts Options) (*Service, error) {
	logg := opts.Logger
	if logg == nil {
		logg = logger.New("service")
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := triplog.Open(cfg.TripLog)
	if err != nil {
		coremetrics.Close(sink)
		return nil, fmt.Errorf("trip log: %w", err)
	}

	d, err := dispatch.NewDispatcher(dispatch.FilterFromConfig(cfg.Dispatch), dispatch.NearestMatcher{}, cfg.Dispatch, logg)
	if err != nil {
		coremetrics.Close(sink)
		closeStore(store, logg)
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	bus := eventbus.NewBuffered[events.Event](eventBuffer)
	d.SetMetricsSink(sink)
	d.SetEventBus(bus)
	if store != nil {
		d.SetTripLog(store)
	}

	svc := &Service{
		Dispatcher: d,
		Store:      store,
		Status:     vehiclestatus.NewMemoryStore(),
		sink:       sink,
		cfg:        cfg,
		bus:        bus,
		log:        logg,
		events:     bus.Subscribe(),
		statuses:   bus.Subscribe(),
	}
	switch {
	case opts.Notifier != nil:
		d.SetNotifier(opts.Notifier)
	case cfg.MQTT.Enabled && !opts.Offline:
		client, err := mqtt.NewPahoClient(cfg.MQTT, logg)
		if err != nil {
			coremetrics.Close(sink)
			closeStore(store, logg)
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
		d.SetNotifier(client)
	}
	return svc, nil
}

func closeStore(store triplog.Store, log logger.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.Errorf("trip log close: %v", err)
	}
}

// Handler returns the HTTP API including the /metrics endpoint.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/vehicles", vehicles.NewHandler(s.Dispatcher))
	mux.Handle("/api/vehicles/status", vehicles.NewStatusHandler(s.Status))
	mux.Handle("/api/requests", requests.NewHandler(s.Dispatcher))
	if s.Store != nil {
		mux.Handle("/api/trips", trips.NewHandler(s.Store, s.cfg.API.Token))
	}
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Run serves the HTTP API and, when MQTT is connected, dispatches ride
// requests received from the broker. It blocks until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.logEvents(ctx)
	go vehiclestatus.Follow(ctx, s.Status, s.statuses)

	if s.mqtt != nil {
		reqs := make(chan model.RideRequest, 16)
		if err := s.mqtt.SubscribeRequests(ctx, reqs); err != nil {
			return err
		}
		go s.Dispatcher.Run(ctx, reqs)
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" && addr != s.cfg.API.Addr {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("serving API on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// logEvents writes every dispatch event at debug level.
func (s *Service) logEvents(ctx context.Context) {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			s.log.Debugw("dispatch event", eventFields(ev))
		case <-ctx.Done():
			return
		}
	}
}

func eventFields(ev events.Event) map[string]any {
	f := map[string]any{"kind": ev.Kind()}
	switch e := ev.(type) {
	case events.RegistrationEvent:
		f["vehicle_id"] = e.Vehicle.ID
		f["replaced"] = e.Replaced
	case events.AssignmentEvent:
		f["trip_id"] = e.TripID
		f["request_id"] = e.Request.ID
		f["vehicle_id"] = e.Vehicle.ID
		f["distance"] = e.Distance
	case events.CompletionEvent:
		f["trip_id"] = e.TripID
		f["vehicle_id"] = e.Vehicle.ID
		f["location"] = e.Vehicle.Location.String()
	case events.UnmatchedEvent:
		f["request_id"] = e.Request.ID
		f["queued"] = e.Queued
	}
	return f
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	s.bus.Close()
	coremetrics.Close(s.sink)
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}
