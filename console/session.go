// Package console runs the interactive dispatch session: it reads the fleet
// and the ride requests as whitespace separated tokens and prints the
// outcome of each request.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kilianp07/ridedispatch/core/logger"
	"github.com/kilianp07/ridedispatch/core/model"
)

// ErrInput is wrapped by every error caused by malformed input.
var ErrInput = errors.New("invalid input")

// Dispatcher is the part of dispatch.Dispatcher the session drives.
type Dispatcher interface {
	RegisterVehicle(id int, driver string, loc model.Location) []model.Outcome
	Dispatch(ctx context.Context, req model.RideRequest) ([]model.Outcome, error)
}

// Session reads from in and writes prompts and outcomes to out.
type Session struct {
	in     *bufio.Reader
	out    io.Writer
	d      Dispatcher
	logger logger.Logger
	// Quiet suppresses prompts, leaving only outcome lines.
	Quiet bool
}

// NewSession creates a session driving d.
func NewSession(in io.Reader, out io.Writer, d Dispatcher, log logger.Logger) *Session {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Session{in: bufio.NewReader(in), out: out, d: d, logger: log}
}

// Run reads the vehicle count and the vehicles, then the request count and
// the requests, submitting each request as soon as it is read.
func (s *Session) Run(ctx context.Context) error {
	n, err := s.readCount("Enter the number of vehicles: ", "vehicle count")
	if err != nil {
		return err
	}
	for i := 1; i <= n; i++ {
		s.prompt("Vehicle %d of %d (id driver x y): ", i, n)
		var (
			id     int
			driver string
			x, y   int
		)
		if err := s.scan(fmt.Sprintf("vehicle %d id", i), &id); err != nil {
			return err
		}
		if err := s.scan(fmt.Sprintf("vehicle %d driver", i), &driver); err != nil {
			return err
		}
		if err := s.scan(fmt.Sprintf("vehicle %d x", i), &x); err != nil {
			return err
		}
		if err := s.scan(fmt.Sprintf("vehicle %d y", i), &y); err != nil {
			return err
		}
		for _, out := range s.d.RegisterVehicle(id, driver, model.Loc(x, y)) {
			s.print(out)
		}
	}
	s.logger.Debugf("registered %d vehicles", n)

	m, err := s.readCount("Enter the number of ride requests: ", "request count")
	if err != nil {
		return err
	}
	for i := 1; i <= m; i++ {
		s.prompt("Ride request %d of %d (id pickup_x pickup_y destination_x destination_y): ", i, m)
		var id, px, py, dx, dy int
		fields := []struct {
			name string
			dst  *int
		}{
			{"id", &id}, {"pickup x", &px}, {"pickup y", &py}, {"destination x", &dx}, {"destination y", &dy},
		}
		for _, f := range fields {
			if err := s.scan(fmt.Sprintf("request %d %s", i, f.name), f.dst); err != nil {
				return err
			}
		}
		outs, err := s.d.Dispatch(ctx, model.RideRequest{ID: id, Pickup: model.Loc(px, py), Destination: model.Loc(dx, dy)})
		if err != nil {
			return fmt.Errorf("submit request %d: %w", id, err)
		}
		for _, out := range outs {
			s.print(out)
		}
	}
	return nil
}

func (s *Session) readCount(prompt, field string) (int, error) {
	s.prompt("%s", prompt)
	var n int
	if err := s.scan(field, &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", ErrInput, field, n)
	}
	return n, nil
}

func (s *Session) scan(field string, dst any) error {
	if _, err := fmt.Fscan(s.in, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s: unexpected end of input", ErrInput, field)
		}
		return fmt.Errorf("%w: %s: %v", ErrInput, field, err)
	}
	return nil
}

func (s *Session) prompt(format string, args ...any) {
	if s.Quiet {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}

func (s *Session) print(out model.Outcome) {
	fmt.Fprintln(s.out, FormatOutcome(out))
}

// FormatOutcome renders the line printed for an outcome.
func FormatOutcome(out model.Outcome) string {
	switch out.Status {
	case model.StatusAssigned:
		return fmt.Sprintf("Ride request %d assigned to vehicle %d (driver %s) from %s to %s",
			out.RequestID, out.VehicleID, out.Driver, out.Pickup, out.Destination)
	case model.StatusQueued:
		return fmt.Sprintf("Ride request %d queued until a vehicle becomes available", out.RequestID)
	default:
		return fmt.Sprintf("Ride request %d: no vehicles available", out.RequestID)
	}
}
