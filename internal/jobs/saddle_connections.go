package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/flatsurf/flatsurvey/internal/geom"
	"github.com/flatsurf/flatsurvey/internal/pipeline"
	"github.com/flatsurf/flatsurvey/internal/report"
)

const kindSaddleConnections = "saddle-connections"

// SaddleConnections is the root producer of a surface investigation. It
// enumerates the saddle connections of the surface by length and feeds
// them to the registered consumers.
type SaddleConnections struct {
	pipeline.Emitter

	handle geom.Handle
	report *report.Report

	connections geom.Connections
	count       int
	longest     int64
}

// NewSaddleConnections creates the producer for an open surface. The
// enumeration itself starts lazily on the first Produce call.
func NewSaddleConnections(handle geom.Handle, rep *report.Report) *SaddleConnections {
	return &SaddleConnections{handle: handle, report: rep}
}

func (s *SaddleConnections) Name() string { return kindSaddleConnections }

// Produce pulls the next saddle connection from the backend and notifies
// the consumers. The producer is exhausted when the enumeration runs dry
// or when no consumer wants further connections.
func (s *SaddleConnections) Produce(ctx context.Context) (bool, error) {
	if s.Exhausted() {
		return false, nil
	}
	if s.Drained() {
		s.MarkExhausted()
		return false, nil
	}

	if s.connections == nil {
		connections, err := s.handle.Connections(ctx)
		if err != nil {
			return false, fmt.Errorf("%s: %w", kindSaddleConnections, err)
		}
		s.connections = connections
	}

	start := time.Now()
	v, ok, err := s.connections.Next(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", kindSaddleConnections, err)
	}
	if !ok {
		s.MarkExhausted()
		return false, nil
	}
	cost := time.Since(start)

	s.count++
	if l := v.LengthSquared(); l > s.longest {
		s.longest = l
	}
	s.report.Progress(kindSaddleConnections, "connections", s.count, 0)

	if err := s.Notify(ctx, v, cost); err != nil {
		return false, err
	}
	return true, nil
}

// Randomize restarts the enumeration at a random connection of length at
// least lowerBound. Goals call this to escape a neighborhood that stopped
// yielding new information.
func (s *SaddleConnections) Randomize(lowerBound int64) {
	if s.connections != nil {
		s.connections.Randomize(lowerBound)
	}
}

// LongestSquared is the squared length of the longest connection seen so
// far.
func (s *SaddleConnections) LongestSquared() int64 {
	return s.longest
}
