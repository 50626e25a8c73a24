// Package pipeline defines the producer/consumer graph that one surface
// investigation is wired from.
//
// Producers generate intermediate products (saddle connections, flow
// decompositions); consumers process them; processors are both. Goals are
// consumers with a verdict, a cache hook, and a final report.
//
// The graph is stepped cooperatively: one Produce call performs one unit
// of work and synchronously notifies every registered consumer before it
// returns. There is no internal concurrency; suspension happens only at
// step boundaries.
package pipeline

import (
	"context"
	"time"
)

// Producer generates data that is processed by registered consumers.
type Producer interface {
	// Name is the command token of this producer (e.g. "saddle-connections").
	Name() string

	// Produce performs one unit of work and notifies consumers of the
	// product. It returns false when the producer is exhausted and
	// nothing was produced.
	Produce(ctx context.Context) (more bool, err error)

	// Register attaches a consumer to be notified of future products.
	Register(c Consumer)

	// Exhausted reports whether a previous Produce call ran dry.
	Exhausted() bool
}

// Consumer processes products coming out of one or more producers.
type Consumer interface {
	// Name is the command token of this consumer.
	Name() string

	// Consume processes one product. The cost is the time it took to
	// generate the product, which callers may use to decide whether a
	// result is worth caching. It returns true once the consumer is
	// resolved and wants no further data.
	Consume(ctx context.Context, product any, cost time.Duration) (resolved bool, err error)

	// Resolved reports whether this consumer has resolved.
	Resolved() bool
}

// Goal is a consumer that forms a verdict, can short-circuit from cached
// previous runs, and reports its final state exactly once.
type Goal interface {
	Consumer

	// ConsumeCache attempts to resolve the goal from cached results of
	// previous runs before any computation happens.
	ConsumeCache(ctx context.Context) error

	// Verdict returns the goal's current tri-state verdict. Once the
	// verdict is resolved it never reverts within a run.
	Verdict() Verdict

	// Report emits the goal's final state to the attached reporters.
	// It is a no-op after the first call for a resolved goal.
	Report(ctx context.Context) error
}

// Emitter is the embeddable producer half: consumer registration,
// notification and exhaustion bookkeeping. Concrete producers embed it
// and call Notify from their Produce.
type Emitter struct {
	consumers []Consumer
	exhausted bool
}

// Register attaches c to this emitter.
func (e *Emitter) Register(c Consumer) {
	e.consumers = append(e.consumers, c)
}

// Exhausted reports whether MarkExhausted has been called.
func (e *Emitter) Exhausted() bool {
	return e.exhausted
}

// MarkExhausted records that the producer ran dry.
func (e *Emitter) MarkExhausted() {
	e.exhausted = true
}

// Drained reports whether no consumers remain attached, i.e. everything
// downstream has resolved.
func (e *Emitter) Drained() bool {
	return len(e.consumers) == 0
}

// Notify hands product to every attached consumer in registration order.
// Consumers that report themselves resolved are dropped so they are not
// fed further data. Notification stops on the first error.
func (e *Emitter) Notify(ctx context.Context, product any, cost time.Duration) error {
	remaining := e.consumers[:0]
	var failed error
	for i, c := range e.consumers {
		if failed != nil {
			remaining = append(remaining, e.consumers[i:]...)
			break
		}
		resolved, err := c.Consume(ctx, product, cost)
		if err != nil {
			failed = err
			continue
		}
		if !resolved {
			remaining = append(remaining, c)
		}
	}
	e.consumers = remaining
	return failed
}

// Step asks the producers, in order, for one unit of work. It returns
// false when every producer is exhausted.
func Step(ctx context.Context, producers ...Producer) (bool, error) {
	for _, p := range producers {
		if p.Exhausted() {
			continue
		}
		more, err := p.Produce(ctx)
		if err != nil {
			return false, err
		}
		if more {
			return true, nil
		}
	}
	return false, nil
}

// Resolve drives producers until the consumer resolves or all producers
// are exhausted. It returns whether the consumer resolved.
func Resolve(ctx context.Context, c Consumer, producers ...Producer) (bool, error) {
	for !c.Resolved() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		more, err := Step(ctx, producers...)
		if err != nil {
			return false, err
		}
		if !more {
			return false, nil
		}
	}
	return true, nil
}
