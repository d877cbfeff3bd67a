// Package event provides the synchronous topic bus that connects the
// annotation engine to its observers.
//
// The engine, the interaction controller and the note store never call hook
// scripts, loggers or hosts directly. They publish an Event on a Topic and
// whoever cares subscribes with a pattern:
//
//	bus := event.NewBus(event.WithLogger(logger))
//	id, _ := bus.Subscribe("annotation.*", func(ctx context.Context, ev event.Event) error {
//	    created, ok := ev.Payload.(event.AnnotationCreated)
//	    ...
//	})
//	defer bus.Unsubscribe(id)
//
// # Delivery
//
// Delivery is synchronous: Publish returns after every matching handler ran,
// in subscription order, on the caller's goroutine. That keeps event order
// identical to mutation order for the single-threaded hosts that drive the
// engine. Handler errors and panics are logged and counted; they never reach
// the publisher.
//
// A nil *Bus is valid and drops everything, so components can be built
// without one.
package event
