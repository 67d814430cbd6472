// Package progress implements the in-memory progress broker that makes
// background question-generation jobs observable and cancellable.
//
// Each task owns one bounded FIFO event queue. The job publishes an
// event at every milestone; a delivery layer subscribes and drains the
// queue concurrently. Publishing never blocks the producer: when a
// queue is full the oldest event is dropped to make room. A terminal
// event (completed, failed, or cancelled) ends the stream exactly once.
//
// The broker is an injected object rather than process-wide state, so
// tests can run independent instances. A periodic sweeper reclaims
// tasks whose last update is older than an idle threshold.
package progress
