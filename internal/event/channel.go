/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package event

import (
	"log/slog"
	"sync"
)

// Subscription is the handle returned by the bus subscribe methods.
// Unsubscribe is idempotent.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the observer from its channel.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

type observer[T any] struct {
	id int
	fn func(T)
}

// channel is one typed pub/sub lane. Observers are kept in subscription
// order; publish fans out synchronously with per-observer panic isolation.
type channel[T any] struct {
	name string
	log  *slog.Logger

	mu     sync.Mutex
	nextID int
	obs    []observer[T]
	closed bool
}

func newChannel[T any](l *slog.Logger, name string) *channel[T] {
	return &channel[T]{name: name, log: l}
}

func (c *channel[T]) subscribe(fn func(T)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &Subscription{cancel: func() {}}
	}
	id := c.nextID
	c.nextID++
	c.obs = append(c.obs, observer[T]{id: id, fn: fn})
	return &Subscription{cancel: func() { c.remove(id) }}
}

func (c *channel[T]) remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, o := range c.obs {
		if o.id == id {
			c.obs = append(c.obs[:i], c.obs[i+1:]...)
			return
		}
	}
}

func (c *channel[T]) publish(v T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// Snapshot so handlers may subscribe/unsubscribe without deadlock.
	// Observers joining during this publish do not see it.
	obs := make([]observer[T], len(c.obs))
	copy(obs, c.obs)
	c.mu.Unlock()

	for _, o := range obs {
		c.deliver(o, v)
	}
}

func (c *channel[T]) deliver(o observer[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("subscriber panicked", slog.String("channel", c.name), slog.Any("panic", r))
		}
	}()
	o.fn(v)
}

func (c *channel[T]) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.obs = nil
}
