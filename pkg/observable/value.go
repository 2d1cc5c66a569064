/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package observable provides a value holder that pushes every change to its subscribers.
package observable

import (
	"context"
	"sync"
)

// Value holds the latest T and fans changes out to subscribers.
// Each subscriber channel is buffered by one; a subscriber that falls behind
// only ever sees the newest value, so Set never blocks on a slow reader.
type Value[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[chan T]struct{}
	closed bool
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		value: initial,
		subs:  make(map[chan T]struct{}),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.value
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = value
	v.publishLocked()
}

// Update applies fn to the current value atomically and returns the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = fn(v.value)
	v.publishLocked()

	return v.value
}

// Subscribe yields the current value immediately and then each later value
// until ctx is done or the Value is closed, at which point the channel closes.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		close(ch)

		return ch
	}

	ch <- v.value
	v.subs[ch] = struct{}{}
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.unsubscribe(ch)
	}()

	return ch
}

// Close closes every subscriber channel. Later Sets still update the value.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	v.closed = true

	for ch := range v.subs {
		delete(v.subs, ch)
		close(ch)
	}
}

func (v *Value[T]) unsubscribe(ch chan T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.subs[ch]; !ok {
		return
	}

	delete(v.subs, ch)
	close(ch)
}

func (v *Value[T]) publishLocked() {
	for ch := range v.subs {
		select {
		case <-ch:
		default:
		}

		ch <- v.value
	}
}
