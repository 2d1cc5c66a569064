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

package firstcontact

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/carverauto/wledradar/pkg/models"
	"github.com/carverauto/wledradar/pkg/observable"
)

// SessionState is the phase of an add-device attempt.
type SessionState int

const (
	StateForm SessionState = iota
	StateAdding
	StateSuccess
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateForm:
		return "form"
	case StateAdding:
		return "adding"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionSnapshot is what an add-device view renders.
type SessionSnapshot struct {
	Token   uuid.UUID
	State   SessionState
	Address string
	Device  *models.Device
	Err     error
}

// AddSession tracks one user attempt to add a device by address. Results of
// an attempt superseded by Clear or a newer Submit are discarded.
type AddSession struct {
	resolver *Resolver

	mu     sync.Mutex
	token  uuid.UUID
	cancel context.CancelFunc
	state  *observable.Value[SessionSnapshot]
}

func NewAddSession(resolver *Resolver) *AddSession {
	token := uuid.New()

	return &AddSession{
		resolver: resolver,
		token:    token,
		state:    observable.New(SessionSnapshot{Token: token, State: StateForm}),
	}
}

func (s *AddSession) Snapshot() SessionSnapshot {
	return s.state.Get()
}

func (s *AddSession) Subscribe(ctx context.Context) <-chan SessionSnapshot {
	return s.state.Subscribe(ctx)
}

// Submit validates address and runs first contact. It blocks until the
// attempt finishes and returns the snapshot that attempt produced, which is
// only published when the attempt is still current.
func (s *AddSession) Submit(ctx context.Context, address string) SessionSnapshot {
	address = strings.TrimSpace(address)

	if err := ValidateAddress(address); err != nil {
		snap := SessionSnapshot{Token: s.currentToken(), State: StateFailed, Address: address, Err: err}
		s.state.Set(snap)

		return snap
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}

	token := uuid.New()
	s.token = token
	s.cancel = cancel
	s.mu.Unlock()

	s.state.Set(SessionSnapshot{Token: token, State: StateAdding, Address: address})

	device, err := s.resolver.ResolveAndUpsert(ctx, address)

	snap := SessionSnapshot{Token: token, State: StateSuccess, Address: address, Device: device}
	if err != nil {
		snap = SessionSnapshot{Token: token, State: StateFailed, Address: address, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != token {
		return SessionSnapshot{Token: token, State: StateFailed, Address: address, Err: errSessionReplaced}
	}

	s.cancel = nil
	s.state.Set(snap)

	return snap
}

// Clear cancels any in-flight attempt and returns the session to the form.
func (s *AddSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.token = uuid.New()
	s.state.Set(SessionSnapshot{Token: s.token, State: StateForm})
}

func (s *AddSession) currentToken() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

// ValidateAddress accepts a host, host:port or http(s) URL without whitespace.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if strings.IndexFunc(address, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: contains whitespace", ErrInvalidAddress)
	}

	raw := address
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	return nil
}
