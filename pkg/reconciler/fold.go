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

// Package reconciler keeps one live device connection per roster entry.
package reconciler

import (
	"sort"

	"github.com/carverauto/wledradar/pkg/models"
)

// EffectKind is the client action a fold step asks for.
type EffectKind int

const (
	// EffectCreate builds a client for a new hardware address.
	EffectCreate EffectKind = iota
	// EffectDestroy tears down the client of a removed hardware address.
	EffectDestroy
	// EffectUpdate rebinds an existing client to a changed record.
	EffectUpdate
)

func (k EffectKind) String() string {
	switch k {
	case EffectCreate:
		return "create"
	case EffectDestroy:
		return "destroy"
	case EffectUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Effect is one side effect produced by Fold.
type Effect struct {
	Kind   EffectKind
	MAC    string
	Device models.Device
	// Connect is set on EffectCreate when the new client should dial immediately.
	Connect bool
}

// Fold compares the previous mapping with a roster snapshot and returns the
// next mapping with the effects that turn one into the other. It has no side
// effects. An address change yields a destroy followed by a create so the new
// endpoint starts with fresh connection state. Effects are ordered destroys,
// then creates, then updates, each by hardware address.
func Fold(prev map[string]models.Device, snapshot []models.Device, background bool) (map[string]models.Device, []Effect) {
	next := make(map[string]models.Device, len(snapshot))

	for _, d := range snapshot {
		key := models.NormalizeMAC(d.MACAddress)
		if key == "" {
			continue
		}

		next[key] = d
	}

	var destroys, creates, updates []Effect

	for key, old := range prev {
		d, ok := next[key]

		switch {
		case !ok:
			destroys = append(destroys, Effect{Kind: EffectDestroy, MAC: key, Device: old})
		case d.Address != old.Address:
			destroys = append(destroys, Effect{Kind: EffectDestroy, MAC: key, Device: old})
			creates = append(creates, Effect{Kind: EffectCreate, MAC: key, Device: d, Connect: !background})
		case d != old:
			updates = append(updates, Effect{Kind: EffectUpdate, MAC: key, Device: d})
		}
	}

	for key, d := range next {
		if _, ok := prev[key]; !ok {
			creates = append(creates, Effect{Kind: EffectCreate, MAC: key, Device: d, Connect: !background})
		}
	}

	sortEffects(destroys)
	sortEffects(creates)
	sortEffects(updates)

	effects := make([]Effect, 0, len(destroys)+len(creates)+len(updates))
	effects = append(effects, destroys...)
	effects = append(effects, creates...)
	effects = append(effects, updates...)

	return next, effects
}

func sortEffects(effects []Effect) {
	sort.Slice(effects, func(i, j int) bool { return effects[i].MAC < effects[j].MAC })
}
