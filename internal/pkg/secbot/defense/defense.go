// Copyright (c) 2026 SecRepublic and contributors, All rights reserved.
//
// This file is part of Secbot.
//
// Secbot is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation version 3 of the License.
//
// Secbot is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Secbot. If not, see <https://www.gnu.org/licenses/>.

// Package defense applies confirmed indicators to the live defense
// mechanisms: an ipset address set for IPs and a Suricata rules file for
// hashes, URLs, and optionally IPs. Appliers are idempotent; re-applying an
// indicator already present in the mechanism reports it as applied.
package defense

import (
	"context"

	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
)

// Report is the per-batch outcome of one Apply call. Every routed indicator
// lands in exactly one of Applied or Failed.
type Report struct {
	Applied []ioc.Indicator
	Failed  map[string]string
}

// Ok is true when nothing in the batch failed
func (r Report) Ok() bool {
	return len(r.Failed) == 0
}

// Applier is a defense mechanism that can absorb a batch of indicators
type Applier interface {
	// Name identifies the mechanism in logs and run results
	Name() string
	// Kinds lists the indicator kinds this mechanism accepts
	Kinds() []ioc.Kind
	// Apply pushes the batch into the mechanism. The batch is atomic from
	// the caller's perspective: either all routed indicators take effect or
	// Failed enumerates exactly which did not.
	Apply(ctx context.Context, inds []ioc.Indicator) Report
}

// Route returns the subset of inds whose kind is in kinds, preserving order
func Route(inds []ioc.Indicator, kinds []ioc.Kind) (out []ioc.Indicator) {
	out = []ioc.Indicator{}
	for _, ind := range inds {
		for _, k := range kinds {
			if ind.Kind == k {
				out = append(out, ind)
				break
			}
		}
	}
	return
}

func failAll(inds []ioc.Indicator, reason string) Report {
	r := Report{Applied: []ioc.Indicator{}, Failed: map[string]string{}}
	for _, ind := range inds {
		r.Failed[ind.Key()] = reason
	}
	return r
}

func applyAll(inds []ioc.Indicator) Report {
	return Report{Applied: inds, Failed: map[string]string{}}
}
