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

// Package pipeline orchestrates the two run kinds: the digest run fetches
// content and mails the reports, the IOC run fetches its own content,
// extracts indicators, filters them against the ledger, pushes the novel
// subset into the defense mechanisms, records what stuck, and reports.
package pipeline

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/secrepublic/secbot/internal/pkg/secbot/defense"
	"github.com/secrepublic/secbot/internal/pkg/secbot/digest"
	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
	"github.com/secrepublic/secbot/internal/pkg/secbot/mailer"
	"github.com/secrepublic/secbot/internal/pkg/secbot/source"
	"github.com/secrepublic/secbot/internal/pkg/secbot/store"
	"github.com/secrepublic/secbot/internal/pkg/shared/idgen"
	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
	"github.com/secrepublic/secbot/internal/pkg/shared/retry"
)

// RunKind tags a run with its timeline
type RunKind string

const (
	// RunDigest is the content-digest timeline
	RunDigest RunKind = "digest"
	// RunIOC is the IOC/defense timeline
	RunIOC RunKind = "ioc"
)

// RunResult summarizes one finished run. It lives in memory only, the
// indicator ledger is the sole persistent state.
type RunResult struct {
	RunKind           RunKind   `json:"run_kind"`
	ID                string    `json:"run_id"`
	StartedAt         time.Time `json:"started_at"`
	ItemsFetched      int       `json:"items_fetched"`
	IndicatorsNew     int       `json:"indicators_new"`
	IndicatorsApplied int       `json:"indicators_applied"`
	IndicatorsFailed  int       `json:"indicators_failed"`
	Errors            []string  `json:"errors"`
}

// Sender is the outbound-mail surface the pipeline needs
type Sender interface {
	Send(audience mailer.Audience, subject, body string) error
}

// Runner executes digest and IOC runs against a fixed set of collaborators
type Runner struct {
	Providers []source.Provider
	Limits    map[string]int
	Extractor *ioc.Extractor
	Store     *store.Store
	Appliers  []defense.Applier
	Mail      Sender
	Retry     retry.Config

	// ApplyTimeout bounds mechanism calls once a run has started them,
	// independent of the run context so shutdown never interrupts an
	// in-flight write
	ApplyTimeout time.Duration

	now func() time.Time
}

// New returns a Runner with the default retry and apply policies
func New(providers []source.Provider, limits map[string]int, x *ioc.Extractor,
	st *store.Store, appliers []defense.Applier, mail Sender) *Runner {
	return &Runner{
		Providers:    providers,
		Limits:       limits,
		Extractor:    x,
		Store:        st,
		Appliers:     appliers,
		Mail:         mail,
		Retry:        retry.DefaultConfig(),
		ApplyTimeout: 2 * time.Minute,
		now:          time.Now,
	}
}

func (r *Runner) newResult(kind RunKind) RunResult {
	id, _ := idgen.GenerateID()
	return RunResult{
		RunKind:   kind,
		ID:        id,
		StartedAt: r.now(),
		Errors:    []string{},
	}
}

// fetchAll pulls every provider concurrently, one retry budget each.
// Failures are isolated per source: the error lands in res.Errors and the
// run continues with whatever the other sources returned.
func (r *Runner) fetchAll(ctx context.Context, res *RunResult) map[string][]source.ContentItem {
	byKind := map[string][]source.ContentItem{}
	var mu sync.Mutex

	swg := sizedwaitgroup.New(len(r.Providers))
	for _, p := range r.Providers {
		p := p
		swg.Add()
		go func() {
			defer swg.Done()
			var items []source.ContentItem
			err := retry.Do(ctx, r.Retry, func(ctx context.Context) (err error) {
				items, err = p.Fetch(ctx, r.Limits[p.Kind()])
				return
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn(log.M{Msg: "Fetch failed: " + err.Error(), RID: res.ID, Src: p.Kind()})
				res.Errors = append(res.Errors, p.Kind()+": "+err.Error())
				return
			}
			log.Info(log.M{Msg: "Fetched " + strconv.Itoa(len(items)) + " item(s)", RID: res.ID, Src: p.Kind()})
			byKind[p.Kind()] = append(byKind[p.Kind()], items...)
			res.ItemsFetched += len(items)
		}()
	}
	swg.Wait()
	sort.Strings(res.Errors)
	return byKind
}

// RunDigest fetches content and mails the news and advisory reports to both
// audiences
func (r *Runner) RunDigest(ctx context.Context) RunResult {
	res := r.newResult(RunDigest)
	log.Info(log.M{Msg: "Digest run started", RID: res.ID})

	byKind := r.fetchAll(ctx, &res)
	in := digest.Input{
		Date:       res.StartedAt,
		News:       byKind[source.NewsKind],
		Advisories: byKind[source.AdvisoryKind],
		Degraded:   append([]string{}, res.Errors...),
	}
	// the degraded-source section is operational detail, team eyes only
	custIn := in
	custIn.Degraded = nil

	// a section is only reported when its source is configured; an empty
	// fetch from a configured source still produces the "no new items" mail
	if r.hasProvider(source.NewsKind) {
		r.sendBoth(&res, digest.NewsReport, custIn, in)
	}
	if r.hasProvider(source.AdvisoryKind) {
		r.sendBoth(&res, digest.AdvisoryReport, custIn, in)
	}

	log.Info(log.M{Msg: "Digest run done, " + strconv.Itoa(res.ItemsFetched) +
		" item(s), " + strconv.Itoa(len(res.Errors)) + " error(s)", RID: res.ID})
	return res
}

func (r *Runner) hasProvider(kind string) bool {
	for _, p := range r.Providers {
		if p.Kind() == kind {
			return true
		}
	}
	return false
}

func (r *Runner) sendBoth(res *RunResult, report func(digest.Input) (string, string),
	custIn, teamIn digest.Input) {
	subject, body := report(custIn)
	if err := r.Mail.Send(mailer.AudienceCustomer, subject, body); err != nil {
		res.Errors = append(res.Errors, "mail/customer: "+err.Error())
	}
	subject, body = report(teamIn)
	if err := r.Mail.Send(mailer.AudienceTeam, subject, body); err != nil {
		res.Errors = append(res.Errors, "mail/team: "+err.Error())
	}
}

// RunIOC performs the full defense cycle. It fetches independently of any
// digest run, and only indicators confirmed applied by at least one enabled
// mechanism are recorded in the ledger.
func (r *Runner) RunIOC(ctx context.Context) RunResult {
	res := r.newResult(RunIOC)
	log.Info(log.M{Msg: "IOC run started", RID: res.ID})

	byKind := r.fetchAll(ctx, &res)
	all := []source.ContentItem{}
	for _, items := range byKind {
		all = append(all, items...)
	}

	extracted := r.Extractor.Extract(all)
	newInds := r.Store.FilterNew(extracted)
	res.IndicatorsNew = len(newInds)
	log.Info(log.M{Msg: "Extracted " + strconv.Itoa(len(extracted)) +
		" indicator(s), " + strconv.Itoa(len(newInds)) + " new", RID: res.ID})

	applied, failed := r.apply(&res, newInds)
	res.IndicatorsApplied = len(applied)
	res.IndicatorsFailed = failed

	if len(applied) > 0 {
		if err := r.Store.RecordBatch(applied, res.StartedAt); err != nil {
			log.Error(log.M{Msg: "Cannot record applied indicators: " + err.Error(), RID: res.ID})
			res.Errors = append(res.Errors, "store: "+err.Error())
		}
	}

	subject, body := digest.IOCReport(digest.Input{
		Date:       res.StartedAt,
		Indicators: applied,
		Degraded:   append([]string{}, res.Errors...),
	})
	if err := r.Mail.Send(mailer.AudienceTeam, subject, body); err != nil {
		res.Errors = append(res.Errors, "mail/team: "+err.Error())
	}

	log.Info(log.M{Msg: "IOC run done, " + strconv.Itoa(res.IndicatorsApplied) +
		" applied, " + strconv.Itoa(res.IndicatorsFailed) + " failed, " +
		strconv.Itoa(len(res.Errors)) + " error(s)", RID: res.ID})
	return res
}

// apply routes the batch through every enabled mechanism. Mechanism calls
// run on a detached context so a shutdown mid-run lets in-flight writes
// finish instead of leaving a mechanism half-updated.
func (r *Runner) apply(res *RunResult, inds []ioc.Indicator) (applied []ioc.Indicator, failed int) {
	applied = []ioc.Indicator{}
	if len(inds) == 0 || len(r.Appliers) == 0 {
		return
	}
	dctx, cancel := context.WithTimeout(context.Background(), r.ApplyTimeout)
	defer cancel()

	appliedSet := map[string]ioc.Indicator{}
	failedSet := map[string]bool{}
	for _, ap := range r.Appliers {
		routed := defense.Route(inds, ap.Kinds())
		if len(routed) == 0 {
			continue
		}
		rep := ap.Apply(dctx, routed)
		for _, ind := range rep.Applied {
			appliedSet[ind.Key()] = ind
		}
		for k := range rep.Failed {
			failedSet[k] = true
		}
		if !rep.Ok() {
			res.Errors = append(res.Errors, ap.Name()+": "+strconv.Itoa(len(rep.Failed))+" indicator(s) failed")
		}
	}

	// an indicator counts as failed only when no mechanism confirmed it
	for k := range appliedSet {
		delete(failedSet, k)
	}
	for _, ind := range appliedSet {
		applied = append(applied, ind)
	}
	sort.Slice(applied, func(i, j int) bool {
		if applied[i].Kind != applied[j].Kind {
			return applied[i].Kind < applied[j].Kind
		}
		return applied[i].Value < applied[j].Value
	})
	return applied, len(failedSet)
}
