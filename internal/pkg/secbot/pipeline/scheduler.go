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

package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
)

const defaultTick = 30 * time.Second

// Scheduler drives the two daily timelines. Each configured (date, HH:MM)
// pair fires at most once: a trigger whose time has passed fires on the
// next tick, and once marked it never refires that day. Fired state lives
// in memory only; after a restart that crosses a trigger time the run may
// fire once more, which is harmless since defense application is
// idempotent.
type Scheduler struct {
	CronTimes []string
	IOCTime   string
	DigestJob func(ctx context.Context)
	IOCJob    func(ctx context.Context)
	Tick      time.Duration

	now        func() time.Time
	fired      map[string]bool
	firedDate  string
	digestBusy int32
	iocBusy    int32
}

// NewScheduler wires the two timelines to their jobs
func NewScheduler(cronTimes []string, iocTime string,
	digestJob, iocJob func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		CronTimes: cronTimes,
		IOCTime:   iocTime,
		DigestJob: digestJob,
		IOCJob:    iocJob,
		Tick:      defaultTick,
		now:       time.Now,
		fired:     map[string]bool{},
	}
}

// Start blocks, ticking until ctx is canceled. No new run starts after
// cancellation; runs already started finish on their own contexts.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info(log.M{Msg: "Scheduler started, digest at " + joinTimes(s.CronTimes) +
		", IOC at " + s.IOCTime})
	ticker := time.NewTicker(s.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info(log.M{Msg: "Scheduler stopped"})
			return
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

func joinTimes(times []string) (s string) {
	for i, t := range times {
		if i > 0 {
			s += ","
		}
		s += t
	}
	return
}

// tick evaluates both timelines against now
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	date := now.Format("2006-01-02")
	if date != s.firedDate {
		s.fired = map[string]bool{}
		s.firedDate = date
	}
	hhmm := now.Format("15:04")

	for _, t := range s.CronTimes {
		if s.due(t, hhmm, "digest") {
			s.launch(ctx, "digest", &s.digestBusy, s.DigestJob)
		}
	}
	if s.due(s.IOCTime, hhmm, "ioc") {
		s.launch(ctx, "ioc", &s.iocBusy, s.IOCJob)
	}
}

// due marks the trigger fired when its time has been reached today.
// HH:MM strings compare correctly as strings.
func (s *Scheduler) due(trigger, hhmm, timeline string) bool {
	if trigger == "" || hhmm < trigger {
		return false
	}
	key := timeline + "@" + trigger
	if s.fired[key] {
		return false
	}
	s.fired[key] = true
	return true
}

// launch starts the job unless the same timeline is still running, in
// which case the trigger is skipped outright, not queued
func (s *Scheduler) launch(ctx context.Context, timeline string, busy *int32, job func(ctx context.Context)) {
	if ctx.Err() != nil {
		return
	}
	if !atomic.CompareAndSwapInt32(busy, 0, 1) {
		log.Warn(log.M{Msg: "Previous " + timeline + " run still in progress, skipping trigger"})
		return
	}
	go func() {
		defer atomic.StoreInt32(busy, 0)
		job(ctx)
	}()
}
