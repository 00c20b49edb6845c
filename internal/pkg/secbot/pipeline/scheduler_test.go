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
	"testing"
	"time"
)

func at(day, hour, min int) time.Time {
	return time.Date(2026, 8, day, hour, min, 0, 0, time.UTC)
}

// waitJob gives deterministic visibility into job launches
type waitJob struct {
	started chan struct{}
	release chan struct{}
}

func newWaitJob() *waitJob {
	return &waitJob{started: make(chan struct{}, 10), release: make(chan struct{})}
}

func (j *waitJob) run(ctx context.Context) {
	j.started <- struct{}{}
	<-j.release
}

func (j *waitJob) expectStart(t *testing.T) {
	t.Helper()
	select {
	case <-j.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not start")
	}
}

func (j *waitJob) expectNoStart(t *testing.T) {
	t.Helper()
	select {
	case <-j.started:
		t.Fatal("job started unexpectedly")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIOCTimelineFiresOnce(t *testing.T) {
	job := newWaitJob()
	close(job.release)
	s := NewScheduler(nil, "10:00", nil, job.run)

	ctx := context.Background()
	s.tick(ctx, at(24, 9, 59))
	job.expectNoStart(t)

	s.tick(ctx, at(24, 10, 0))
	job.expectStart(t)

	s.tick(ctx, at(24, 10, 1))
	s.tick(ctx, at(24, 23, 59))
	job.expectNoStart(t)
}

func TestTimelineResetsAtMidnight(t *testing.T) {
	job := newWaitJob()
	close(job.release)
	s := NewScheduler([]string{"10:00"}, "", job.run, nil)

	ctx := context.Background()
	s.tick(ctx, at(24, 10, 0))
	job.expectStart(t)
	s.tick(ctx, at(24, 18, 0))
	job.expectNoStart(t)

	s.tick(ctx, at(25, 9, 0))
	job.expectNoStart(t)
	s.tick(ctx, at(25, 10, 0))
	job.expectStart(t)
}

func TestMissedTriggerFiresOnNextTick(t *testing.T) {
	job := newWaitJob()
	close(job.release)
	s := NewScheduler(nil, "10:00", nil, job.run)

	// first tick of the day is already past the trigger
	s.tick(context.Background(), at(24, 14, 30))
	job.expectStart(t)
	s.tick(context.Background(), at(24, 14, 31))
	job.expectNoStart(t)
}

func TestOverlappingTriggerIsSkippedNotQueued(t *testing.T) {
	job := newWaitJob()
	s := NewScheduler([]string{"10:00", "10:05"}, "", job.run, nil)

	ctx := context.Background()
	s.tick(ctx, at(24, 10, 0))
	job.expectStart(t)

	// second trigger while the first run is still busy: skipped, marked fired
	s.tick(ctx, at(24, 10, 5))
	job.expectNoStart(t)

	close(job.release)
	// give the first run a moment to finish, then revalidate: no refire
	time.Sleep(50 * time.Millisecond)
	s.tick(ctx, at(24, 10, 6))
	job.expectNoStart(t)
}

func TestNoNewRunsAfterShutdown(t *testing.T) {
	job := newWaitJob()
	close(job.release)
	s := NewScheduler(nil, "10:00", nil, job.run)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.tick(ctx, at(24, 10, 0))
	job.expectNoStart(t)
}

func TestIndependentTimelines(t *testing.T) {
	digestJob := newWaitJob()
	close(digestJob.release)
	iocJob := newWaitJob()
	close(iocJob.release)
	s := NewScheduler([]string{"06:00"}, "10:00", digestJob.run, iocJob.run)

	ctx := context.Background()
	s.tick(ctx, at(24, 6, 0))
	digestJob.expectStart(t)
	iocJob.expectNoStart(t)

	s.tick(ctx, at(24, 10, 0))
	iocJob.expectStart(t)
	digestJob.expectNoStart(t)
}
