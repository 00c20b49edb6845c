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

// Package retry centralizes the bounded retry-with-backoff policy used for
// every network fetch and mechanism invocation. Errors are classified as
// transient (worth retrying) or permanent (surfaced immediately); unclassified
// errors retry, since the common case is a network blip.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Error wraps an underlying error with its retry classification.
type Error struct {
	Err       error
	Transient bool
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient marks err as retryable
func Transient(err error) error {
	return &Error{Err: err, Transient: true}
}

// Permanent marks err as not retryable
func Permanent(err error) error {
	return &Error{Err: err, Transient: false}
}

// IsPermanent reports whether err was explicitly marked permanent
func IsPermanent(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return !re.Transient
	}
	return false
}

// Config defines the retry budget
type Config struct {
	Attempts int           // total attempts including the first
	Delay    time.Duration // delay before the first retry
	Backoff  float64       // delay multiplier after each failure
	Jitter   float64       // random +-jitter*delay offset
}

// DefaultConfig mirrors the bot's historical 3x / 1s / x2 policy.
func DefaultConfig() Config {
	return Config{Attempts: 3, Delay: time.Second, Backoff: 2.0, Jitter: 0.2}
}

// Do runs op until it succeeds, returns a permanent error, or the attempt
// budget is spent. The last error is returned as-is so callers can still
// inspect its classification.
func Do(ctx context.Context, cfg Config, op func(context.Context) error) (err error) {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	delay := cfg.Delay
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil || IsPermanent(err) || attempt >= cfg.Attempts {
			return
		}
		sleep := delay
		if cfg.Jitter > 0 {
			offset := (rand.Float64()*2 - 1) * cfg.Jitter * float64(delay)
			sleep += time.Duration(offset)
		}
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		delay = time.Duration(float64(delay) * cfg.Backoff)
	}
}
