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

// Package server exposes the optional status HTTP endpoint: a liveness
// probe and a summary of recent runs. It reflects process liveness only,
// pipeline health is reported through the digest instead.
package server

import (
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/buaazp/fasthttprouter"
	rc "github.com/paulbellamy/ratecounter"
	"github.com/valyala/fasthttp"

	"github.com/secrepublic/secbot/internal/pkg/secbot/pipeline"
	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
)

const maxResults = 20

var (
	rateCounter *rc.RateCounter
	startTime   time.Time

	mu      sync.RWMutex
	results []pipeline.RunResult
)

// AddResult records a finished run for the /status endpoint, keeping the
// most recent ones
func AddResult(r pipeline.RunResult) {
	mu.Lock()
	defer mu.Unlock()
	results = append(results, r)
	if len(results) > maxResults {
		results = results[len(results)-maxResults:]
	}
}

type statusPayload struct {
	UpSince     string               `json:"up_since"`
	UptimeSec   int64                `json:"uptime_sec"`
	RequestRate int64                `json:"request_rate_per_sec"`
	Runs        []pipeline.RunResult `json:"runs"`
}

func counted(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		rateCounter.Incr(1)
		h(ctx)
	}
}

func handleHealthcheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	_, _ = ctx.WriteString("ok\n")
}

func handleStatus(ctx *fasthttp.RequestCtx) {
	mu.RLock()
	p := statusPayload{
		UpSince:     startTime.UTC().Format(time.RFC3339),
		UptimeSec:   int64(time.Since(startTime).Seconds()),
		RequestRate: rateCounter.Rate(),
		Runs:        append([]pipeline.RunResult{}, results...),
	}
	mu.RUnlock()
	b, err := json.Marshal(p)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	_, _ = ctx.Write(b)
}

// Start blocks serving the status endpoint on addr:port
func Start(addr string, port int) error {
	if a := net.ParseIP(addr); a == nil {
		return errors.New(addr + " is not a valid IP address")
	}
	if port < 1 || port > 65535 {
		return errors.New("invalid TCP port number")
	}
	rateCounter = rc.NewRateCounter(1 * time.Second)
	startTime = time.Now()
	p := strconv.Itoa(port)

	router := fasthttprouter.New()
	router.GET("/healthcheck", counted(handleHealthcheck))
	router.GET("/status", counted(handleStatus))

	log.Info(log.M{Msg: "Status server listening on " + addr + ":" + p})
	return fasthttp.ListenAndServe(addr+":"+p, router.Handler)
}
