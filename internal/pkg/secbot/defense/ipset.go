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

package defense

import (
	"context"
	"strconv"
	"strings"

	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
	"github.com/secrepublic/secbot/internal/pkg/shared/cmdexec"
	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
)

// DefaultIpsetSet is the managed address set
const DefaultIpsetSet = "secbot_bad_ips"

// Ipset blocks IP indicators through an ipset hash:ip set. Batches go in
// via "ipset restore -!" so the live set never sees a half-applied update,
// and duplicate adds are ignored rather than failed.
type Ipset struct {
	Bin     string
	SetName string
	Run     cmdexec.Runner
}

// NewIpset returns an Ipset applier with the default binary and set name
func NewIpset() *Ipset {
	return &Ipset{
		Bin:     cmdexec.FindBin("/sbin/ipset", "ipset"),
		SetName: DefaultIpsetSet,
		Run:     cmdexec.Run,
	}
}

func (a *Ipset) Name() string {
	return "ipset"
}

func (a *Ipset) Kinds() []ioc.Kind {
	return []ioc.Kind{ioc.KindIP}
}

func (a *Ipset) ensureSet(ctx context.Context) error {
	_, err := a.Run(ctx, a.Bin, []string{"create", a.SetName, "hash:ip", "timeout", "0", "-exist"}, nil)
	return err
}

// Apply adds the batch to the set in one restore transaction
func (a *Ipset) Apply(ctx context.Context, inds []ioc.Indicator) Report {
	batch := Route(inds, a.Kinds())
	if len(batch) == 0 {
		return applyAll(batch)
	}
	if err := a.ensureSet(ctx); err != nil {
		log.Warn(log.M{Msg: "Cannot ensure ipset set " + a.SetName + ": " + err.Error()})
		return failAll(batch, err.Error())
	}

	var sb strings.Builder
	for _, ind := range batch {
		sb.WriteString("add " + a.SetName + " " + ind.Value + " -exist\n")
	}
	if _, err := a.Run(ctx, a.Bin, []string{"restore", "-!"}, []byte(sb.String())); err != nil {
		log.Warn(log.M{Msg: "ipset restore failed: " + err.Error()})
		return failAll(batch, err.Error())
	}
	log.Info(log.M{Msg: "Blocked " + strconv.Itoa(len(batch)) + " IP(s) via ipset set " + a.SetName})
	return applyAll(batch)
}

// Flush removes every entry from the managed set
func (a *Ipset) Flush(ctx context.Context) error {
	if err := a.ensureSet(ctx); err != nil {
		return err
	}
	_, err := a.Run(ctx, a.Bin, []string{"flush", a.SetName}, nil)
	return err
}
