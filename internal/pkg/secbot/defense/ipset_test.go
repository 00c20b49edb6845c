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
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/secrepublic/secbot/internal/pkg/secbot/ioc"
	log "github.com/secrepublic/secbot/internal/pkg/shared/logger"
)

func TestMain(m *testing.M) {
	log.Setup(false)
	os.Exit(m.Run())
}

type call struct {
	name  string
	args  []string
	stdin string
}

type fakeRunner struct {
	calls []call
	fail  func(name string, args []string) error
}

func (f *fakeRunner) run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args, stdin: string(stdin)})
	if f.fail != nil {
		if err := f.fail(name, args); err != nil {
			return nil, err
		}
	}
	return []byte{}, nil
}

func ip(v string) ioc.Indicator {
	return ioc.Indicator{Kind: ioc.KindIP, Value: v}
}

func hash(v string) ioc.Indicator {
	return ioc.Indicator{Kind: ioc.KindHash, Value: v}
}

func urlInd(v string) ioc.Indicator {
	return ioc.Indicator{Kind: ioc.KindURL, Value: v}
}

func newTestIpset(f *fakeRunner) *Ipset {
	return &Ipset{Bin: "/sbin/ipset", SetName: DefaultIpsetSet, Run: f.run}
}

func TestIpsetApply(t *testing.T) {
	f := &fakeRunner{}
	a := newTestIpset(f)

	rep := a.Apply(context.Background(), []ioc.Indicator{
		ip("203.0.113.7"),
		hash("d41d8cd98f00b204e9800998ecf8427e"),
		ip("198.51.100.23"),
	})
	if !rep.Ok() || len(rep.Applied) != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(f.calls) != 2 {
		t.Fatalf("expected create + restore, got %+v", f.calls)
	}
	if f.calls[0].args[0] != "create" || f.calls[0].args[len(f.calls[0].args)-1] != "-exist" {
		t.Fatalf("unexpected ensure call: %+v", f.calls[0])
	}
	if f.calls[1].args[0] != "restore" || f.calls[1].args[1] != "-!" {
		t.Fatalf("unexpected restore call: %+v", f.calls[1])
	}
	expected := "add secbot_bad_ips 203.0.113.7 -exist\nadd secbot_bad_ips 198.51.100.23 -exist\n"
	if f.calls[1].stdin != expected {
		t.Fatal("unexpected restore payload:\n" + f.calls[1].stdin)
	}
}

func TestIpsetApplyNothingRouted(t *testing.T) {
	f := &fakeRunner{}
	a := newTestIpset(f)
	rep := a.Apply(context.Background(), []ioc.Indicator{hash("d41d8cd98f00b204e9800998ecf8427e")})
	if !rep.Ok() || len(rep.Applied) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(f.calls) != 0 {
		t.Fatal("mechanism touched for an empty batch")
	}
}

func TestIpsetApplyFailure(t *testing.T) {
	f := &fakeRunner{fail: func(name string, args []string) error {
		if args[0] == "restore" {
			return errors.New("ipset v7.1: Kernel error received")
		}
		return nil
	}}
	a := newTestIpset(f)

	rep := a.Apply(context.Background(), []ioc.Indicator{ip("203.0.113.7"), ip("198.51.100.23")})
	if rep.Ok() || len(rep.Applied) != 0 {
		t.Fatalf("expected whole-batch failure, got %+v", rep)
	}
	if len(rep.Failed) != 2 {
		t.Fatalf("failed set must enumerate the whole batch: %+v", rep.Failed)
	}
	for _, reason := range rep.Failed {
		if !strings.Contains(reason, "Kernel error") {
			t.Fatal("reason not propagated: " + reason)
		}
	}
}

func TestIpsetFlush(t *testing.T) {
	f := &fakeRunner{}
	a := newTestIpset(f)
	if err := a.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	last := f.calls[len(f.calls)-1]
	if last.args[0] != "flush" || last.args[1] != DefaultIpsetSet {
		t.Fatalf("unexpected flush call: %+v", last)
	}
}
