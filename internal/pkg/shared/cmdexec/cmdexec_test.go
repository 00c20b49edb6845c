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

package cmdexec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	out, err := Run(context.Background(), "echo", []string{"hello"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Fatal("unexpected output: " + string(out))
	}
}

func TestRunStdin(t *testing.T) {
	out, err := Run(context.Background(), "cat", nil, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "payload" {
		t.Fatal("unexpected output: " + string(out))
	}
}

func TestRunFailure(t *testing.T) {
	if _, err := Run(context.Background(), "false", nil, nil); err == nil {
		t.Fatal("expected error from failing command")
	}
	if _, err := Run(context.Background(), "/nonexistent/bin", nil, nil); err == nil {
		t.Fatal("expected error from missing binary")
	}
}

func TestRunContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := Run(ctx, "sleep", []string{"5"}, nil); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFindBin(t *testing.T) {
	if p := FindBin("/bin/fallback", "definitely-not-a-binary-xyz"); p != "/bin/fallback" {
		t.Fatal("expected fallback, got " + p)
	}
	if p := FindBin("/bin/fallback", "definitely-not-a-binary-xyz", "sh"); p == "/bin/fallback" {
		t.Fatal("expected sh to resolve through PATH")
	}
}
