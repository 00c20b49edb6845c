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

// Package cmdexec runs external binaries on behalf of the defense appliers.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Runner executes name with args, feeding stdin when non-nil, and returns
// combined output. Appliers hold a Runner so tests can substitute a fake.
type Runner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)

// Run is the default Runner backed by os/exec
func Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(out.String())
		if msg != "" {
			err = errors.New(err.Error() + ": " + msg)
		}
		return out.Bytes(), err
	}
	return out.Bytes(), nil
}

// FindBin returns the first name resolvable through PATH, or fallback
func FindBin(fallback string, names ...string) string {
	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			return p
		}
	}
	return fallback
}
