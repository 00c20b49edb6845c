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

package ip

import (
	"errors"
	"net"

	"github.com/yl2chen/cidranger"
)

var ranger cidranger.Ranger

// Ranges that never belong in a public blocklist: RFC 1918, loopback,
// link-local, CGN, multicast and future-use space. Documentation ranges
// (TEST-NET) are deliberately not listed; threat reports use them for
// real-world examples and sanitized C2 addresses.
var reservedBlocks = []string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

func init() {
	ranger = cidranger.NewPCTrieRanger()
	for _, cidr := range reservedBlocks {
		_, block, _ := net.ParseCIDR(cidr)
		ranger.Insert(cidranger.NewBasicRangerEntry(*block))
	}
}

// IsPrivateIP check if IP is in a private or reserved range
func IsPrivateIP(ip string) (bool, error) {
	ipn := net.ParseIP(ip)
	if ipn == nil {
		return false, errors.New(ip + " is not a valid IP address")
	}
	return ranger.Contains(ipn)
}
