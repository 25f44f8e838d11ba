// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu models the bit-level arithmetic and addressing behavior of the
// 6502 and 65c02 that emulators most often get wrong: ADC and SBC in decimal
// mode, and the unstable SHA/TAS/SHY/SHX stores whose effective address is
// corrupted when indexing crosses a page.
//
// Everything in this package is a pure function over explicit values. The
// caller owns registers and memory; each call receives a snapshot and
// returns a new one.
package cpu

import (
	"fmt"
	"strings"
)

// Architecture selects the CPU chip: 6502 or 65c02
type Architecture byte

const (
	// NMOS 6502 CPU
	NMOS Architecture = iota

	// CMOS 65c02 CPU
	CMOS
)

// Architectures lists every supported architecture.
var Architectures = []Architecture{NMOS, CMOS}

func (a Architecture) String() string {
	switch a {
	case NMOS:
		return "6502"
	case CMOS:
		return "65c02"
	default:
		return fmt.Sprintf("Architecture(%d)", byte(a))
	}
}

// ParseArchitecture converts a chip name into an Architecture. It accepts
// "6502" or "nmos" for the NMOS chip and "65c02" or "cmos" for the CMOS
// chip, ignoring case.
func ParseArchitecture(s string) (Architecture, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "6502", "nmos":
		return NMOS, nil
	case "65c02", "cmos":
		return CMOS, nil
	}
	return NMOS, fmt.Errorf("unknown architecture '%s'", s)
}
