// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strconv"
	"strings"
)

func codeString(b []byte) string {
	switch len(b) {
	case 1:
		return fmt.Sprintf("%02X", b[0])
	case 2:
		return fmt.Sprintf("%02X %02X", b[0], b[1])
	case 3:
		return fmt.Sprintf("%02X %02X %02X", b[0], b[1], b[2])
	default:
		return ""
	}
}

// parseNumber parses a number written as $hex, 0xhex, %binary or decimal.
// In hex mode, numbers without a prefix are hexadecimal.
func parseNumber(s string, hexMode bool) (uint32, error) {
	t, base := s, 10
	switch {
	case strings.HasPrefix(t, "$"):
		t, base = t[1:], 16
	case strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X"):
		t, base = t[2:], 16
	case strings.HasPrefix(t, "%"):
		t, base = t[1:], 2
	case hexMode:
		base = 16
	}

	v, err := strconv.ParseUint(t, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s'", s)
	}
	return uint32(v), nil
}

func parseByte(s string, hexMode bool) (byte, error) {
	v, err := parseNumber(s, hexMode)
	if err != nil {
		return 0, err
	}
	if v > 0xff {
		return 0, fmt.Errorf("value '%s' does not fit in a byte", s)
	}
	return byte(v), nil
}

func parseAddr(s string, hexMode bool) (uint16, error) {
	v, err := parseNumber(s, hexMode)
	if err != nil {
		return 0, err
	}
	if v > 0xffff {
		return 0, fmt.Errorf("address '%s' out of range", s)
	}
	return uint16(v), nil
}

func stringToBool(s string) (bool, error) {
	s = strings.ToLower(s)
	switch s {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

var hexString = "0123456789ABCDEF"

func addrToBuf(addr uint16, b []byte) {
	b[0] = hexString[(addr>>12)&0xf]
	b[1] = hexString[(addr>>8)&0xf]
	b[2] = hexString[(addr>>4)&0xf]
	b[3] = hexString[addr&0xf]
}

func byteToBuf(v byte, b []byte) {
	b[0] = hexString[(v>>4)&0xf]
	b[1] = hexString[v&0xf]
}

func toPrintableChar(v byte) byte {
	switch {
	case v >= 32 && v < 127:
		return v
	case v >= 160 && v < 255:
		return v - 128
	default:
		return '.'
	}
}
