package host

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m65xx/hwcheck/cpu"
)

func runScript(t *testing.T, h *Host, script string) string {
	t.Helper()
	var out bytes.Buffer
	h.RunCommands(strings.NewReader(script), &out, false)
	return out.String()
}

func expectOutput(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("output missing '%s'. got:\n%s", want, out)
	}
}

func TestDecimalADC(t *testing.T) {
	h := New()
	out := runScript(t, h, `
		set a $58
		set carry 1
		set decimal 1
		adc $46
	`)

	if h.reg.A != 0x05 {
		t.Errorf("A incorrect. exp: $05, got: $%02X", h.reg.A)
	}
	if !h.reg.Carry {
		t.Error("carry should be set")
	}
	expectOutput(t, out, "ADC $46")
}

func TestArchitectureSetting(t *testing.T) {
	h := New()
	runScript(t, h, `
		set arch 65c02
		set a $99
		set decimal 1
		adc 1
	`)

	if h.arch != cpu.CMOS {
		t.Fatalf("architecture incorrect. got: %s", h.arch)
	}
	if h.reg.A != 0x00 || !h.reg.Zero || h.reg.Sign || !h.reg.Carry {
		t.Errorf("result incorrect. got: %s", h.reg)
	}
}

func TestInvalidSetting(t *testing.T) {
	h := New()
	out := runScript(t, h, "set arch z80\nset loglevel loud\nset nonsense 1\n")

	expectOutput(t, out, "unknown architecture")
	expectOutput(t, out, "not found")
	if h.settings.Arch != "6502" || h.arch != cpu.NMOS {
		t.Errorf("architecture changed to %s", h.settings.Arch)
	}
	if h.settings.LogLevel != "info" {
		t.Errorf("log level changed to %s", h.settings.LogLevel)
	}
}

func TestSettings(t *testing.T) {
	h := New()
	runScript(t, h, "set hexmode true\nset maxmismatches 5\nset memdumpbytes 20\n")

	if !h.settings.HexMode {
		t.Error("hex mode should be set")
	}
	if h.settings.MaxMismatches != 5 {
		t.Errorf("MaxMismatches incorrect. exp: 5, got: %d", h.settings.MaxMismatches)
	}
	// Hex mode was on when 20 was parsed.
	if h.settings.MemDumpBytes != 0x20 {
		t.Errorf("MemDumpBytes incorrect. exp: 32, got: %d", h.settings.MemDumpBytes)
	}
}

func TestStore(t *testing.T) {
	h := New()
	out := runScript(t, h, `
		memory set $0200 $9e $34 $12
		set pc $0200
		set x $ff
		set y $10
		store $9e
	`)

	if v := h.mem.LoadByte(0x1244); v != 0x13 {
		t.Errorf("stored value incorrect. exp: $13, got: $%02X", v)
	}
	if h.reg.PC != 0x0203 {
		t.Errorf("PC incorrect. exp: $0203, got: $%04X", h.reg.PC)
	}
	expectOutput(t, out, "0200-   9E 34 12    SHX $1234,Y")
	expectOutput(t, out, "$1244 $13 write")
}

func TestStoreRefused(t *testing.T) {
	h := New()
	out := runScript(t, h, "store $9e\nstore $ea\nset arch cmos\nstore $9e\n")

	expectOutput(t, out, "not opcode $9E")
	expectOutput(t, out, "Opcode $EA is not an unstable store")
	expectOutput(t, out, "exist only on the 6502")
}

func TestStoreList(t *testing.T) {
	h := New()
	out := runScript(t, h, "store\n")
	expectOutput(t, out, "$93  SHA (zp),Y   6 cycles")
	expectOutput(t, out, "$9B  TAS abs,Y    5 cycles")
}

func TestMemory(t *testing.T) {
	h := New()
	out := runScript(t, h, "memory set $0200 $9e $34 $12\nmemory dump $0200 3\n")
	expectOutput(t, out, "0200- 9E 34 12")

	out = runScript(t, h, "memory dump $01fe 10\nm\n")
	expectOutput(t, out, "01F8-                   00 00         ..")
	expectOutput(t, out, "0200- 9E 34 12 00 00 00 00 00")
	expectOutput(t, out, "0208- 00 00 00 00 00 00 00 00")

	out = runScript(t, h, "memory set $fffe $41 $42\nmemory dump $fffe 2\n")
	expectOutput(t, out, "FFFE- 41 42")
	expectOutput(t, out, "AB")
}

func TestMemoryDumpRepeat(t *testing.T) {
	h := New()
	h.mem.StoreBytes(0x0300, []byte{0x11, 0x22, 0x33, 0x44})

	var out bytes.Buffer
	h.RunCommands(strings.NewReader("memory dump $0300 2\n\n"), &out, true)
	expectOutput(t, out.String(), "0300- 11 22")
	expectOutput(t, out.String(), "0302- 33 44")
}

func TestGenerateAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adc_sbc.dat")

	h := New()
	out := runScript(t, h, "set arch 65c02\ngenerate "+path+"\nverify alu "+path+"\n")

	expectOutput(t, out, "Wrote 1048576 bytes")
	expectOutput(t, out, "Matches the 65c02 hardware capture.")
	expectOutput(t, out, "Dump is identical to the 65c02 model output.")
	expectOutput(t, out, "65c02 ADC/SBC: 524288 cases passed")

	out = runScript(t, h, "set arch 6502\nverify alu "+path+"\n")
	expectOutput(t, out, "Dump matches the 65c02 hardware capture.")
	expectOutput(t, out, "cases failed")
	if strings.Contains(out, "identical to the 6502 model") {
		t.Error("65c02 dump reported identical to the 6502 model")
	}
}

func TestVerifyStore(t *testing.T) {
	h := New()
	out := runScript(t, h, "verify store ../vectors/testdata/9e.json\n")
	expectOutput(t, out, "SHX abs,Y: 2 cases passed")

	out = runScript(t, h, "verify store ../vectors/testdata/9e.json $9c\n")
	expectOutput(t, out, "different opcode")
}

func TestDiscriminate(t *testing.T) {
	h := New()
	out := runScript(t, h, "discriminate 1\n")
	expectOutput(t, out, "ADC:")
	expectOutput(t, out, "SBC:")
	expectOutput(t, out, "65c02:")
}

func TestHelp(t *testing.T) {
	h := New()
	out := runScript(t, h, "help\nhelp adc\nhelp memory\nhelp register\nhelp bogus\n")
	expectOutput(t, out, "hwcheck commands:")
	expectOutput(t, out, "Usage: adc <operand>")
	expectOutput(t, out, "memory commands:")
	expectOutput(t, out, "Shortcuts: ., r")
	expectOutput(t, out, "Command not found.")
}

func TestCommandLookup(t *testing.T) {
	h := New()
	out := runScript(t, h, "memory\ns\nbogus\nadc\nr\n")
	expectOutput(t, out, "memory commands:")
	expectOutput(t, out, "dump")
	expectOutput(t, out, "Command is ambiguous.")
	expectOutput(t, out, "Command not found.")
	expectOutput(t, out, "Usage: adc <operand>")
	expectOutput(t, out, "(6502)")
}

func TestQuit(t *testing.T) {
	h := New()
	var out bytes.Buffer
	if h.RunCommands(strings.NewReader("quit\nset a 1\n"), &out, false) {
		t.Error("quit should stop the host")
	}
	if h.reg.A != 0 {
		t.Error("commands after quit should not run")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		s   string
		hex bool
		v   uint32
	}{
		{"$ff", false, 0xff},
		{"0x10", false, 0x10},
		{"%101", false, 5},
		{"10", false, 10},
		{"10", true, 0x10},
		{"$10", true, 0x10},
	}
	for _, tt := range tests {
		v, err := parseNumber(tt.s, tt.hex)
		if err != nil || v != tt.v {
			t.Errorf("parse '%s' incorrect. exp: %d, got: %d (%v)", tt.s, tt.v, v, err)
		}
	}

	if _, err := parseNumber("zz", false); err == nil {
		t.Error("expected an error")
	}
	if _, err := parseByte("$100", false); err == nil {
		t.Error("expected an out of range error")
	}
}
