package vectors

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m65xx/hwcheck/cpu"
)

func expectCycle(t *testing.T, c cpu.BusCycle, addr uint16, v byte, dir cpu.Direction) {
	t.Helper()
	if c.Addr != addr || c.Value != v || c.Dir != dir {
		t.Errorf("cycle incorrect. exp: $%04X $%02X %s, got: %s", addr, v, dir, c)
	}
}

func TestLoadFile(t *testing.T) {
	tests, err := LoadFile("testdata/9e.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(tests) != 2 {
		t.Fatalf("test count incorrect. exp: 2, got: %d", len(tests))
	}

	tt := tests[0]
	if tt.Name != "9e 34 12" {
		t.Errorf("name incorrect. got: %s", tt.Name)
	}
	if op, ok := tt.Opcode(); !ok || op != 0x9e {
		t.Errorf("opcode incorrect. exp: $9E, got: $%02X", op)
	}
	if tt.Initial.PC != 0x0200 || tt.Final.PC != 0x0203 {
		t.Errorf("PC incorrect. got: $%04X -> $%04X", tt.Initial.PC, tt.Final.PC)
	}
	if len(tt.Cycles) != 5 {
		t.Fatalf("cycle count incorrect. exp: 5, got: %d", len(tt.Cycles))
	}

	cycles := tt.BusCycles()
	expectCycle(t, cycles[0], 0x0200, 0x9e, cpu.Read)
	expectCycle(t, cycles[3], 0x1244, 0xaa, cpu.Read)
	expectCycle(t, cycles[4], 0x1244, 0x13, cpu.Write)
}

func TestMachine(t *testing.T) {
	tests, err := LoadFile("testdata/9e.json")
	if err != nil {
		t.Fatal(err)
	}

	m := tests[1].Initial.Machine()
	r := m.Reg
	if r.A != 0x80 || r.X != 0x0f || r.Y != 0x20 || r.SP != 0x01 || r.PC != 0x0300 {
		t.Errorf("registers incorrect. got: %s", r)
	}
	// $E7: N V I Z C
	if !r.Sign || !r.Overflow || !r.InterruptDisable || !r.Zero || !r.Carry || r.Decimal {
		t.Errorf("flags incorrect. got: %s", r.FlagString())
	}
	if v := m.Mem.LoadByte(0x1210); v != 0x55 {
		t.Errorf("memory incorrect. exp: $55, got: $%02X", v)
	}
	sm := m.Mem.(*cpu.SparseMemory)
	if sm.Len() != 5 {
		t.Errorf("populated cells incorrect. exp: 5, got: %d", sm.Len())
	}
}

func TestLoadGzip(t *testing.T) {
	src, err := os.ReadFile("testdata/9e.json")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "9e.json.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	gz.Write(src)
	gz.Close()
	f.Close()

	tests, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(tests) != 2 {
		t.Errorf("test count incorrect. exp: 2, got: %d", len(tests))
	}
}

func TestLoadErrors(t *testing.T) {
	bad := []string{
		`{"name": "not an array"}`,
		`[{"name": "x", "cycles": [[512, 158]]}]`,
		`[{"name": "x", "cycles": [[512, 158, "fetch"]]}]`,
		`[{"name": "x", "cycles": [[70000, 158, "read"]]}]`,
		`[{"name": "x", "initial": {"ram": [[512]]}}]`,
		`[{"name": "x", "initial": {"ram": [[512, 256]]}}]`,
	}
	for _, s := range bad {
		if _, err := Load(strings.NewReader(s)); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: expected ErrFormat, got: %v", s, err)
		}
	}

	if _, err := LoadFile("testdata/missing.json"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got: %v", err)
	}
}

func TestCycleMarshal(t *testing.T) {
	c := Cycle{Addr: 0x1244, Value: 0x13, Dir: cpu.Write}
	b, err := c.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[4676,19,"write"]` {
		t.Errorf("encoding incorrect. got: %s", b)
	}
}
