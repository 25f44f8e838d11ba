package cpu_test

import (
	"slices"
	"testing"

	"github.com/m65xx/hwcheck/cpu"
)

func TestFlatMemory(t *testing.T) {
	m := cpu.NewFlatMemory()
	m.StoreBytes(0xfffe, []byte{0x11, 0x22, 0x33})

	b := make([]byte, 3)
	m.LoadBytes(0xfffe, b)
	if !slices.Equal(b, []byte{0x11, 0x22, 0x33}) {
		t.Errorf("wrapped load incorrect. got: % X", b)
	}
	if m.LoadByte(0x0000) != 0x33 {
		t.Errorf("store did not wrap to $0000")
	}

	c := m.Clone()
	c.StoreByte(0xfffe, 0x99)
	if m.LoadByte(0xfffe) != 0x11 {
		t.Errorf("store to clone visible in original")
	}
}

func TestSparseMemory(t *testing.T) {
	m := cpu.NewSparseMemory()
	m.StoreByte(0x2000, 0x01)
	m.StoreByte(0x0010, 0x02)
	m.StoreByte(0xff00, 0x03)

	if got := m.Addrs(); !slices.Equal(got, []uint16{0x0010, 0x2000, 0xff00}) {
		t.Errorf("Addrs incorrect. got: %04X", got)
	}
	if v, ok := m.Lookup(0x1234); ok || v != 0 || m.LoadByte(0x1234) != 0 {
		t.Errorf("unpopulated address should load as zero")
	}
	if m.Len() != 3 {
		t.Errorf("loading an address should not populate it")
	}

	s := cpu.MachineState{Mem: m}
	c := s.Clone()
	c.Mem.StoreByte(0x2000, 0x7f)
	c.Mem.StoreByte(0x3000, 0x7f)
	if m.LoadByte(0x2000) != 0x01 || m.Len() != 3 {
		t.Errorf("store to clone visible in original")
	}
}

func TestStatusByte(t *testing.T) {
	var r cpu.Registers
	r.Init()
	if ps := r.SavePS(false); ps != cpu.ReservedBit {
		t.Errorf("initial status incorrect. exp: $20, got: $%02X", ps)
	}

	r.RestorePS(0xcb)
	if !r.Sign || !r.Overflow || !r.Decimal || !r.Zero || !r.Carry || r.InterruptDisable {
		t.Errorf("RestorePS($CB) incorrect: %s", r.FlagString())
	}
	if ps := r.SavePS(true); ps != 0xfb {
		t.Errorf("SavePS incorrect. exp: $FB, got: $%02X", ps)
	}
	if s := r.FlagString(); s != "NV--D-ZC" {
		t.Errorf("FlagString incorrect. exp: NV--D-ZC, got: %s", s)
	}
}

func TestApplyALU(t *testing.T) {
	r := cpu.Registers{A: 0x12, X: 0x34, Decimal: true, InterruptDisable: true}
	r.ApplyALU(cpu.ALUResult{A: 0x05, Negative: true, Carry: true})
	want := cpu.Registers{A: 0x05, X: 0x34, Decimal: true, InterruptDisable: true, Sign: true, Carry: true}
	if r != want {
		t.Errorf("registers incorrect. exp: %v, got: %v", want, r)
	}
}
