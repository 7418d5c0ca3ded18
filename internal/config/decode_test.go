package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "fpgatrace/internal/common"
	"fpgatrace/internal/trc"
	"fpgatrace/tests/helpers"
)

func minimalBuilder() *helpers.ConfigBuilder {
	cb := &helpers.ConfigBuilder{}
	cb.Port(1, 8, 1, helpers.CompNone)
	cb.MessageTracer(0, 1)
	return cb
}

// fullBuilder exercises every section.
func fullBuilder() *helpers.ConfigBuilder {
	cb := &helpers.ConfigBuilder{}
	cb.Port(1, 32, 2, helpers.CompDiff)
	cb.Port(2, 4, 3, helpers.CompTrim) // too narrow, decoded as none
	cb.Port(3, 16, 4, helpers.CompXor)
	cb.Port(4, 1, 4, helpers.CompNone)
	cb.Port(5, 8, 1, helpers.CompNone)

	cb.TriggerEvent(7, 3, false, int(CompareEqual))
	cb.TriggerEvent(8, 2, true, int(CompareOutside))
	cb.TriggerDefaults(0x34, 0x12, 0xA5)
	cb.Trigger(1, 2, int(TriggerTypeStop), int(TriggerModeCenter))

	cb.InstTracer(1, 2, 2, true, 5, 5)
	cb.MemTracer([]int{3}, 5, 4, 0, 3, true)
	cb.MessageTracer(1, 5)
	cb.MessageTracer(4, 3, 4)

	cb.Flags(4, true, true)
	cb.ICE(16, 8)
	return cb
}

func mustDecode(t *testing.T, blob []byte) *Config {
	t.Helper()
	cfg, err := Decode(blob, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return cfg
}

func TestDecodeMinimal(t *testing.T) {
	cfg := mustDecode(t, minimalBuilder().Bytes())

	if len(cfg.Ports()) != 1 || len(cfg.Tracers()) != 1 {
		t.Fatalf("ports %d, tracers %d", len(cfg.Ports()), len(cfg.Tracers()))
	}
	sys := cfg.SystemTracer()
	if sys.Inputs() != 1 || sys.Ports()[0].Width != 8 {
		t.Errorf("system tracer = %+v", sys)
	}
	if cfg.TimeBits() != 1 || cfg.CycleAccurate() || cfg.InformTrigger() {
		t.Errorf("flags: timeBits %d, ca %v, inform %v", cfg.TimeBits(), cfg.CycleAccurate(), cfg.InformTrigger())
	}
	if cfg.ICE().Count() != 0 || len(cfg.TriggerEvents()) != 0 {
		t.Error("unexpected triggers or ICE registers")
	}
}

func TestDecodeShortInputIsPadded(t *testing.T) {
	enc := minimalBuilder().Encoded()
	cfg := mustDecode(t, enc)
	if len(cfg.MessageTracers()) != 1 {
		t.Errorf("message tracers = %d", len(cfg.MessageTracers()))
	}
}

type portView struct {
	ID, Width, Inputs int
	Comp              string
}

func TestDecodeFull(t *testing.T) {
	cfg := mustDecode(t, fullBuilder().Bytes())

	var ports []portView
	for _, p := range cfg.Ports() {
		ports = append(ports, portView{p.ID, p.Width, p.Inputs, p.Compression.String()})
	}
	wantPorts := []portView{
		{1, 32, 2, "diff"},
		{2, 4, 3, "none"},
		{3, 16, 4, "xor"},
		{4, 1, 4, "none"},
		{5, 8, 1, "none"},
	}
	if diff := cmp.Diff(wantPorts, ports); diff != "" {
		t.Errorf("ports mismatch (-want +got):\n%s", diff)
	}

	inst := cfg.InstTracers()[0]
	if inst.AddrPort().ID != 1 || inst.BranchPort().ID != 5 || inst.Priority() != 2 ||
		inst.HistoryBytes() != 2 || !inst.History() || !inst.LSEncoder() || inst.CounterBits() != 5 {
		t.Errorf("inst tracer decoded wrong: %+v", inst)
	}

	mem := cfg.MemTracers()[0]
	if len(mem.AddrPorts()) != 1 || mem.AddrPorts()[0].ID != 3 || mem.DataPort().ID != 5 ||
		mem.RWPort().ID != 4 || mem.SourcePort() != nil || mem.Priority() != 3 || !mem.CollectValue() {
		t.Errorf("mem tracer decoded wrong: %+v", mem)
	}

	var kinds []string
	var inputs []int
	var prios []int
	for _, tr := range cfg.Tracers() {
		kinds = append(kinds, tr.Kind().String())
		inputs = append(inputs, tr.Inputs())
		prios = append(prios, tr.Priority())
	}
	if diff := cmp.Diff([]string{"inst", "mem", "message", "message"}, kinds); diff != "" {
		t.Errorf("tracer order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 1, 1, 4}, inputs); diff != "" {
		t.Errorf("tracer inputs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3, 1, 4}, prios); diff != "" {
		t.Errorf("tracer priorities (-want +got):\n%s", diff)
	}
	if cfg.TotalInputs() != 8 {
		t.Errorf("TotalInputs = %d", cfg.TotalInputs())
	}
	if len(cfg.SystemTracer().Ports()) != 2 {
		t.Error("system tracer is not the last message tracer")
	}

	ev, ok := cfg.TriggerEvent(7)
	if !ok || ev.CompareOp() != CompareEqual || ev.RegsWidth() != 16 || ev.Default().Hex() != "1234" {
		t.Errorf("event 7 = %v", ev)
	}
	ev, ok = cfg.TriggerEvent(8)
	two, isTwo := ev.(*TwoRegistersEvent)
	if !ok || !isTwo || two.Op() != CompareOutside || ev.RegsWidth() != 8 || ev.Default().Hex() != "a5" {
		t.Errorf("event 8 = %v", ev)
	}
	if _, ok := cfg.TriggerEvent(99); ok {
		t.Error("unknown event found")
	}

	wantTriggers := []Trigger{{ID: 1, Type: TriggerTypeStop, Mode: TriggerModeCenter, Events: 2}}
	if diff := cmp.Diff(wantTriggers, cfg.Triggers()); diff != "" {
		t.Errorf("triggers (-want +got):\n%s", diff)
	}

	if cfg.TimeBits() != 4 || !cfg.CycleAccurate() || !cfg.InformTrigger() {
		t.Errorf("flags: timeBits %d, ca %v, inform %v", cfg.TimeBits(), cfg.CycleAccurate(), cfg.InformTrigger())
	}
	ice := cfg.ICE()
	if ice.Count() != 2 || ice.Width(0) != 16 || ice.Width(1) != 8 || ice.Width(2) != -1 ||
		ice.MaxWidth() != 16 || ice.SumWidth() != 24 {
		t.Errorf("ICE = %+v", ice)
	}
}

func TestPortFieldLayout(t *testing.T) {
	tests := []struct {
		width      int
		comp       Compression
		low, compr int
		lengthBits int
		compressed bool
		wantComp   Compression
	}{
		{8, CompressionNone, 8, 0, 0, false, CompressionNone},
		{7, CompressionDiff, 7, 0, 0, false, CompressionNone},
		{8, CompressionDiff, 0, 8, 1, true, CompressionDiff},
		{12, CompressionXor, 4, 8, 1, true, CompressionXor},
		{32, CompressionTrim, 0, 32, 3, true, CompressionTrim},
		{24, CompressionDiff, 0, 24, 2, true, CompressionDiff},
	}
	for _, tt := range tests {
		p := newPort(1, tt.width, 1, tt.comp)
		got := []int{p.LowBits(), p.CompressedBits(), p.LengthBits()}
		want := []int{tt.low, tt.compr, tt.lengthBits}
		if diff := cmp.Diff(want, got); diff != "" || p.Compressed() != tt.compressed || p.Compression != tt.wantComp {
			t.Errorf("width %d %s: layout (-want +got):\n%s compressed=%v comp=%s", tt.width, tt.comp, diff, p.Compressed(), p.Compression)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	short := bytes.Repeat([]byte{0xFF}, trc.ConfigLength)
	copy(short, []byte{1, 255, 7, 1, 0, 0, 0, 0, 255})

	tests := []struct {
		name    string
		blob    func() []byte
		code    trc.Err
		section trc.Section
	}{
		{
			name:    "empty",
			blob:    func() []byte { return nil },
			code:    trc.ErrCfgEmpty,
			section: trc.SectionNone,
		},
		{
			name:    "oversized",
			blob:    func() []byte { return make([]byte, trc.ConfigLength+1) },
			code:    trc.ErrCfgOversized,
			section: trc.SectionNone,
		},
		{
			name: "no system tracer",
			blob: func() []byte {
				cb := &helpers.ConfigBuilder{}
				cb.Port(1, 8, 1, helpers.CompNone)
				cb.InstTracer(1, 0, 0, false, 4, helpers.NoPort)
				return cb.Bytes()
			},
			code:    trc.ErrCfgNoSystemTracer,
			section: trc.SectionMessage,
		},
		{
			name: "trigger event port",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.TriggerEvent(1, 9, false, 0)
				return cb.Bytes()
			},
			code:    trc.ErrCfgPortRef,
			section: trc.SectionTrigger,
		},
		{
			name: "inst addr port",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.InstTracer(9, 0, 0, false, 4, helpers.NoPort)
				return cb.Bytes()
			},
			code:    trc.ErrCfgPortRef,
			section: trc.SectionInst,
		},
		{
			name: "inst branch port",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.InstTracer(1, 0, 0, false, 4, 9)
				return cb.Bytes()
			},
			code:    trc.ErrCfgPortRef,
			section: trc.SectionInst,
		},
		{
			name: "mem source port",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.MemTracer([]int{1}, 1, 1, 9, 0, false)
				return cb.Bytes()
			},
			code:    trc.ErrCfgPortRef,
			section: trc.SectionMem,
		},
		{
			name: "mem tracer without address ports",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.MemTracer(nil, 1, 1, 0, 0, true)
				return cb.Bytes()
			},
			code:    trc.ErrCfgPortRef,
			section: trc.SectionMem,
		},
		{
			name: "message port",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.MessageTracer(0, 1, 9)
				return cb.Bytes()
			},
			code:    trc.ErrCfgPortRef,
			section: trc.SectionMessage,
		},
		{
			name: "reserved one-register compare",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.TriggerEvent(1, 1, false, 3)
				return cb.Bytes()
			},
			code:    trc.ErrCfgBadEnum,
			section: trc.SectionTrigger,
		},
		{
			name: "reserved two-register compare",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.TriggerEvent(1, 1, true, 2)
				return cb.Bytes()
			},
			code:    trc.ErrCfgBadEnum,
			section: trc.SectionTrigger,
		},
		{
			name: "reserved trigger type",
			blob: func() []byte {
				cb := minimalBuilder()
				cb.Trigger(1, 0, 3, 0)
				return cb.Bytes()
			},
			code:    trc.ErrCfgBadEnum,
			section: trc.SectionTrigger,
		},
		{
			name:    "message section runs off the blob",
			blob:    func() []byte { return short },
			code:    trc.ErrCfgShort,
			section: trc.SectionMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(tt.blob(), nil)
			if cfg != nil {
				t.Error("partial configuration returned")
			}
			if !errors.Is(err, errs.Code(tt.code)) {
				t.Fatalf("err = %v, want code %d", err, tt.code)
			}
			var e *errs.Error
			if !errors.As(err, &e) || e.Section != tt.section {
				t.Errorf("section = %v, want %v", e.Section, tt.section)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	cfg := mustDecode(t, fullBuilder().Bytes())
	var buf bytes.Buffer
	cfg.Summary(&buf, nil)
	out := buf.String()

	for _, want := range []string{
		"Ports: 5",
		"  port 2: width 4, inputs 3, compression none",
		"  inst #0: addr port 1, branch port 5, counter 5 bits, history 2 bytes LS, priority 2, inputs 2",
		"  mem #0: addr ports 3, data port 5, rw port 4, source port -, collect value yes, priority 3, inputs 1",
		"  message #1 (system): ports 3,4, priority 4, inputs 4",
		"  event 8: port 2, compare outside, registers 0xa5, enabled yes",
		"  trigger 1: type stop, mode center, events 2",
		"ICE registers: 2 [16,8]",
		"Cycle accurate: yes, time bits 4, inform trigger yes",
	} {
		if !strings.Contains(out, want+"\n") {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}

	regs := cfg.NewRegisters()
	if _, err := regs.ToggleEvent(8); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	cfg.Summary(&buf, regs)
	if !strings.Contains(buf.String(), "  event 8: port 2, compare outside, registers 0xa5, enabled no\n") {
		t.Errorf("summary does not reflect live registers:\n%s", buf.String())
	}
}

func TestDecodeBytesUsed(t *testing.T) {
	for name, cb := range map[string]*helpers.ConfigBuilder{"minimal": minimalBuilder(), "full": fullBuilder()} {
		cfg := mustDecode(t, cb.Bytes())
		if got, want := cfg.BytesUsed(), len(cb.Encoded()); got != want {
			t.Errorf("%s: BytesUsed = %d, want %d", name, got, want)
		}
	}
}
