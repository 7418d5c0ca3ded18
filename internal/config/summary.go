package config

import (
	"fmt"
	"io"
	"strings"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func portIDs(ports []*Port) string {
	ids := make([]string, len(ports))
	for i, p := range ports {
		ids[i] = fmt.Sprint(p.ID)
	}
	return strings.Join(ids, ",")
}

// Summary prints a human readable description of the configuration. Trigger
// event values and states come from regs; a nil regs prints the decoded
// defaults.
func (c *Config) Summary(w io.Writer, regs *Registers) {
	if regs == nil {
		regs = c.NewRegisters()
	}

	fmt.Fprintln(w, "Tracer configuration")
	fmt.Fprintln(w, "--------------------")

	fmt.Fprintf(w, "Ports: %d\n", len(c.ports))
	for _, p := range c.ports {
		fmt.Fprintf(w, "  port %d: width %d, inputs %d, compression %s\n", p.ID, p.Width, p.Inputs, p.Compression)
	}

	fmt.Fprintf(w, "Tracers: %d inst, %d mem, %d message; %d instances\n",
		len(c.inst), len(c.mem), len(c.msg), c.TotalInputs())
	for i, t := range c.inst {
		branch := "-"
		if t.branchPort != nil {
			branch = fmt.Sprint(t.branchPort.ID)
		}
		hist := "none"
		if t.History() {
			hist = fmt.Sprintf("%d bytes", t.historyBytes)
			if t.lsEncoder {
				hist += " LS"
			}
		}
		fmt.Fprintf(w, "  inst #%d: addr port %d, branch port %s, counter %d bits, history %s, priority %d, inputs %d\n",
			i, t.addrPort.ID, branch, t.counterBits, hist, t.priority, t.Inputs())
	}
	for i, t := range c.mem {
		src := "-"
		if t.sourcePort != nil {
			src = fmt.Sprint(t.sourcePort.ID)
		}
		fmt.Fprintf(w, "  mem #%d: addr ports %s, data port %d, rw port %d, source port %s, collect value %s, priority %d, inputs %d\n",
			i, portIDs(t.addrPorts), t.dataPort.ID, t.rwPort.ID, src, yesNo(t.collectValue), t.priority, t.Inputs())
	}
	for i, t := range c.msg {
		sys := ""
		if i == len(c.msg)-1 {
			sys = " (system)"
		}
		fmt.Fprintf(w, "  message #%d%s: ports %s, priority %d, inputs %d\n",
			i, sys, portIDs(t.msgPorts), t.priority, t.Inputs())
	}

	fmt.Fprintf(w, "Trigger events: %d\n", len(c.events))
	for _, e := range c.events {
		op, _ := regs.CompareOp(e.ID())
		enabled, _ := regs.EventEnabled(e.ID())
		val, _ := regs.RegisterValue(e.ID())
		fmt.Fprintf(w, "  event %d: port %d, compare %s, registers 0x%s, enabled %s\n",
			e.ID(), e.Port().ID, op, val.Hex(), yesNo(enabled))
	}
	fmt.Fprintf(w, "Triggers: %d\n", len(c.triggers))
	for _, t := range c.triggers {
		mode, _ := regs.TriggerMode(t.ID)
		typ, _ := regs.TriggerType(t.ID)
		fmt.Fprintf(w, "  trigger %d: type %s, mode %s, events %d\n", t.ID, typ, mode, t.Events)
	}

	widths := make([]string, c.ice.Count())
	for i := range widths {
		widths[i] = fmt.Sprint(c.ice.Width(i))
	}
	fmt.Fprintf(w, "ICE registers: %d [%s]\n", c.ice.Count(), strings.Join(widths, ","))

	fmt.Fprintf(w, "Cycle accurate: %s, time bits %d, inform trigger %s\n",
		yesNo(c.cycleAccurate), c.timeBits, yesNo(c.informTrigger))
}
