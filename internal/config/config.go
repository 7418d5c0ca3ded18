// Package config decodes the tracer configuration blob into a typed
// topology of ports, tracers, trigger events and ICE registers.
//
// A Config is immutable once decoded and may be shared by any number of
// sequential decompression runs. Live register values are kept apart in
// Registers.
package config

// Config is the decoded configuration.
type Config struct {
	ports    []*Port
	portByID map[int]*Port

	events   []TriggerSingleEvent
	triggers []Trigger

	inst []*InstTracer
	mem  []*MemTracer
	msg  []*MessageTracer

	timeBits      int
	cycleAccurate bool
	informTrigger bool

	ice ICE

	used int // blob bytes consumed by the parse
}

func (c *Config) Ports() []*Port { return c.ports }

// Port returns the port with the given id.
func (c *Config) Port(id int) (*Port, bool) {
	p, ok := c.portByID[id]
	return p, ok
}

func (c *Config) InstTracers() []*InstTracer       { return c.inst }
func (c *Config) MemTracers() []*MemTracer         { return c.mem }
func (c *Config) MessageTracers() []*MessageTracer { return c.msg }

// Tracers returns every tracer in decode order: instruction tracers, then
// memory tracers, then message tracers. The last one is the system tracer.
func (c *Config) Tracers() []Tracer {
	out := make([]Tracer, 0, len(c.inst)+len(c.mem)+len(c.msg))
	for _, t := range c.inst {
		out = append(out, t)
	}
	for _, t := range c.mem {
		out = append(out, t)
	}
	for _, t := range c.msg {
		out = append(out, t)
	}
	return out
}

// SystemTracer returns the mandatory last message tracer whose first message
// bit signals the end of the trace.
func (c *Config) SystemTracer() *MessageTracer {
	return c.msg[len(c.msg)-1]
}

// TotalInputs sums the lane count of every tracer.
func (c *Config) TotalInputs() int {
	n := 0
	for _, t := range c.Tracers() {
		n += t.Inputs()
	}
	return n
}

func (c *Config) TriggerEvents() []TriggerSingleEvent { return c.events }
func (c *Config) Triggers() []Trigger                 { return c.triggers }

// TriggerEvent returns the event with the given id.
func (c *Config) TriggerEvent(id int) (TriggerSingleEvent, bool) {
	for _, e := range c.events {
		if e.ID() == id {
			return e, true
		}
	}
	return nil, false
}

// TimeBits is the width of the cycle delta in cycle-accurate traces.
func (c *Config) TimeBits() int       { return c.timeBits }
func (c *Config) CycleAccurate() bool { return c.cycleAccurate }
func (c *Config) InformTrigger() bool { return c.informTrigger }
func (c *Config) ICE() ICE            { return c.ice }

// BytesUsed is the number of blob bytes the sections occupy; the rest of
// the blob is padding.
func (c *Config) BytesUsed() int { return c.used }
