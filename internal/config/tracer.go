package config

import "math"

// TracerKind identifies the variant of a Tracer.
type TracerKind int

const (
	KindInst TracerKind = iota
	KindMem
	KindMessage
)

func (k TracerKind) String() string {
	switch k {
	case KindInst:
		return "inst"
	case KindMem:
		return "mem"
	case KindMessage:
		return "message"
	}
	return "unknown"
}

// Tracer is a configured instrumentation unit. The concrete type is one of
// *InstTracer, *MemTracer or *MessageTracer.
type Tracer interface {
	Kind() TracerKind
	Priority() int
	// Inputs is the number of lanes, the minimum over the referenced ports.
	Inputs() int
	Ports() []*Port
	isTracer()
}

func minInputs(ports ...*Port) int {
	m := math.MaxInt
	for _, p := range ports {
		if p != nil && p.Inputs < m {
			m = p.Inputs
		}
	}
	if m == math.MaxInt {
		return 0
	}
	return m
}

// InstTracer records executed instruction addresses.
type InstTracer struct {
	addrPort     *Port
	branchPort   *Port
	counterBits  int
	historyBytes int
	lsEncoder    bool
	priority     int
}

func (t *InstTracer) Kind() TracerKind { return KindInst }
func (t *InstTracer) Priority() int    { return t.priority }
func (t *InstTracer) Inputs() int      { return t.addrPort.Inputs }
func (t *InstTracer) Ports() []*Port   { return []*Port{t.addrPort} }
func (t *InstTracer) isTracer()        {}

func (t *InstTracer) AddrPort() *Port { return t.addrPort }

// BranchPort returns nil when the tracer has no branch info.
func (t *InstTracer) BranchPort() *Port { return t.branchPort }

func (t *InstTracer) CounterBits() int  { return t.counterBits }
func (t *InstTracer) HistoryBytes() int { return t.historyBytes }
func (t *InstTracer) History() bool     { return t.historyBytes > 0 }
func (t *InstTracer) LSEncoder() bool   { return t.lsEncoder }

// MemTracer records memory accesses.
type MemTracer struct {
	addrPorts    []*Port
	dataPort     *Port
	rwPort       *Port
	sourcePort   *Port
	collectValue bool
	priority     int
}

func (t *MemTracer) Kind() TracerKind { return KindMem }
func (t *MemTracer) Priority() int    { return t.priority }
func (t *MemTracer) isTracer()        {}

// Inputs takes the minimum over the address, data and source ports. The rw
// port does not limit the lane count.
func (t *MemTracer) Inputs() int {
	ports := append([]*Port{t.dataPort, t.sourcePort}, t.addrPorts...)
	return minInputs(ports...)
}

func (t *MemTracer) Ports() []*Port {
	ports := append([]*Port(nil), t.addrPorts...)
	ports = append(ports, t.dataPort, t.rwPort)
	if t.sourcePort != nil {
		ports = append(ports, t.sourcePort)
	}
	return ports
}

func (t *MemTracer) AddrPorts() []*Port { return t.addrPorts }
func (t *MemTracer) DataPort() *Port    { return t.dataPort }
func (t *MemTracer) RWPort() *Port      { return t.rwPort }

// SourcePort returns nil when no source port is configured.
func (t *MemTracer) SourcePort() *Port  { return t.sourcePort }
func (t *MemTracer) CollectValue() bool { return t.collectValue }

// MessageTracer records values written to its message ports.
type MessageTracer struct {
	msgPorts []*Port
	priority int
}

func (t *MessageTracer) Kind() TracerKind { return KindMessage }
func (t *MessageTracer) Priority() int    { return t.priority }
func (t *MessageTracer) Inputs() int      { return minInputs(t.msgPorts...) }
func (t *MessageTracer) Ports() []*Port   { return t.msgPorts }
func (t *MessageTracer) isTracer()        {}
