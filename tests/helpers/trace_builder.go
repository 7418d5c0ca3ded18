// Package helpers builds configuration blobs and bit streams for tests.
package helpers

// StreamBuilder assembles a bit-packed stream, least significant bit first
// within each byte, the way the tracer hardware emits it.
type StreamBuilder struct {
	data []byte
	bits int
}

// AddBit appends one bit.
func (b *StreamBuilder) AddBit(bit bool) {
	if b.bits%8 == 0 {
		b.data = append(b.data, 0)
	}
	if bit {
		b.data[len(b.data)-1] |= 1 << (b.bits % 8)
	}
	b.bits++
}

// AddBits appends the low n bits of v, bit 0 first.
func (b *StreamBuilder) AddBits(n int, v uint64) {
	for i := 0; i < n; i++ {
		b.AddBit(v&(1<<i) != 0)
	}
}

// AddBinary appends an MSB-first binary string as a value: its last
// character is written first.
func (b *StreamBuilder) AddBinary(s string) {
	for i := len(s) - 1; i >= 0; i-- {
		b.AddBit(s[i] == '1')
	}
}

// AddCode appends a selector codeword. The reader prepends every bit it
// reads, so the last character of the codeword goes out first.
func (b *StreamBuilder) AddCode(code string) {
	b.AddBinary(code)
}

// AddBytes appends whole bytes at the current bit position.
func (b *StreamBuilder) AddBytes(v ...byte) {
	for _, x := range v {
		b.AddBits(8, uint64(x))
	}
}

// BitLen returns the number of bits written.
func (b *StreamBuilder) BitLen() int {
	return b.bits
}

// Bytes returns the stream, zero padded to a whole byte.
func (b *StreamBuilder) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Compression codes used in the port section.
const (
	CompNone = 0
	CompDiff = 1
	CompXor  = 2
	CompTrim = 3
)

// NoPort marks an absent optional port reference.
const NoPort = -1

// BlobSize is the fixed configuration blob size.
const BlobSize = 2048

type blobTracer struct {
	data []byte
}

// ConfigBuilder assembles a configuration blob section by section. Counts are
// derived from the entries added.
type ConfigBuilder struct {
	ports       [][]byte
	events      [][]byte
	regDefaults []byte
	triggers    [][]byte
	inst        []blobTracer
	mem         []blobTracer
	msg         []blobTracer
	flags       byte
	ice         []byte
}

// Port adds a port. width is in bits.
func (c *ConfigBuilder) Port(id, width, inputs, comp int) {
	c.ports = append(c.ports, []byte{byte(id), byte(width - 1), byte(inputs&0x3F) | byte(comp<<6)})
}

// TriggerEvent adds a single trigger event.
func (c *ConfigBuilder) TriggerEvent(id, portID int, twoRegs bool, op int) {
	b := byte(op&0x03) << 1
	if twoRegs {
		b |= 0x01
	}
	c.events = append(c.events, []byte{byte(id), byte(portID), b})
}

// TriggerDefaults sets the packed default register bytes.
func (c *ConfigBuilder) TriggerDefaults(v ...byte) {
	c.regDefaults = append(c.regDefaults, v...)
}

// Trigger adds a trigger.
func (c *ConfigBuilder) Trigger(id, events, typ, mode int) {
	c.triggers = append(c.triggers, []byte{byte(id), byte(events), byte(typ&0x03) | byte(mode&0x03)<<2})
}

// InstTracer adds an instruction tracer. branchPort may be NoPort.
func (c *ConfigBuilder) InstTracer(addrPort, priority, historyBytes int, ls bool, counterBits, branchPort int) {
	b := byte(priority&0x0F)<<3 | byte(historyBytes&0x03)<<1
	if ls {
		b |= 0x01
	}
	if branchPort != NoPort {
		b |= 0x80
	}
	data := []byte{byte(addrPort), b, byte(counterBits)}
	if branchPort != NoPort {
		data = append(data, byte(branchPort))
	}
	c.inst = append(c.inst, blobTracer{data})
}

// MemTracer adds a memory tracer. sourcePort may be 0 for none.
func (c *ConfigBuilder) MemTracer(addrPorts []int, dataPort, rwPort, sourcePort, priority int, collect bool) {
	data := []byte{byte(len(addrPorts))}
	for _, p := range addrPorts {
		data = append(data, byte(p))
	}
	last := byte(priority & 0x0F)
	if collect {
		last |= 0x10
	}
	data = append(data, byte(dataPort), byte(rwPort), byte(sourcePort), last)
	c.mem = append(c.mem, blobTracer{data})
}

// MessageTracer adds a message tracer. The last one added is the system
// tracer.
func (c *ConfigBuilder) MessageTracer(priority int, ports ...int) {
	data := []byte{byte(len(ports))}
	for _, p := range ports {
		data = append(data, byte(p))
	}
	data = append(data, byte(priority))
	c.msg = append(c.msg, blobTracer{data})
}

// Flags sets the flags byte.
func (c *ConfigBuilder) Flags(timeBits int, cycleAccurate, informTrigger bool) {
	c.flags = byte((timeBits-1)&0x07) << 5
	if cycleAccurate {
		c.flags |= 0x01
	}
	if informTrigger {
		c.flags |= 0x02
	}
}

// ICE sets the ICE register widths.
func (c *ConfigBuilder) ICE(widths ...int) {
	c.ice = c.ice[:0]
	for _, w := range widths {
		c.ice = append(c.ice, byte(w))
	}
}

// Encoded returns the blob without zero padding.
func (c *ConfigBuilder) Encoded() []byte {
	var out []byte
	out = append(out, byte(len(c.ports)))
	for _, p := range c.ports {
		out = append(out, p...)
	}
	out = append(out, byte(len(c.events)))
	for _, e := range c.events {
		out = append(out, e...)
	}
	out = append(out, c.regDefaults...)
	out = append(out, byte(len(c.triggers)))
	for _, t := range c.triggers {
		out = append(out, t...)
	}
	for _, list := range [][]blobTracer{c.inst, c.mem, c.msg} {
		out = append(out, byte(len(list)))
		for _, t := range list {
			out = append(out, t.data...)
		}
	}
	out = append(out, c.flags)
	out = append(out, byte(len(c.ice)))
	out = append(out, c.ice...)
	return out
}

// Bytes returns the blob zero padded to BlobSize.
func (c *ConfigBuilder) Bytes() []byte {
	out := make([]byte, BlobSize)
	copy(out, c.Encoded())
	return out
}

// TraceFile returns a trace file image: the padded blob followed by the
// stream.
func TraceFile(cfg *ConfigBuilder, stream *StreamBuilder) []byte {
	return append(cfg.Bytes(), stream.Bytes()...)
}
