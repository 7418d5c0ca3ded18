package decompress

import (
	"fmt"

	"fpgatrace/internal/bitio"
	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/config"
	"fpgatrace/internal/trc"
)

// field reads one port value: an optional byte count, the raw low bits and
// the compressed high part.
type field struct {
	port *config.Port
	dec  *FieldDecompressor // nil when the port is uncompressed
}

func newField(p *config.Port) field {
	f := field{port: p}
	if p.Compressed() {
		f.dec = NewFieldDecompressor(p.Compression, p.CompressedBits())
	}
	return f
}

// readLength reads the size in bits of the compressed part that follows
// later in the event. Uncompressed ports have none.
func (f *field) readLength(r *bitio.Reader) (int, error) {
	if f.dec == nil {
		return 0, nil
	}
	n, err := r.ReadInt(f.port.LengthBits())
	if err != nil {
		return 0, err
	}
	n *= 8
	if n > f.dec.Width() {
		return 0, errs.NewErrorWithIdxMsg(trc.ErrSevError, trc.ErrTrcFieldLength, r.BitsRead(),
			fmt.Sprintf("port %d: compressed length %d bits exceeds %d", f.port.ID, n, f.dec.Width()))
	}
	return n, nil
}

func (f *field) readLow(r *bitio.Reader) (*bitvec.BitVector, error) {
	return r.ReadVector(f.port.LowBits())
}

// readHigh reads n compressed bits and joins the expanded value above low.
func (f *field) readHigh(r *bitio.Reader, low *bitvec.BitVector, n int) (*bitvec.BitVector, error) {
	if f.dec == nil {
		return low, nil
	}
	in, err := r.ReadVector(n)
	if err != nil {
		return nil, err
	}
	high, err := f.dec.Decode(in)
	if err != nil {
		return nil, err
	}
	return low.Concat(high), nil
}

// eventDecoder is implemented by the instruction, memory and message
// variants. decode fills one value per slot; absent values stay nil.
type eventDecoder interface {
	slots() int
	decode(r *bitio.Reader) ([]*bitvec.BitVector, error)
}

// Instance is one lane of a Tracer with its own decode state. Index is the
// position in the flattened instance list of a run.
type Instance struct {
	Index  int
	Lane   int
	Tracer config.Tracer
	dec    eventDecoder
}

// Slots is the number of values an event of this instance carries.
func (in *Instance) Slots() int {
	return in.dec.slots()
}

// Empty returns the placeholder row entry used when the instance has no
// event.
func (in *Instance) Empty() []*bitvec.BitVector {
	return make([]*bitvec.BitVector, in.dec.slots())
}

// DecodeEvent reads one full event for this instance.
func (in *Instance) DecodeEvent(r *bitio.Reader) ([]*bitvec.BitVector, error) {
	return in.dec.decode(r)
}

func (in *Instance) String() string {
	return fmt.Sprintf("%s#%d.%d", in.Tracer.Kind(), in.Index, in.Lane)
}

// NewInstances expands every tracer of cfg into its lanes, in tracer
// declaration order. Each call returns fresh decode state.
func NewInstances(cfg *config.Config) []*Instance {
	var out []*Instance
	for _, t := range cfg.Tracers() {
		for lane := 0; lane < t.Inputs(); lane++ {
			out = append(out, &Instance{
				Index:  len(out),
				Lane:   lane,
				Tracer: t,
				dec:    newEventDecoder(t),
			})
		}
	}
	return out
}

func newEventDecoder(t config.Tracer) eventDecoder {
	switch t := t.(type) {
	case *config.InstTracer:
		return &instDecoder{t: t, addr: newField(t.AddrPort())}
	case *config.MemTracer:
		d := &memDecoder{t: t, idBits: trc.Log2Ceil(len(t.AddrPorts()) + 2)}
		for _, p := range t.AddrPorts() {
			d.ports = append(d.ports, newField(p))
		}
		d.ports = append(d.ports, newField(t.DataPort()))
		return d
	case *config.MessageTracer:
		d := &msgDecoder{}
		for _, p := range t.Ports() {
			d.ports = append(d.ports, newField(p))
		}
		return d
	}
	panic(fmt.Sprintf("decompress: unknown tracer type %T", t))
}

// instDecoder slots: address, counter, history.
type instDecoder struct {
	t    *config.InstTracer
	addr field
}

func (d *instDecoder) slots() int {
	if d.t.History() {
		return 3
	}
	return 2
}

func (d *instDecoder) decode(r *bitio.Reader) ([]*bitvec.BitVector, error) {
	out := make([]*bitvec.BitVector, d.slots())

	n, err := d.addr.readLength(r)
	if err != nil {
		return nil, err
	}

	if d.t.History() {
		raw, err := r.ReadVector(d.t.HistoryBytes() * 8)
		if err != nil {
			return nil, err
		}
		if d.t.LSEncoder() {
			if out[2], err = DecodeLS(raw); err != nil {
				return nil, err
			}
		} else {
			out[2] = truncateHistory(raw)
		}
	}

	if out[1], err = r.ReadVector(d.t.CounterBits()); err != nil {
		return nil, err
	}

	low, err := d.addr.readLow(r)
	if err != nil {
		return nil, err
	}
	if out[0], err = d.addr.readHigh(r, low, n); err != nil {
		return nil, err
	}
	return out, nil
}

// memDecoder slots: address ports 0..n-1, data n, rw n+1, source n+2. The
// event starts with a slot id naming the port that changed; ids above the
// data port also carry a collected data value.
type memDecoder struct {
	t      *config.MemTracer
	ports  []field // address ports then the data port
	idBits int
}

func (d *memDecoder) slots() int {
	n := len(d.ports) + 1
	if d.t.SourcePort() != nil {
		n++
	}
	return n
}

func (d *memDecoder) decode(r *bitio.Reader) ([]*bitvec.BitVector, error) {
	nAddr := len(d.ports) - 1
	dataIdx := nAddr
	rwIdx := nAddr + 1
	out := make([]*bitvec.BitVector, d.slots())

	start := r.BitsRead()
	id, err := r.ReadInt(d.idBits)
	if err != nil {
		return nil, err
	}
	target, collect := id, false
	if id >= nAddr+1 {
		target, collect = id-2, true
	}
	if target < 0 || target > dataIdx {
		return nil, errs.NewErrorWithIdxMsg(trc.ErrSevError, trc.ErrTrcMemTarget, start,
			fmt.Sprintf("slot id %d names target %d, memory tracer has %d ports", id, target, len(d.ports)))
	}
	tf := &d.ports[target]
	df := &d.ports[dataIdx]

	if src := d.t.SourcePort(); src != nil {
		if out[rwIdx+1], err = r.ReadVector(src.Width); err != nil {
			return nil, err
		}
	}
	if target == nAddr-1 {
		if out[rwIdx], err = r.ReadVector(1); err != nil {
			return nil, err
		}
	}

	tn, err := tf.readLength(r)
	if err != nil {
		return nil, err
	}
	var dn int
	if collect {
		if dn, err = df.readLength(r); err != nil {
			return nil, err
		}
	}

	tlow, err := tf.readLow(r)
	if err != nil {
		return nil, err
	}
	var dlow *bitvec.BitVector
	if collect {
		if dlow, err = df.readLow(r); err != nil {
			return nil, err
		}
	}

	if out[target], err = tf.readHigh(r, tlow, tn); err != nil {
		return nil, err
	}
	if collect {
		if out[dataIdx], err = df.readHigh(r, dlow, dn); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// msgDecoder has one slot per message port. All lengths come first, then
// all low parts, then all compressed parts.
type msgDecoder struct {
	ports []field
}

func (d *msgDecoder) slots() int {
	return len(d.ports)
}

func (d *msgDecoder) decode(r *bitio.Reader) ([]*bitvec.BitVector, error) {
	var err error
	lens := make([]int, len(d.ports))
	for i := range d.ports {
		if lens[i], err = d.ports[i].readLength(r); err != nil {
			return nil, err
		}
	}
	lows := make([]*bitvec.BitVector, len(d.ports))
	for i := range d.ports {
		if lows[i], err = d.ports[i].readLow(r); err != nil {
			return nil, err
		}
	}
	out := make([]*bitvec.BitVector, len(d.ports))
	for i := range d.ports {
		if out[i], err = d.ports[i].readHigh(r, lows[i], lens[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
