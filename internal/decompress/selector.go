package decompress

import (
	"fmt"
	"sort"
	"strings"

	"fpgatrace/internal/bitio"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/config"
	"fpgatrace/internal/trc"
)

// SelectorKind names the selector code strategy of a run.
type SelectorKind int

const (
	SelectorEqual SelectorKind = iota
	SelectorPriority
)

func (k SelectorKind) String() string {
	if k == SelectorPriority {
		return "priority"
	}
	return "equal"
}

// Selector reads the code naming the instance that produced the next event.
type Selector interface {
	Kind() SelectorKind
	Next(r *bitio.Reader) (*Instance, error)
}

// NewSelector picks equal coding when all tracers share one priority and
// priority coding otherwise.
func NewSelector(tracers []config.Tracer, instances []*Instance) Selector {
	if equalPriority(tracers) {
		return NewEqualCoding(instances)
	}
	return NewPriorityCoding(instances)
}

func equalPriority(tracers []config.Tracer) bool {
	for i := 1; i < len(tracers); i++ {
		if tracers[i].Priority() != tracers[0].Priority() {
			return false
		}
	}
	return true
}

// EqualCoding selects with a fixed width index into the instance list.
type EqualCoding struct {
	instances []*Instance
	bits      int
}

func NewEqualCoding(instances []*Instance) *EqualCoding {
	return &EqualCoding{instances: instances, bits: trc.Log2Ceil(len(instances))}
}

func (s *EqualCoding) Kind() SelectorKind { return SelectorEqual }

// CodeBits is the fixed code width, zero for a single instance.
func (s *EqualCoding) CodeBits() int { return s.bits }

func (s *EqualCoding) Next(r *bitio.Reader) (*Instance, error) {
	if s.bits == 0 {
		return s.instances[0], nil
	}
	start := r.BitsRead()
	idx, err := r.ReadInt(s.bits)
	if err != nil {
		return nil, err
	}
	if idx >= len(s.instances) {
		return nil, errs.NewErrorWithIdxMsg(trc.ErrSevError, trc.ErrTrcSelectorRange, start,
			fmt.Sprintf("selector %d, %d instances", idx, len(s.instances)))
	}
	return s.instances[idx], nil
}

// PriorityCoding gives each priority group a unary prefix, lowest priority
// first, followed by a fixed width member index for groups of more than one
// instance.
type PriorityCoding struct {
	codes map[string]*Instance
}

func NewPriorityCoding(instances []*Instance) *PriorityCoding {
	sorted := append([]*Instance(nil), instances...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tracer.Priority() < sorted[j].Tracer.Priority()
	})

	var groups [][]*Instance
	for i, in := range sorted {
		if i == 0 || in.Tracer.Priority() != sorted[i-1].Tracer.Priority() {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], in)
	}

	s := &PriorityCoding{codes: make(map[string]*Instance, len(instances))}
	g := len(groups)
	for i, members := range groups {
		var prefix string
		if i == 0 {
			prefix = strings.Repeat("0", g-1)
		} else {
			prefix = "1" + strings.Repeat("0", g-i-1)
		}
		if len(members) == 1 {
			s.codes[prefix] = members[0]
			continue
		}
		width := trc.Log2Ceil(len(members))
		for k, in := range members {
			s.codes[fmt.Sprintf("%0*b", width, k)+prefix] = in
		}
	}
	return s
}

func (s *PriorityCoding) Kind() SelectorKind { return SelectorPriority }

// Codes returns the codeword of every instance index, as the prefix scanner
// assembles it.
func (s *PriorityCoding) Codes() map[int]string {
	out := make(map[int]string, len(s.codes))
	for code, in := range s.codes {
		out[in.Index] = code
	}
	return out
}

func (s *PriorityCoding) Next(r *bitio.Reader) (*Instance, error) {
	// a lone instance needs no code
	if in, ok := s.codes[""]; ok {
		return in, nil
	}
	code, err := r.ReadPrefixCode(func(c string) bool {
		_, ok := s.codes[c]
		return ok
	}, trc.MaxSelectorBits)
	if err != nil {
		return nil, err
	}
	return s.codes[code], nil
}
