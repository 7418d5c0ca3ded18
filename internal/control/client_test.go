package control

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	errs "fpgatrace/internal/common"
	"fpgatrace/internal/trc"
	"fpgatrace/tests/helpers"
)

// fakeServer answers the control protocol on one end of a pipe and records
// the commands it sees.
type fakeServer struct {
	conn    net.Conn
	blob    []byte
	ice     []byte
	nack    map[byte]bool // command bytes answered with a non-zero ack
	refuse  map[byte]bool // request opcodes answered with a cleared flag
	stopped bool
	log     []string
}

func (s *fakeServer) ack(cmd byte) error {
	var b byte
	if s.nack[cmd] {
		b = 1
	}
	_, err := s.conn.Write([]byte{b})
	return err
}

func (s *fakeServer) respond(data []byte) error {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	_, err := s.conn.Write(append(out, data...))
	return err
}

func (s *fakeServer) flag(op byte) []byte {
	if s.refuse[op] {
		return []byte{0}
	}
	return []byte{1}
}

func (s *fakeServer) request() error {
	var hdr [5]byte
	if _, err := io.ReadFull(s.conn, hdr[:]); err != nil {
		return err
	}
	n := int(binary.BigEndian.Uint32(hdr[:4]))
	if int(hdr[4]) != n-2 {
		return fmt.Errorf("length byte %d for frame of %d", hdr[4], n)
	}
	msg := make([]byte, n-1)
	if _, err := io.ReadFull(s.conn, msg); err != nil {
		return err
	}
	op := msg[0]
	s.log = append(s.log, fmt.Sprintf("request %02x", op))
	switch op {
	case opGetConfig:
		return s.respond(s.blob)
	case opICEStop:
		if !s.refuse[op] {
			s.stopped = true
		}
		return s.respond(s.flag(op))
	case opICEStart:
		s.stopped = false
		return s.respond(s.flag(op))
	case opICEStopped:
		if s.stopped {
			return s.respond([]byte{1})
		}
		return s.respond([]byte{0})
	case opICERegisters:
		return s.respond(s.ice)
	default:
		return s.respond(s.flag(op))
	}
}

func (s *fakeServer) initReceiver() error {
	var l [2]byte
	if _, err := io.ReadFull(s.conn, l[:]); err != nil {
		return err
	}
	name := make([]byte, binary.BigEndian.Uint16(l[:]))
	if _, err := io.ReadFull(s.conn, name); err != nil {
		return err
	}
	var cl [4]byte
	if _, err := io.ReadFull(s.conn, cl[:]); err != nil {
		return err
	}
	cfg := make([]byte, binary.BigEndian.Uint32(cl[:]))
	if _, err := io.ReadFull(s.conn, cfg); err != nil {
		return err
	}
	s.log = append(s.log, fmt.Sprintf("init %s %d", name, len(cfg)))
	return s.ack(cmdInitReceiver)
}

func (s *fakeServer) serve() error {
	var cmd [1]byte
	for {
		if _, err := io.ReadFull(s.conn, cmd[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		var err error
		switch cmd[0] {
		case cmdHandshake:
			s.log = append(s.log, "handshake")
			err = s.ack(cmdHandshake)
		case cmdInitReceiver:
			err = s.initReceiver()
		case cmdRequest:
			err = s.request()
		case cmdFinish:
			s.log = append(s.log, "finish")
			return s.ack(cmdFinish)
		case cmdFlush:
			s.log = append(s.log, "flush")
			err = s.ack(cmdFlush)
		default:
			return fmt.Errorf("unknown command %d", cmd[0])
		}
		if err != nil {
			return err
		}
	}
}

func iceConfig() *helpers.ConfigBuilder {
	cb := &helpers.ConfigBuilder{}
	cb.Port(1, 8, 1, helpers.CompNone)
	cb.MessageTracer(0, 1)
	cb.ICE(12, 4)
	return cb
}

// startServer serves on one end of a pipe and returns the other end with a
// channel that yields the server result once it stops.
func startServer(t *testing.T, s *fakeServer) (net.Conn, <-chan error) {
	t.Helper()
	client, server := net.Pipe()
	s.conn = server
	if s.blob == nil {
		s.blob = iceConfig().Encoded()
	}
	done := make(chan error, 1)
	go func() {
		done <- s.serve()
		server.Close()
	}()
	t.Cleanup(func() { client.Close() })
	return client, done
}

func TestClientSession(t *testing.T) {
	s := &fakeServer{ice: []byte{0x34, 0x12}}
	conn, done := startServer(t, s)

	c, err := NewClient(conn, Options{StopWait: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Config().ICE().Count(); got != 2 {
		t.Fatalf("ICE registers = %d", got)
	}

	if err := c.StopSystem(); err != nil {
		t.Fatal(err)
	}
	stopped, err := c.SystemStopped()
	if err != nil || !stopped {
		t.Fatalf("SystemStopped = %v, %v", stopped, err)
	}
	if err := c.StartSystem(); err != nil {
		t.Fatal(err)
	}

	regs, err := c.ICERegisters()
	if err != nil {
		t.Fatal(err)
	}
	var hex []string
	for _, r := range regs {
		hex = append(hex, r.Hex())
	}
	if diff := cmp.Diff([]string{"234", "1"}, hex); diff != "" {
		t.Errorf("ICE registers (-want +got):\n%s", diff)
	}

	if err := c.StartTracing("/tmp/run1.trc"); err != nil {
		t.Fatal(err)
	}
	if err := c.StopTracing(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatalf("server: %v", err)
	}

	want := []string{
		"handshake",
		"request 00",
		"request 02",
		"request 03",
		"request 04",
		"request 05",
		"init /tmp/run1.trc 2048",
		"request 0c",
		"request 0d",
		"flush",
		"finish",
	}
	if diff := cmp.Diff(want, s.log); diff != "" {
		t.Errorf("commands (-want +got):\n%s", diff)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		server *fakeServer
		op     func(c *Client) error
		want   trc.Err
	}{
		{
			name:   "refused stop",
			server: &fakeServer{refuse: map[byte]bool{opICEStop: true}},
			op:     func(c *Client) error { return c.StopSystem() },
			want:   trc.ErrCtlNack,
		},
		{
			name:   "short ICE readback",
			server: &fakeServer{ice: []byte{0x34}},
			op: func(c *Client) error {
				_, err := c.ICERegisters()
				return err
			},
			want: trc.ErrCtlShortResponse,
		},
		{
			name:   "receiver rejected",
			server: &fakeServer{nack: map[byte]bool{cmdInitReceiver: true}},
			op:     func(c *Client) error { return c.StartTracing("out.trc") },
			want:   trc.ErrCtlNack,
		},
		{
			name:   "tracing refused",
			server: &fakeServer{refuse: map[byte]bool{opStartTracing: true}},
			op:     func(c *Client) error { return c.StartTracing("out.trc") },
			want:   trc.ErrCtlNack,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn, done := startServer(t, tc.server)
			c, err := NewClient(conn, Options{})
			if err != nil {
				t.Fatal(err)
			}
			if err := tc.op(c); !errors.Is(err, errs.Code(tc.want)) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
			if err := c.Close(); err != nil {
				t.Fatal(err)
			}
			if err := <-done; err != nil {
				t.Fatalf("server: %v", err)
			}
		})
	}
}

func TestClientHandshakeRejected(t *testing.T) {
	s := &fakeServer{nack: map[byte]bool{cmdHandshake: true}}
	conn, _ := startServer(t, s)
	if _, err := NewClient(conn, Options{}); !errors.Is(err, errs.Code(trc.ErrCtlNack)) {
		t.Errorf("err = %v, want ErrCtlNack", err)
	}
}

func TestClientBadConfig(t *testing.T) {
	s := &fakeServer{blob: []byte{0}}
	conn, _ := startServer(t, s)
	if _, err := NewClient(conn, Options{}); err == nil {
		t.Error("configuration without a system tracer accepted")
	}
}

func TestStopTracingCanceled(t *testing.T) {
	s := &fakeServer{}
	conn, done := startServer(t, s)
	c, err := NewClient(conn, Options{StopWait: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.StopTracing(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	<-done
	if diff := cmp.Diff([]string{"handshake", "request 00", "request 0d", "finish"}, s.log); diff != "" {
		t.Errorf("commands (-want +got):\n%s", diff)
	}
}

func TestDialRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skip(err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := Dial(ctx, addr, Options{}); !errors.Is(err, errs.Code(trc.ErrCtlNotConnected)) {
		t.Errorf("err = %v, want ErrCtlNotConnected", err)
	}
}
