// Package control talks to the tracer's control server: it fetches the
// tracer configuration, starts and stops the target system and starts and
// stops trace capture into a receiver file.
package control

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"fpgatrace/common"
	"fpgatrace/internal/bitvec"
	errs "fpgatrace/internal/common"
	"fpgatrace/internal/config"
	"fpgatrace/internal/trc"
)

// DefaultAddr is the control server address used by the tracer tools.
const DefaultAddr = "localhost:8889"

// command bytes sent directly on the connection.
const (
	cmdHandshake    byte = 0
	cmdInitReceiver byte = 1
	cmdRequest      byte = 2
	cmdFinish       byte = 3
	cmdFlush        byte = 4
)

// request opcodes, first byte of a request message.
const (
	opGetConfig    byte = 0x00
	opICEStop      byte = 0x02
	opICEStopped   byte = 0x03
	opICEStart     byte = 0x04
	opICERegisters byte = 0x05
	opStartTracing byte = 0x0C
	opStopTracing  byte = 0x0D
)

const defaultStopWait = time.Second

// Options configures a Client.
type Options struct {
	// StopWait is the pause between a successful stop tracing request and
	// the receiver flush. Zero means one second.
	StopWait time.Duration
	Logger   common.Logger
}

// Client is a connection to the control server. Requests are serialised;
// a Client may be shared between goroutines.
type Client struct {
	mu     sync.Mutex
	conn   io.ReadWriter
	closer io.Closer
	w      *bufio.Writer
	r      *bufio.Reader

	opts   Options
	logger common.Logger

	blob []byte
	cfg  *config.Config
	regs *config.Registers
}

// Dial connects to addr and performs the handshake.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errs.WrapError(trc.ErrCtlNotConnected, err, addr)
	}
	c, err := NewClient(conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient runs the handshake on conn and fetches the tracer configuration.
// If conn is an io.Closer, Close closes it.
func NewClient(conn io.ReadWriter, opts Options) (*Client, error) {
	if opts.StopWait == 0 {
		opts.StopWait = defaultStopWait
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.NewNoOpLogger()
	}
	c := &Client{
		conn:   conn,
		w:      bufio.NewWriter(conn),
		r:      bufio.NewReader(conn),
		opts:   opts,
		logger: logger,
	}
	if cl, ok := conn.(io.Closer); ok {
		c.closer = cl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.command(cmdHandshake); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	resp, err := c.request(opGetConfig)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	if len(resp) > trc.ConfigLength {
		return nil, errs.Errorf(trc.ErrCfgOversized, "server sent %d configuration bytes", len(resp))
	}
	c.blob = make([]byte, trc.ConfigLength)
	copy(c.blob, resp)
	cfg, err := config.Decode(c.blob, logger)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.regs = cfg.NewRegisters()
	logger.Logf(common.SeverityDebug, "configuration received, %d bytes used", cfg.BytesUsed())
	return c, nil
}

// Config returns the configuration read at connect time.
func (c *Client) Config() *config.Config { return c.cfg }

// Registers returns the live register table seeded from the configuration.
func (c *Client) Registers() *config.Registers { return c.regs }

func (c *Client) flushOut() error {
	if err := c.w.Flush(); err != nil {
		return errs.WrapError(trc.ErrCtlNotConnected, err, "write")
	}
	return nil
}

func (c *Client) readAck(what string) error {
	ack, err := c.r.ReadByte()
	if err != nil {
		return errs.WrapError(trc.ErrCtlNotConnected, err, what)
	}
	if ack != 0 {
		return errs.Errorf(trc.ErrCtlNack, "%s: ack %d", what, ack)
	}
	return nil
}

// command sends a single command byte and waits for its ack.
func (c *Client) command(cmd byte) error {
	if err := c.w.WriteByte(cmd); err != nil {
		return errs.WrapError(trc.ErrCtlNotConnected, err, "write")
	}
	if err := c.flushOut(); err != nil {
		return err
	}
	return c.readAck(fmt.Sprintf("command %d", cmd))
}

// request sends msg framed as a request and returns the response payload.
func (c *Client) request(msg ...byte) ([]byte, error) {
	var hdr [6]byte
	hdr[0] = cmdRequest
	binary.BigEndian.PutUint32(hdr[1:5], uint32(len(msg)+1))
	hdr[5] = byte(len(msg) - 1)
	if _, err := c.w.Write(hdr[:]); err != nil {
		return nil, errs.WrapError(trc.ErrCtlNotConnected, err, "write")
	}
	if _, err := c.w.Write(msg); err != nil {
		return nil, errs.WrapError(trc.ErrCtlNotConnected, err, "write")
	}
	if err := c.flushOut(); err != nil {
		return nil, err
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(c.r, lenBuf[:]); err != nil {
		return nil, errs.WrapError(trc.ErrCtlNotConnected, err, "response length")
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	resp := make([]byte, n)
	if _, err := io.ReadFull(c.r, resp); err != nil {
		return nil, errs.WrapError(trc.ErrCtlShortResponse, err, fmt.Sprintf("response of %d bytes", n))
	}
	return resp, nil
}

// status sends a one byte request and reports whether the first response
// byte is set.
func (c *Client) status(op byte) (bool, error) {
	resp, err := c.request(op)
	if err != nil {
		return false, err
	}
	if len(resp) == 0 {
		return false, errs.Errorf(trc.ErrCtlShortResponse, "empty response to opcode 0x%02x", op)
	}
	return resp[0] != 0, nil
}

// mustSucceed is status for requests where a cleared flag is a refusal.
func (c *Client) mustSucceed(op byte, what string) error {
	ok, err := c.status(op)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Errorf(trc.ErrCtlNack, "%s refused", what)
	}
	return nil
}

// StopSystem halts the traced system.
func (c *Client) StopSystem() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mustSucceed(opICEStop, "stop system")
}

// SystemStopped reports whether the traced system is halted.
func (c *Client) SystemStopped() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status(opICEStopped)
}

// StartSystem resumes the traced system.
func (c *Client) StartSystem() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mustSucceed(opICEStart, "start system")
}

// ICERegisters reads all ICE registers, register 0 first.
func (c *Client) ICERegisters() ([]*bitvec.BitVector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	width := c.cfg.ICE().SumWidth()
	need := (width + 7) / 8
	resp, err := c.request(opICERegisters)
	if err != nil {
		return nil, err
	}
	if len(resp) < need {
		return nil, errs.Errorf(trc.ErrCtlShortResponse, "ICE readback has %d bytes, need %d", len(resp), need)
	}
	v := bitvec.New(width)
	for i := 0; i < need; i++ {
		v.SetByte(i, resp[i])
	}
	return c.regs.SplitICE(v)
}

// StartTracing prepares the receiver to write into path and starts capture.
func (c *Client) StartTracing(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.initReceiver(path); err != nil {
		return err
	}
	if err := c.mustSucceed(opStartTracing, "start tracing"); err != nil {
		return err
	}
	c.logger.Info("tracing into " + path)
	return nil
}

func (c *Client) initReceiver(path string) error {
	if len(path) > 0xFFFF {
		return errs.Errorf(trc.ErrInvalidParamVal, "receiver file name of %d bytes", len(path))
	}
	buf := make([]byte, 0, 1+2+len(path)+4+len(c.blob))
	buf = append(buf, cmdInitReceiver)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(path)))
	buf = append(buf, path...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.blob)))
	buf = append(buf, c.blob...)
	if _, err := c.w.Write(buf); err != nil {
		return errs.WrapError(trc.ErrCtlNotConnected, err, "write")
	}
	if err := c.flushOut(); err != nil {
		return err
	}
	return c.readAck("init receiver")
}

// StopTracing stops capture, waits for the receiver to drain and flushes the
// receiver file.
func (c *Client) StopTracing(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mustSucceed(opStopTracing, "stop tracing"); err != nil {
		return err
	}
	t := time.NewTimer(c.opts.StopWait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	return c.command(cmdFlush)
}

// Close finishes the session and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.command(cmdFinish)
	if c.closer != nil {
		if cerr := c.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		c.closer = nil
	}
	return err
}
