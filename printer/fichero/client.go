package fichero

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DeviceWriter is the outbound half of the transport. Writes go to the
// printer's write characteristic without response.
type DeviceWriter interface {
	Write(data []byte) error
}

// ErrResponseTimeout is returned when a reply-expecting command receives
// no notification within its timeout. There is no automatic retry.
var ErrResponseTimeout = errors.New("no response from printer within timeout")

const (
	// The device delivers a reply as one or more notification fragments
	// in a quick burst; after the first fragment wakes us, wait this
	// long for the stragglers before reading the buffer.
	responseGraceDelay = 50 * time.Millisecond

	// Pause between chunks of a bulk transfer. The link can't absorb a
	// full raster payload at line rate.
	chunkPacingDelay = 20 * time.Millisecond

	defaultCommandTimeout = 2 * time.Second

	// The stop-print acknowledgement only arrives once the mechanism
	// has finished, which for a tall label can take a while.
	stopTimeout = 60 * time.Second
)

// command pairs an opcode sequence with its reply expectation. The
// transport has no request IDs, so correlation is purely ordinal: one
// command in flight, its reply is whatever arrives next.
type command struct {
	data        []byte
	expectReply bool
	timeout     time.Duration
}

// Client serializes command issuance over a single connection and
// correlates inbound notification fragments with the one outstanding
// command. HandleNotification is the only path that mutates the receive
// buffer; it runs on whatever goroutine the BLE stack dispatches it on.
type Client struct {
	writer DeviceWriter

	// mu wraps the whole arm -> transmit -> await window. Commands with
	// no expected reply take it too: interleaved writes from concurrent
	// callers would corrupt framing on the device side.
	mu sync.Mutex

	bufMu  sync.Mutex
	buf    []byte
	signal chan struct{}

	commandTimeout time.Duration
	stopTimeout    time.Duration
}

func NewClient(w DeviceWriter) *Client {
	return &Client{
		writer:         w,
		signal:         make(chan struct{}, 1),
		commandTimeout: defaultCommandTimeout,
		stopTimeout:    stopTimeout,
	}
}

// HandleNotification appends an inbound fragment to the receive buffer
// and raises the reply signal. Safe to call concurrently with a waiting
// Send.
func (c *Client) HandleNotification(data []byte) {
	c.bufMu.Lock()
	c.buf = append(c.buf, data...)
	c.bufMu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Send transmits one command. If expectReply is set it suspends until
// the first notification fragment arrives (plus a short grace delay for
// the rest of the burst) and returns the accumulated reply, or fails
// with ErrResponseTimeout.
func (c *Client) Send(data []byte, expectReply bool, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(command{data: data, expectReply: expectReply, timeout: timeout})
}

// send requires c.mu to be held. The buffer clear and signal drain
// happen before the transmit so a reply arriving in the gap can't be
// lost or attributed to a previous command.
func (c *Client) send(cmd command) ([]byte, error) {
	if !cmd.expectReply {
		return nil, c.writer.Write(cmd.data)
	}

	c.bufMu.Lock()
	c.buf = c.buf[:0]
	c.bufMu.Unlock()
	select {
	case <-c.signal:
	default:
	}

	if err := c.writer.Write(cmd.data); err != nil {
		return nil, err
	}

	select {
	case <-c.signal:
	case <-time.After(cmd.timeout):
		// leave the buffer as-is for diagnostics; the next armed send
		// clears it anyway
		return nil, ErrResponseTimeout
	}

	time.Sleep(responseGraceDelay)

	c.bufMu.Lock()
	reply := make([]byte, len(c.buf))
	copy(reply, c.buf)
	c.bufMu.Unlock()

	slog.Debug("Command reply received",
		"size", len(reply),
	)
	return reply, nil
}

// SendChunked writes an arbitrary-length payload as a series of bounded
// chunks with inter-chunk pacing. No reply is awaited; the payload
// still holds the exclusive section for its whole duration.
func (c *Client) SendChunked(data []byte, chunkSize int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := c.writer.Write(data[start:end]); err != nil {
			return err
		}
		time.Sleep(chunkPacingDelay)
	}
	return nil
}
