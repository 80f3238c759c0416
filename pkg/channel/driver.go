// Package channel implements the Secure Channel of spec.md: the
// per-connection object that sits between a raw TCP socket and the
// HTTP/event layer, converting it into a pair of plaintext byte
// streams encrypted end-to-end with per-session ChaCha20-Poly1305
// keys once a pair-verify session has been delivered.
package channel

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"golang.org/x/sync/errgroup"

	"github.com/Roba1993/hap/pkg/crypto"
	"github.com/Roba1993/hap/pkg/framing"
	"github.com/Roba1993/hap/pkg/session"
)

// readChunkSize is the scratch buffer size for the inbound pump's
// socket reads. It is independent of the record size limit: a single
// Read may straddle several records or a fraction of one.
const readChunkSize = 4096

// Config configures a Driver.
type Config struct {
	// Conn is the accepted TCP connection the Driver owns exclusively.
	// Required.
	Conn net.Conn

	// Pending is the one-shot session delivery point the Session Gate
	// polls. Required.
	Pending *session.PendingSession

	// MaxQueueBytes caps the Plaintext Bridge's queues. 0 selects
	// DefaultMaxQueueBytes; a negative value disables the cap.
	MaxQueueBytes int

	// LoggerFactory creates the Driver's logger. If nil, logging is
	// disabled.
	LoggerFactory logging.LoggerFactory

	// Metrics receives per-record/per-byte counters. If nil, NoopMetrics
	// is used.
	Metrics Metrics
}

// Driver is the long-running per-connection task of spec.md §4.5: it
// owns the socket and runs the outbound and inbound pumps concurrently,
// coordinated so that either pump's fatal error tears down both (via
// errgroup) and completion always closes the Bridge.
type Driver struct {
	conn    net.Conn
	bridge  *Bridge
	gate    *session.Gate
	framer  *framing.Framer
	log     logging.LeveledLogger
	metrics Metrics

	readCounter  crypto.Counter
	writeCounter crypto.Counter
}

// NewDriver constructs a Driver and its Bridge. The returned Bridge is
// the opaque bidirectional stream handed to the HTTP layer; call Run
// to start pumping.
func NewDriver(cfg Config) (*Driver, *Bridge) {
	maxQueueBytes := cfg.MaxQueueBytes
	if maxQueueBytes == 0 {
		maxQueueBytes = DefaultMaxQueueBytes
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics
	}

	var log logging.LeveledLogger
	if cfg.LoggerFactory != nil {
		log = cfg.LoggerFactory.NewLogger("channel")
	}

	bridge := NewBridge(maxQueueBytes)
	d := &Driver{
		conn:    cfg.Conn,
		bridge:  bridge,
		gate:    session.NewGate(cfg.Pending),
		framer:  framing.New(),
		log:     log,
		metrics: metrics,
	}
	return d, bridge
}

// Run drives both pumps until the socket closes or either pump hits a
// fatal error, then closes the Bridge so any blocked consumer read or
// write unblocks. ctx cancellation closes the underlying socket, which
// is the only way to interrupt a blocking pump.
func (d *Driver) Run(ctx context.Context) error {
	d.metrics.ActiveChannels(1)
	defer d.metrics.ActiveChannels(-1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.outboundPump(gctx) })
	g.Go(func() error { return d.inboundPump(gctx) })

	go func() {
		<-gctx.Done()
		// Closing the socket interrupts a blocked inbound Read; closing
		// the Bridge interrupts a blocked outbound pump waiting on a
		// consumer Write that will now never come (e.g. after the
		// inbound pump hit a fatal error). Both are safe to call before
		// the pumps have actually returned.
		d.conn.Close()
		d.bridge.Close()
	}()

	err := g.Wait()
	d.bridge.Close()

	var chErr *Error
	if errors.As(err, &chErr) && chErr.Kind == KindPeerClosed {
		if d.log != nil {
			d.log.Debug("channel closed: peer EOF")
		}
		return nil
	}
	if err != nil && d.log != nil {
		d.log.Errorf("channel closed: %v", err)
	}
	return err
}

// outboundPump drains the Bridge's outbound queue: encrypting each
// chunk into records of at most 1024 bytes in Encrypted mode, or writing it
// verbatim in Passthrough mode (spec.md §4.5).
func (d *Driver) outboundPump(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		chunk, err := d.bridge.nextOutbound()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return newError(KindSocketIO, err)
		}

		// Re-check adoption immediately before deciding this chunk's
		// mode: the session may have been delivered while this pump was
		// blocked waiting for the chunk, and must be observed before
		// the first post-adoption chunk is written.
		if err := d.tryAdopt(); err != nil {
			return newError(KindSocketIO, err)
		}

		keys, ok := d.gate.Keys()
		if !ok {
			if err := d.writeAll(chunk); err != nil {
				return newError(KindSocketIO, err)
			}
			continue
		}

		for len(chunk) > 0 {
			n := len(chunk)
			if n > crypto.MaxPlaintextSize {
				n = crypto.MaxPlaintextSize
			}
			sub := chunk[:n]
			chunk = chunk[n:]

			aad, ciphertext, tag, err := crypto.EncryptRecord(keys.AccessoryWriteKey, sub, &d.writeCounter)
			if err != nil {
				d.metrics.RecordProcessed(DirectionOutbound, ResultFail)
				return newError(KindSocketIO, err)
			}

			if err := d.writeAll(framing.Encode(aad, ciphertext, tag)); err != nil {
				return newError(KindSocketIO, err)
			}
			d.metrics.RecordProcessed(DirectionOutbound, ResultOK)
			d.metrics.BytesTransferred(DirectionOutbound, len(sub))
		}
	}
}

// writeAll retries partial writes; only a hard socket error is fatal
// (spec.md §4.5).
func (d *Driver) writeAll(p []byte) error {
	for len(p) > 0 {
		n, err := d.conn.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// inboundPump reads the socket, forwarding bytes verbatim in
// Passthrough mode and feeding the Framer/Cryptor in Encrypted mode,
// pushing resulting plaintext onto the Bridge's inbound queue.
func (d *Driver) inboundPump(ctx context.Context) error {
	buf := make([]byte, readChunkSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := d.conn.Read(buf)
		if n > 0 {
			if procErr := d.processInbound(buf[:n]); procErr != nil {
				return procErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return newError(KindPeerClosed, nil)
			}
			return newError(KindSocketIO, err)
		}
	}
}

// tryAdopt re-checks the Session Gate for a just-delivered session.
// Both pumps call this immediately before consulting Keys(), since the
// session may be delivered at any instant while either pump is
// blocked in a socket read or a Bridge wait.
func (d *Driver) tryAdopt() error {
	adopted, err := d.gate.TryAdopt()
	if err != nil {
		return err
	}
	if adopted {
		d.metrics.ModeTransition()
	}
	return nil
}

// processInbound routes freshly-read socket bytes through passthrough
// or decrypt-and-deliver, depending on the Gate's current mode. Mode is
// read once per call so a transition always lands on a record/byte
// boundary rather than splitting mid-processing.
func (d *Driver) processInbound(p []byte) error {
	if err := d.tryAdopt(); err != nil {
		return newError(KindSocketIO, err)
	}

	keys, ok := d.gate.Keys()
	if !ok {
		if err := d.bridge.pushInbound(p); err != nil {
			return newError(KindSocketIO, err)
		}
		return nil
	}

	if _, err := d.framer.Write(p); err != nil {
		return newError(KindFrameTooLarge, err)
	}

	for {
		rec, ok := d.framer.Next()
		if !ok {
			break
		}

		plaintext, err := crypto.DecryptRecord(keys.AccessoryReadKey, rec.AAD, rec.Ciphertext, rec.Tag, &d.readCounter)
		if err != nil {
			d.metrics.RecordProcessed(DirectionInbound, ResultFail)
			return newError(KindAuthenticationFailed, err)
		}
		d.metrics.RecordProcessed(DirectionInbound, ResultOK)
		d.metrics.BytesTransferred(DirectionInbound, len(plaintext))

		if err := d.bridge.pushInbound(plaintext); err != nil {
			return newError(KindSocketIO, err)
		}
	}
	return nil
}

// ControllerID returns the adopted session's controller id, once
// known (spec.md §6's read-only reference exposed to the HTTP layer).
func (d *Driver) ControllerID() (uuid.UUID, bool) {
	return d.gate.ControllerID()
}
