package channel

import (
	"bytes"
	"io"
	"sync"
)

// DefaultMaxQueueBytes is the default cap on each Bridge queue's
// buffered bytes, bounding memory under a slow peer (spec.md §9's
// backpressure design note). A value of 0 disables the cap entirely,
// matching the source's unbounded queues.
const DefaultMaxQueueBytes = 64 * 1024

// chunkQueue is a FIFO of byte-slice chunks with readiness signalling.
// Each Push preserves exactly the boundary of its argument: the Driver
// pops whole chunks, never a re-coalesced stream, which is what lets
// the outbound pump turn one consumer Write into one set of records
// sized off that write alone (spec.md §8 property 3).
type chunkQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	chunks   [][]byte
	bytes    int
	maxBytes int
	closed   bool
	closeErr error
}

func newChunkQueue(maxBytes int) *chunkQueue {
	q := &chunkQueue{maxBytes: maxBytes}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// push appends chunk, blocking while the queue is at capacity. It
// copies chunk so the caller may reuse its buffer immediately.
func (q *chunkQueue) push(chunk []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.maxBytes > 0 && q.bytes >= q.maxBytes && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return q.closeErr
	}

	cp := append([]byte(nil), chunk...)
	q.chunks = append(q.chunks, cp)
	q.bytes += len(cp)
	q.notEmpty.Signal()
	return nil
}

// pop blocks until a chunk is available or the queue is closed.
func (q *chunkQueue) pop() ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.chunks) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.chunks) == 0 {
		return nil, q.closeErr
	}

	chunk := q.chunks[0]
	q.chunks = q.chunks[1:]
	q.bytes -= len(chunk)
	q.notFull.Signal()
	return chunk, nil
}

// close causes every blocked and future push/pop to unblock and
// observe err (io.EOF for a clean shutdown).
func (q *chunkQueue) close(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.closeErr = err
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// streamQueue is a FIFO byte stream: unlike chunkQueue it has no
// notion of chunk boundaries, which is correct for the inbound side —
// the HTTP layer reads an undifferentiated plaintext stream and does
// not care which record a given byte arrived in.
type streamQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      bytes.Buffer
	maxBytes int
	closed   bool
	closeErr error
}

func newStreamQueue(maxBytes int) *streamQueue {
	q := &streamQueue{maxBytes: maxBytes}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

func (q *streamQueue) push(p []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.maxBytes > 0 && q.buf.Len() >= q.maxBytes && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return q.closeErr
	}

	q.buf.Write(p)
	q.notEmpty.Signal()
	return nil
}

func (q *streamQueue) read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.buf.Len() == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.buf.Len() == 0 {
		return 0, q.closeErr
	}

	n, _ := q.buf.Read(p)
	q.notFull.Signal()
	return n, nil
}

func (q *streamQueue) close(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.closeErr = err
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Bridge is the Plaintext Bridge of spec.md §4.4: it exposes a
// bidirectional byte-stream capability to the HTTP layer, decoupled
// from the socket by two FIFO queues that the Driver drains and fills
// concurrently. Bridge implements io.ReadWriteCloser.
type Bridge struct {
	inbound  *streamQueue
	outbound *chunkQueue
}

// NewBridge creates a Bridge. maxQueueBytes caps each queue's buffered
// size; pass 0 for unbounded queues (the source's behaviour) or
// DefaultMaxQueueBytes for a conservative cap.
func NewBridge(maxQueueBytes int) *Bridge {
	return &Bridge{
		inbound:  newStreamQueue(maxQueueBytes),
		outbound: newChunkQueue(maxQueueBytes),
	}
}

// Read drains decrypted (or passthrough) plaintext bytes pushed by the
// Driver. It blocks until at least one byte is available, the Driver
// closes the Bridge (returns io.EOF), or it closed with an error.
func (b *Bridge) Read(p []byte) (int, error) {
	return b.inbound.read(p)
}

// Write appends p to the outbound queue as a single chunk and never
// blocks on anything but the optional queue-size cap; per spec.md
// §4.4 there is no other backpressure on the consumer side.
func (b *Bridge) Write(p []byte) (int, error) {
	if err := b.outbound.push(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close unblocks any pending Read/Write with io.EOF. The Driver calls
// this on completion (spec.md §4.5); calls after the first are no-ops.
func (b *Bridge) Close() error {
	b.inbound.close(io.EOF)
	b.outbound.close(io.EOF)
	return nil
}

// pushInbound is the Driver-side counterpart to Read: it delivers one
// slice of plaintext bytes, in order, to the consumer.
func (b *Bridge) pushInbound(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return b.inbound.push(p)
}

// nextOutbound is the Driver-side counterpart to Write: it blocks
// until the consumer has queued a chunk, or the Bridge is closed.
func (b *Bridge) nextOutbound() ([]byte, error) {
	return b.outbound.pop()
}

var _ io.ReadWriteCloser = (*Bridge)(nil)
