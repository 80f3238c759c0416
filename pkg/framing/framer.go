// Package framing implements the pull-driven record framer that sits
// between the raw inbound byte stream and the Cryptor: a two-state
// machine that accepts arbitrary splits of the byte stream — zero
// bytes, a single header byte, a partial body, anything — and resumes
// without ever losing or duplicating bytes.
package framing

import (
	"encoding/binary"

	"github.com/Roba1993/hap/pkg/crypto"
)

// MaxBodySize is the largest ciphertext body a single record may carry.
const MaxBodySize = crypto.MaxPlaintextSize

// stagingSize is the worst-case record size: 2-byte length prefix plus
// the largest possible body plus the authentication tag.
const stagingSize = 2 + MaxBodySize + crypto.TagSize

// Record is one complete framed record pulled off the wire: the 2-byte
// length prefix (also the AEAD associated data), the ciphertext body,
// and the 16-byte authentication tag.
type Record struct {
	AAD        [2]byte
	Ciphertext []byte
	Tag        []byte
}

type state int

const (
	stateAwaitLength state = iota
	stateAwaitBody
)

// Framer parses a stream of length-prefixed ciphertext records. It
// holds exactly one staging buffer sized for the worst case plus a
// cursor of bytes already accumulated in the current state, and a FIFO
// of fully-assembled records awaiting collection via Next.
//
// A Framer is not safe for concurrent use; spec.md's concurrency model
// has exactly one goroutine (the Driver's inbound pump) feeding it.
type Framer struct {
	state   state
	buf     [stagingSize]byte
	filled  int // bytes accumulated toward the current state's target
	bodyLen int // L, valid once state == stateAwaitBody
	pending []Record
}

// New returns an empty Framer in the AwaitLength state.
func New() *Framer {
	return &Framer{state: stateAwaitLength}
}

// Write feeds raw bytes from the socket into the framer. It always
// consumes the entire input and returns len(p), nil unless a length
// prefix outside [1, MaxBodySize] is encountered, in which case it
// returns ErrFrameTooLarge and the framer must not be fed further —
// the byte stream's record boundary is now unrecoverable.
//
// Every complete record assembled during this call (zero or more) is
// appended to the pending queue; drain it with Next.
func (f *Framer) Write(p []byte) (int, error) {
	total := len(p)

	for len(p) > 0 {
		switch f.state {
		case stateAwaitLength:
			n := copy(f.buf[f.filled:2], p)
			f.filled += n
			p = p[n:]

			if f.filled < 2 {
				continue
			}

			l := binary.LittleEndian.Uint16(f.buf[:2])
			if l == 0 || int(l) > MaxBodySize {
				return total - len(p), ErrFrameTooLarge
			}
			f.bodyLen = int(l)
			f.state = stateAwaitBody
			f.filled = 0

		case stateAwaitBody:
			end := f.bodyLen + crypto.TagSize
			n := copy(f.buf[2+f.filled:2+end], p)
			f.filled += n
			p = p[n:]

			if f.filled < end {
				continue
			}

			rec := Record{
				AAD:        [2]byte{f.buf[0], f.buf[1]},
				Ciphertext: append([]byte(nil), f.buf[2:2+f.bodyLen]...),
				Tag:        append([]byte(nil), f.buf[2+f.bodyLen:2+end]...),
			}
			f.pending = append(f.pending, rec)
			f.state = stateAwaitLength
			f.filled = 0
		}
	}

	return total, nil
}

// Next pops the oldest fully-assembled record, if any.
func (f *Framer) Next() (Record, bool) {
	if len(f.pending) == 0 {
		return Record{}, false
	}
	rec := f.pending[0]
	f.pending = f.pending[1:]
	return rec, true
}

// Pending reports how many complete records are waiting to be
// collected via Next.
func (f *Framer) Pending() int {
	return len(f.pending)
}
