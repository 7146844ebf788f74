// Package protocol implements the wire framing and message envelopes
// for the Pente session coordinator (spec §4.1, §6).
//
// Framing is newline-delimited JSON: one JSON object per line, LF
// terminated. spec §4.1 permits either length-prefixed or
// newline-delimited framing provided the choice is documented; this
// package documents and implements the latter. Newline delimiting was
// chosen over a streaming json.Decoder because a malformed frame must
// not desynchronize the connection — spec §4.1 requires oversize or
// malformed frames to yield an unknown_command response and keep the
// connection open, and json.Decoder loses its place in the stream
// after a SyntaxError. Reading one line at a time keeps the framing
// boundary intact even when its contents fail to parse.
package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// MaxFrameBytes bounds a single request frame (spec §4.1: the source
// uses TCP chunks of at most 1024 bytes; this implementation is more
// generous since a JSON envelope plus a board snapshot exceeds that).
const MaxFrameBytes = 64 * 1024

// ErrFrameTooLarge is returned by ReadFrame when a line, including its
// newline, is longer than MaxFrameBytes. The whole line is read into
// memory before its length is checked.
var ErrFrameTooLarge = fmt.Errorf("protocol: frame exceeds %d bytes", MaxFrameBytes)

// ReadFrame reads one newline-delimited frame from r and decodes it
// into v. Decode errors are returned to the caller rather than treated
// as a transport failure, so the caller can reply unknown_command and
// keep reading (spec §4.1, §7 "protocol errors").
func ReadFrame(r *bufio.Reader, v any) error {
	line, err := readLine(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}
	return nil
}

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		// A non-empty trailing line with no newline (connection closed
		// mid-frame) is still worth reporting as a read error upstream;
		// io.EOF on an empty line is the ordinary close path.
		return nil, err
	}
	if len(line) > MaxFrameBytes {
		return nil, ErrFrameTooLarge
	}
	return []byte(line), nil
}

// WriteFrame encodes v as JSON and writes it to w terminated by a
// single newline, matching ReadFrame's framing.
func WriteFrame(w *bufio.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing frame delimiter: %w", err)
	}
	return w.Flush()
}
