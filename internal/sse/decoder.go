// Package sse decodes newline-delimited `data: ` framed streams such as the
// ones returned by assistant chat endpoints when streaming is enabled.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Event is one decoded data payload. The terminator is not an event; Decode
// reports it as TerminatedBySentinel.
type Event struct {
	Data json.RawMessage
}

// Termination reports why Decode returned without error.
type Termination int

const (
	TerminatedByEOF Termination = iota + 1
	TerminatedBySentinel
)

func (t Termination) String() string {
	switch t {
	case TerminatedByEOF:
		return "eof"
	case TerminatedBySentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

type lineKind int

const (
	lineIgnore lineKind = iota
	lineData
	lineDone
)

// classifyLine sorts a complete line into ignorable, terminator or data.
// Anything without the exact `data: ` prefix is ignorable, not an error.
func classifyLine(line string) (lineKind, string) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" {
		return lineIgnore, ""
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return lineIgnore, ""
	}
	payload := line[len(dataPrefix):]
	if payload == doneSentinel {
		return lineDone, ""
	}
	return lineData, payload
}

// Decoder turns a ByteSource into a sequence of data events.
type Decoder struct {
	// OnParseError is called for every data line whose payload is not valid JSON.
	// The line is skipped either way.
	OnParseError func(payload string, err error)
	Logger       *slog.Logger
}

// Decode runs the default Decoder.
func Decode(ctx context.Context, src ByteSource, onEvent func(Event) error) (Termination, error) {
	var d Decoder
	return d.Decode(ctx, src, onEvent)
}

// Decode reads src until the `[DONE]` sentinel or end of stream and hands every
// data payload to onEvent in order. The sentinel itself is not delivered.
//
// src is released exactly once before Decode returns. A read failure or an
// error from onEvent stops decoding and is returned; a malformed payload is not.
func (d *Decoder) Decode(ctx context.Context, src ByteSource, onEvent func(Event) error) (term Termination, err error) {
	log := d.logger()
	defer func() {
		if rerr := src.Release(); rerr != nil {
			log.Warn("sse: releasing source", "error", rerr)
			if err == nil {
				err = fmt.Errorf("sse: release: %w", rerr)
			}
		}
	}()

	var buf []byte
	for {
		if cerr := ctx.Err(); cerr != nil {
			return 0, cerr
		}

		chunk, rerr := src.Next(ctx)
		if len(chunk) > 0 {
			buf = append(buf, chunk...)

			consumed := 0
			for {
				i := bytes.IndexByte(buf[consumed:], '\n')
				if i < 0 {
					break
				}
				line := string(buf[consumed : consumed+i])
				consumed += i + 1

				stop, herr := d.handleLine(line, onEvent)
				if herr != nil {
					return 0, herr
				}
				if stop {
					return TerminatedBySentinel, nil
				}
			}
			// keep only the unterminated tail
			buf = append(buf[:0], buf[consumed:]...)
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				if len(bytes.TrimSpace(buf)) > 0 {
					log.Debug("sse: discarding incomplete trailing line", "bytes", len(buf))
				}
				return TerminatedByEOF, nil
			}
			return 0, fmt.Errorf("sse: read: %w", rerr)
		}
	}
}

func (d *Decoder) handleLine(line string, onEvent func(Event) error) (bool, error) {
	kind, payload := classifyLine(line)
	switch kind {
	case lineIgnore:
		return false, nil
	case lineDone:
		return true, nil
	}

	payload = strings.ToValidUTF8(payload, "�")

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		d.logger().Warn("sse: skipping malformed data line", "error", err)
		if d.OnParseError != nil {
			d.OnParseError(payload, err)
		}
		return false, nil
	}

	if err := onEvent(Event{Data: raw}); err != nil {
		return false, err
	}
	return false, nil
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
