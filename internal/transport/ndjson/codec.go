// Package ndjson reads and writes one JSON value per line.
package ndjson

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

type Decoder struct {
	reader *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// ReadLine returns the next line without its terminator. A final line
// that lacks a newline is still returned; io.EOF follows it.
func (d *Decoder) ReadLine() ([]byte, error) {
	line, err := d.reader.ReadBytes('\n')
	if err != nil && !(err == io.EOF && len(line) > 0) {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// Decode reads the next non-blank line into v.
func (d *Decoder) Decode(v any) error {
	for {
		line, err := d.ReadLine()
		if err != nil {
			return err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return Unmarshal(line, v)
	}
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

type Encoder struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{writer: w}
}

// Encode writes v followed by a newline. Concurrent calls never interleave.
func (e *Encoder) Encode(v any) error {
	payload, err := api.Marshal(v)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.writer.Write(append(payload, '\n')); err != nil {
		return err
	}
	return nil
}
