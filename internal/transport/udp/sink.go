// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"eqscope/internal/analysis"
	"eqscope/internal/render"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Frame sequence          |
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Width             | uint16         | 2            | Columns per curve (W)   |
| Channel Count     | uint8          | 1            | Spectrum curves (C)     |
| Spectrum          | []float32      | C * W * 4    | y per column, per chan  |
| Response          | []float32      | W * 4        | y per column            |
+-----------------------------------------------------------------------------+

y values are in analysis area coordinates, 0 at the top. Columns a curve
does not cover are sent as the area height (the bottom edge).
*/

// HeaderSize is the fixed part of every packet.
const HeaderSize = 4 + 8 + 2 + 1

// MaxPayload keeps packets under the IPv4 UDP datagram limit.
const MaxPayload = 65507

var ErrShortPacket = errors.New("udp: short packet")

// Packet is a decoded frame packet.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Width     int
	Spectrum  [][]float32
	Response  []float32
}

// Sink packs each frame into a packet and sends it.
type Sink struct {
	sender *Sender
	buf    bytes.Buffer
	column []float32
}

// NewSink wraps sender. The sink owns it from here on.
func NewSink(sender *Sender) (*Sink, error) {
	if sender == nil {
		return nil, errors.New("udp sink: sender cannot be nil")
	}
	return &Sink{sender: sender}, nil
}

// Dial creates a Sender for targetAddress and wraps it.
func Dial(targetAddress string) (*Sink, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return NewSink(sender)
}

// Draw implements render.Sink.
func (s *Sink) Draw(f *render.Frame) error {
	packet, err := s.encode(f)
	if err != nil {
		return err
	}
	return s.sender.Send(packet)
}

func (s *Sink) encode(f *render.Frame) ([]byte, error) {
	width := max(int(f.Area.Width), 0)
	channels := len(f.Spectrum)
	if width > math.MaxUint16 || channels > math.MaxUint8 {
		return nil, fmt.Errorf("udp sink: frame too large (%d columns, %d channels)", width, channels)
	}
	if size := HeaderSize + (channels+1)*width*4; size > MaxPayload {
		return nil, fmt.Errorf("udp sink: packet of %d bytes exceeds %d", size, MaxPayload)
	}
	if cap(s.column) < width {
		s.column = make([]float32, width)
	}
	column := s.column[:width]

	s.buf.Reset()
	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:], uint32(f.Sequence))
	binary.BigEndian.PutUint64(hdr[4:], uint64(f.Timestamp.UnixNano()))
	binary.BigEndian.PutUint16(hdr[12:], uint16(width))
	hdr[14] = uint8(channels)
	s.buf.Write(hdr[:])

	floor := float32(f.Area.Height)
	for _, p := range f.Spectrum {
		fillColumns(column, p, floor)
		if err := binary.Write(&s.buf, binary.BigEndian, column); err != nil {
			return nil, err
		}
	}
	fillColumns(column, f.Response, floor)
	if err := binary.Write(&s.buf, binary.BigEndian, column); err != nil {
		return nil, err
	}
	return s.buf.Bytes(), nil
}

func fillColumns(dst []float32, p analysis.Path, floor float32) {
	for i := range dst {
		dst[i] = floor
	}
	for _, pt := range p {
		if i := int(pt.X); i >= 0 && i < len(dst) {
			dst[i] = float32(pt.Y)
		}
	}
}

// Decode parses a packet produced by Sink.
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, ErrShortPacket
	}
	p := Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:])),
		Width:     int(binary.BigEndian.Uint16(b[12:])),
	}
	channels := int(b[14])
	if want := HeaderSize + (channels+1)*p.Width*4; len(b) < want {
		return Packet{}, fmt.Errorf("%w: %d bytes, want %d", ErrShortPacket, len(b), want)
	}

	r := bytes.NewReader(b[HeaderSize:])
	p.Spectrum = make([][]float32, channels)
	for i := range p.Spectrum {
		p.Spectrum[i] = make([]float32, p.Width)
		if err := binary.Read(r, binary.BigEndian, p.Spectrum[i]); err != nil {
			return Packet{}, err
		}
	}
	p.Response = make([]float32, p.Width)
	if err := binary.Read(r, binary.BigEndian, p.Response); err != nil {
		return Packet{}, err
	}
	return p, nil
}

// Close closes the sender.
func (s *Sink) Close() error {
	return s.sender.Close()
}

// Ensure Sink satisfies render.Sink at compile time.
var _ render.Sink = (*Sink)(nil)
