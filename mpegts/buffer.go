package mpegts

import "github.com/adolfomarver/ipcaster/buffer"

// Buffer is a Buffer specialization carrying a fixed packet size, the
// number of valid packets, and a parallel timestamp (27MHz ticks) per
// packet. It mirrors ipcaster's original MPEG2TSBuffer.
type Buffer struct {
	*buffer.Buffer
	packetSize int
	numPackets int
	timestamps []uint64
}

// NewBuffer allocates a root TS packet buffer able to hold
// capacityPackets packets of packetSize bytes each.
func NewBuffer(capacityPackets, packetSize int) *Buffer {
	return &Buffer{
		Buffer:     buffer.New(capacityPackets * packetSize),
		packetSize: packetSize,
		timestamps: make([]uint64, capacityPackets),
	}
}

// MakeChild returns a view over packets [packetIndex, packetIndex+capacityPackets)
// of b, sharing b's timestamp slice for the selected window, with
// numPackets of them considered valid.
func (b *Buffer) MakeChild(packetIndex, capacityPackets, numPackets int) *Buffer {
	return &Buffer{
		Buffer:     b.Buffer.MakeChild(packetIndex*b.packetSize, capacityPackets*b.packetSize, numPackets*b.packetSize),
		packetSize: b.packetSize,
		timestamps: b.timestamps[packetIndex : packetIndex+capacityPackets],
		numPackets: numPackets,
	}
}

// SetNumPackets sets the number of valid packets in the buffer,
// updating the underlying byte size accordingly.
func (b *Buffer) SetNumPackets(n int) {
	b.numPackets = n
	b.SetSize(n * b.packetSize)
}

// NumPackets returns the number of valid packets in the buffer.
func (b *Buffer) NumPackets() int { return b.numPackets }

// PacketSize returns the TS packet size (188 or 204).
func (b *Buffer) PacketSize() int { return b.packetSize }

// Packet returns a Packet view of the packet at the given index.
func (b *Buffer) Packet(index int) Packet {
	off := index * b.packetSize
	return NewPacket(b.Data()[off:off+b.packetSize], b.packetSize)
}

// Timestamp returns the timestamp, in 27MHz ticks, of the packet at index.
func (b *Buffer) Timestamp(index int) uint64 { return b.timestamps[index] }

// Timestamps returns the buffer's timestamp slice, one entry per packet.
func (b *Buffer) Timestamps() []uint64 { return b.timestamps }
