// Package smpte2022 implements the SMPTE 2022-2 encapsulation of an
// MPEG-2 transport stream into UDP datagram payloads, without the RTP
// header SMPTE 2022-2 normally layers on top. Grounded on ipcaster's
// original smpte2022/SMPTE2022Encapsulator.hpp.
package smpte2022

import (
	"github.com/adolfomarver/ipcaster/egress"
	"github.com/adolfomarver/ipcaster/mpegts"
)

// PacketsPerDatagram is the fixed number of TS packets placed in each
// outgoing datagram. The original leaves this configurable as a
// future todo; ipcaster never exposes it, so it stays a constant here.
const PacketsPerDatagram = 7

// Consumer receives the datagrams produced by an Encapsulator.
type Consumer interface {
	Push(d *egress.Datagram)
	Flush()
	Close()
}

// Encapsulator groups incoming TS packets into fixed-size SMPTE 2022-2
// datagrams and pushes each completed one to its Consumer. A datagram
// left unfinished at the end of one Push call is completed, or pushed
// incomplete on Flush, by the next call.
type Encapsulator struct {
	consumer Consumer

	targetIP   string
	targetPort uint16

	unfinished     *mpegts.Buffer
	unfinishedTime uint64
}

// New creates an Encapsulator that sends completed datagrams to
// consumer, addressed to targetIP:targetPort.
func New(consumer Consumer, targetIP string, targetPort uint16) *Encapsulator {
	return &Encapsulator{consumer: consumer, targetIP: targetIP, targetPort: targetPort}
}

// Push encapsulates buf's packets into datagrams of PacketsPerDatagram
// packets each, pushing every completed datagram to the consumer. Any
// trailing packets that don't fill a whole datagram are held until
// the next Push call or Flush.
func (e *Encapsulator) Push(buf *mpegts.Buffer) {
	numPackets := buf.NumPackets()

	pktIndex := 0
	if e.unfinished != nil {
		pktIndex = e.consumeIntoUnfinished(buf, numPackets)
	}

	for pktIndex+PacketsPerDatagram <= numPackets {
		payload := buf.MakeChild(pktIndex, PacketsPerDatagram, PacketsPerDatagram)
		e.consumer.Push(&egress.Datagram{
			TargetIP:   e.targetIP,
			TargetPort: e.targetPort,
			Payload:    payload,
			Deadline:   egress.DeadlineFromTicks(buf.Timestamp(pktIndex)),
		})
		pktIndex += PacketsPerDatagram
	}

	if remaining := numPackets - pktIndex; remaining > 0 {
		e.storeUnfinished(buf, pktIndex, remaining)
	}
}

// Flush forces any partially-filled datagram out to the consumer, then
// flushes the consumer itself.
func (e *Encapsulator) Flush() {
	if e.unfinished != nil {
		e.consumer.Push(&egress.Datagram{
			TargetIP:   e.targetIP,
			TargetPort: e.targetPort,
			Payload:    e.unfinished,
			Deadline:   egress.DeadlineFromTicks(e.unfinishedTime),
		})
		e.unfinished = nil
	}

	e.consumer.Flush()
}

// Close releases the consumer's resources. Call after the last Push.
func (e *Encapsulator) Close() {
	e.consumer.Close()
}

// consumeIntoUnfinished completes e.unfinished with packets taken from
// the front of buf, pushing it once full, and returns the number of
// packets consumed.
func (e *Encapsulator) consumeIntoUnfinished(buf *mpegts.Buffer, numPackets int) int {
	have := e.unfinished.NumPackets()
	need := PacketsPerDatagram - have
	toCopy := need
	if numPackets < toCopy {
		toCopy = numPackets
	}

	dst := e.unfinished.Data()[have*buf.PacketSize():]
	src := buf.Data()[:toCopy*buf.PacketSize()]
	copy(dst, src)
	e.unfinished.SetNumPackets(have + toCopy)

	if e.unfinished.NumPackets() == PacketsPerDatagram {
		e.consumer.Push(&egress.Datagram{
			TargetIP:   e.targetIP,
			TargetPort: e.targetPort,
			Payload:    e.unfinished,
			Deadline:   egress.DeadlineFromTicks(e.unfinishedTime),
		})
		e.unfinished = nil
	}

	return toCopy
}

// storeUnfinished copies the remaining packets of buf, starting at
// pktIndex, into a fresh partial datagram buffer to be completed on
// the next Push.
func (e *Encapsulator) storeUnfinished(buf *mpegts.Buffer, pktIndex, numPackets int) {
	payload := mpegts.NewBuffer(PacketsPerDatagram, buf.PacketSize())
	e.unfinishedTime = buf.Timestamp(pktIndex)

	copy(payload.Data(), buf.Data()[pktIndex*buf.PacketSize():(pktIndex+numPackets)*buf.PacketSize()])
	payload.SetNumPackets(numPackets)

	e.unfinished = payload
}
