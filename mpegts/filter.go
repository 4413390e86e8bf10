package mpegts

// pcrSample pairs a PCR value with the absolute byte position (within
// the whole file) of the packet it was read from.
type pcrSample struct {
	pcr      uint64
	position uint64
}

// PCRFilter accumulates PCR samples per PID while scanning a TS file,
// so a bitrate estimate can be derived from the PID with the largest
// accumulated PCR span. Mirrors ipcaster's original PCRFilter.
type PCRFilter struct {
	byPID map[uint16][]pcrSample
}

// NewPCRFilter returns an empty filter.
func NewPCRFilter() *PCRFilter {
	return &PCRFilter{byPID: make(map[uint16][]pcrSample)}
}

// Push scans every packet in buf for a PCR and records it, using
// basePosition as the byte offset of buf's first packet within the file.
func (f *PCRFilter) Push(buf *Buffer, basePosition uint64) {
	n := buf.NumPackets()
	for i := 0; i < n; i++ {
		pkt := buf.Packet(i)
		if !pkt.HasPCR() {
			continue
		}
		f.byPID[pkt.PID()] = append(f.byPID[pkt.PID()], pcrSample{
			pcr:      pkt.PCR(),
			position: basePosition + uint64(i*buf.PacketSize()),
		})
	}
}

// GreatestPCRSpan returns the PID whose first-to-last PCR sample span
// is largest, along with that span in PCR ticks and in bytes. ok is
// false if no PID has accumulated at least two samples with nonzero span.
func (f *PCRFilter) GreatestPCRSpan() (pid uint16, pcrTicks uint64, bytes uint64, ok bool) {
	for p, samples := range f.byPID {
		if len(samples) < 2 {
			continue
		}
		span := PCRSub(samples[0].pcr, samples[len(samples)-1].pcr)
		if span > pcrTicks {
			pid = p
			pcrTicks = span
			bytes = samples[len(samples)-1].position - samples[0].position
			ok = true
		}
	}
	return
}
