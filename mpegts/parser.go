package mpegts

import (
	"errors"
	"io"
	"os"
)

// ApproxReadSize is the target number of bytes fetched per Read call;
// it is rounded down to a whole number of packets.
const ApproxReadSize = 128 * 1024

// bitrateComputePCRDistance is the PCR span, in ticks, that must be
// observed on some PID before a bitrate estimate is attempted.
const bitrateComputePCRDistance = uint64(PCRClockFrequency * 3)

// syncScanSize is lcm(188, 204): large enough to contain three
// packets of either size so a sync pattern can always be confirmed
// within one scan buffer.
const syncScanSize = 9588

// FileParser opens an MPEG-TS file, discovers its packet size and
// sync position, estimates its bitrate from PCR samples, and then
// yields fixed-size packet buffers with synthetic CBR timestamps.
// Mirrors ipcaster's original MPEG2TSFileParser.
type FileParser struct {
	path string
	file *os.File

	packetSize      int
	initialSyncPos  int64
	perBufferPkts   int
	packetsRead     uint64
	bitrate         uint64
	estimatedBufPS  uint32
}

// Open opens path, locates the TS sync pattern, and computes the
// file's bitrate from its PCRs.
func Open(path string) (*FileParser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	p := &FileParser{path: path, file: f}

	if err := p.sync(); err != nil {
		f.Close()
		return nil, err
	}

	if err := p.computeBitrate(); err != nil {
		f.Close()
		return nil, err
	}

	return p, nil
}

// Close releases the underlying file handle.
func (p *FileParser) Close() error { return p.file.Close() }

// EstimatedBuffersPerSecond returns the estimated number of Read()
// buffers that represent one second of stream time.
func (p *FileParser) EstimatedBuffersPerSecond() uint32 { return p.estimatedBufPS }

// PacketSize returns the discovered TS packet size (188 or 204).
func (p *FileParser) PacketSize() int { return p.packetSize }

// Bitrate returns the computed bitrate in bits per second.
func (p *FileParser) Bitrate() uint64 { return p.bitrate }

// sync scans for three consecutive sync bytes at stride 188, then at
// stride 204, rewinding across scan-buffer boundaries so a straddling
// match is never missed.
func (p *FileParser) sync() error {
	scan := make([]byte, syncScanSize)

	var pos int64
	for {
		n, err := p.file.Read(scan)
		if n > 0 {
			buf := scan[:n]
			i := 0
			for i < n-204*3 {
				switch {
				case buf[i] == SyncByte && buf[i+188] == SyncByte && buf[i+188*2] == SyncByte:
					p.packetSize = 188
				case buf[i] == SyncByte && buf[i+204] == SyncByte && buf[i+204*2] == SyncByte:
					p.packetSize = 204
				default:
					i++
					continue
				}
				break
			}

			if p.packetSize != 0 {
				p.initialSyncPos = pos + int64(i)
				break
			}

			if n > 204*3 {
				// Rewind so a sync straddling this buffer boundary is
				// not missed on the next read.
				rewind := int64(204 * 3)
				if _, serr := p.file.Seek(-rewind, io.SeekCurrent); serr != nil {
					return serr
				}
				pos += int64(n) - rewind
			} else {
				pos += int64(n)
			}
		}

		if err != nil || n < len(scan) {
			break
		}
	}

	if p.packetSize == 0 {
		return &SyncError{Path: p.path}
	}

	p.perBufferPkts = ApproxReadSize / p.packetSize
	p.packetsRead = 0

	if _, err := p.file.Seek(p.initialSyncPos, io.SeekStart); err != nil {
		return err
	}

	return nil
}

// computeBitrate reads forward accumulating PCR samples until some PID
// reaches the required span, derives the bitrate from it, then
// rewinds to the first synced packet.
func (p *FileParser) computeBitrate() error {
	filter := NewPCRFilter()

	var span uint64
	var bytes uint64

	for span < bitrateComputePCRDistance {
		pos, err := p.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}

		buf, err := p.read()
		if err != nil {
			return err
		}
		if buf == nil {
			break
		}

		filter.Push(buf, uint64(pos))
		if _, s, b, ok := filter.GreatestPCRSpan(); ok {
			span, bytes = s, b
		}
	}

	if span == 0 {
		return &InsufficientPCRsError{Path: p.path}
	}

	p.bitrate = bytes * 8 * PCRClockFrequency / span

	perBuf := float64(p.perBufferPkts) * float64(p.packetSize) * 8
	est := uint32(float64(p.bitrate) / perBuf)
	if est < 1 {
		est = 1
	}
	p.estimatedBufPS = est

	if _, err := p.file.Seek(p.initialSyncPos, io.SeekStart); err != nil {
		return err
	}
	p.packetsRead = 0

	return nil
}

// Read returns the next chunk of up to ApproxReadSize/PacketSize()
// packets, with each packet's timestamp synthesized from the file's
// computed CBR bitrate. It returns (nil, nil) at EOF.
func (p *FileParser) Read() (*Buffer, error) {
	return p.read()
}

func (p *FileParser) read() (*Buffer, error) {
	buf := NewBuffer(p.perBufferPkts, p.packetSize)

	n, err := readFull(p.file, buf.Data())
	if err != nil {
		return nil, err
	}

	numPackets := n / p.packetSize
	if numPackets == 0 {
		return nil, nil
	}

	buf.SetNumPackets(numPackets)
	setTimestampsFromBitrate(buf.Timestamps(), p.packetsRead, p.bitrate, numPackets, p.packetSize)
	p.packetsRead += uint64(numPackets)

	return buf, nil
}

// readFull reads up to len(b) bytes, returning however many bytes were
// actually read (which may be fewer than len(b) at EOF) with a nil
// error, matching the original parser's short-read-at-EOF behavior.
func readFull(f *os.File, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := f.Read(b[total:])
		total += n
		if err != nil {
			if total > 0 || errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// setTimestampsFromBitrate assigns each packet's synthetic CBR
// timestamp, in 27MHz ticks, based on its cumulative packet index.
func setTimestampsFromBitrate(timestamps []uint64, basePacketIndex uint64, bitrate uint64, numPackets int, packetSize int) {
	for i := 0; i < numPackets; i++ {
		idx := basePacketIndex + uint64(i)
		timestamps[i] = uint64(float64(idx) * float64(packetSize) * 8 * PCRClockFrequency / float64(bitrate))
	}
}
