// Package scheduler is the façade that owns every active stream: it
// allocates ids, wires a file Source to a Muxer Stream, and reacts to
// end-of-file or error by tearing the stream down. Grounded on
// ipcaster's original IPCaster.hpp / Stream.hpp.
package scheduler

import (
	"github.com/adolfomarver/ipcaster/egress"
	"github.com/adolfomarver/ipcaster/mpegts"
	"github.com/adolfomarver/ipcaster/smpte2022"
	"github.com/adolfomarver/ipcaster/source"
)

// Handle identifies one active stream: its source file, target
// endpoint, and the internal objects the Scheduler must tear down
// when it's removed.
type Handle struct {
	ID         uint64
	Path       string
	TargetIP   string
	TargetPort uint16

	parser *mpegts.FileParser
	enc    *smpte2022.Encapsulator
	source *source.Source
	stream *egress.Stream
}
