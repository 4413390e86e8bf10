package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// statsFrame is pushed once a second to every connected stats client.
// Supplements spec's observable metrics (bandwidth, burst, per-stream
// clock) with a push transport instead of polling GET /streams.
type statsFrame struct {
	BPS            uint64            `json:"bps"`
	MaxBurstMs     float64           `json:"max_burst_ms"`
	HighBurstCount uint32            `json:"high_burst_count"`
	Drops          uint64            `json:"drops"`
	Streams        []streamClockInfo `json:"streams"`
}

type streamClockInfo struct {
	TargetIP   string  `json:"ip"`
	TargetPort uint16  `json:"port"`
	ClockMs    float64 `json:"clock_ms"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStats upgrades the connection and pushes a statsFrame once a
// second until the client disconnects or a write fails.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		bps, maxBurst := s.muxer.OutputBandwidth()

		streams := s.muxer.Streams()
		clocks := make([]streamClockInfo, 0, len(streams))
		for _, st := range streams {
			clocks = append(clocks, streamClockInfo{
				TargetIP:   st.TargetIP(),
				TargetPort: st.TargetPort(),
				ClockMs:    float64(st.CurrentTime().Microseconds()) / 1000,
			})
		}

		frame := statsFrame{
			BPS:            bps,
			MaxBurstMs:     float64(maxBurst.Microseconds()) / 1000,
			HighBurstCount: s.muxer.HighBurstCount(),
			Drops:          s.muxer.Drops(),
			Streams:        clocks,
		}

		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}
