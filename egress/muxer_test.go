package egress

import (
	"net"
	"testing"
	"time"

	"github.com/adolfomarver/ipcaster/mpegts"
)

func newLoopbackConn(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestDatagram(deadline time.Time, payload byte) *Datagram {
	buf := mpegts.NewBuffer(1, 188)
	buf.SetNumPackets(1)
	buf.Data()[0] = payload
	return &Datagram{Payload: buf, Deadline: deadline}
}

func TestStreamPopFrontRequiresPreroll(t *testing.T) {
	s := newStream("127.0.0.1", 9000, 16)

	base := time.Now()
	s.Push(newTestDatagram(base, 1))

	if _, ok := s.popFrontIfEligible(base.Add(time.Millisecond)); ok {
		t.Fatalf("expected no datagram eligible before preroll is banked")
	}

	// Bank enough preroll by pushing a datagram far enough ahead.
	s.Push(newTestDatagram(base.Add(DefaultPreroll+time.Millisecond), 2))

	startPoint := time.Now().Add(time.Hour)
	if _, ok := s.popFrontIfEligible(startPoint); ok {
		t.Fatalf("expected start_point-setting call to report the normalized deadline not yet passed")
	}
	if _, ok := s.popFrontIfEligible(startPoint.Add(time.Millisecond)); !ok {
		t.Fatalf("expected the front datagram to become eligible once preroll is banked and start_point has passed")
	}
}

func TestStreamPopFrontNormalizesDeadline(t *testing.T) {
	s := newStream("127.0.0.1", 9000, 16)

	base := time.Now()
	s.Push(newTestDatagram(base, 1))
	s.Push(newTestDatagram(base.Add(DefaultPreroll+10*time.Millisecond), 2))

	startPoint := time.Now().Add(time.Hour)
	s.popFrontIfEligible(startPoint) // banks preroll and sets start_point

	d, ok := s.popFrontIfEligible(startPoint.Add(time.Millisecond))
	if !ok {
		t.Fatalf("expected front datagram to be eligible")
	}

	// start_point anchors the stream's time zero, and the popped
	// datagram is the very first one pushed, so its normalized
	// deadline equals start_point exactly.
	if !d.Deadline.Equal(startPoint) {
		t.Fatalf("normalized deadline = %v, want %v", d.Deadline, startPoint)
	}
}

func TestMuxerDeliversDatagramsInOrder(t *testing.T) {
	senderConn := newLoopbackConn(t)

	recvConn := newLoopbackConn(t)
	recvAddr := recvConn.LocalAddr().(*net.UDPAddr)

	m := NewMuxer(senderConn, time.Millisecond)
	defer m.Close()

	s := m.CreateStream(recvAddr.IP.String(), uint16(recvAddr.Port), 16)

	base := time.Now()
	const n = 5
	for i := 0; i < n; i++ {
		s.Push(newTestDatagram(base.Add(time.Duration(i)*time.Millisecond), byte(i)))
	}
	// One more far enough ahead to force preroll and drain the rest.
	s.Push(newTestDatagram(base.Add(DefaultPreroll+10*time.Millisecond), byte(n)))

	recvConn.SetReadDeadline(time.Now().Add(2 * time.Second))

	buf := make([]byte, 188)
	for i := 0; i <= n; i++ {
		readN, _, err := recvConn.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("ReadFromUDP: %v", err)
		}
		if readN != 188 {
			t.Fatalf("read %d bytes, want 188", readN)
		}
		if buf[0] != byte(i) {
			t.Fatalf("datagram %d payload = %d, want %d", i, buf[0], i)
		}
	}
}

func TestMuxerRemoveStream(t *testing.T) {
	senderConn := newLoopbackConn(t)
	m := NewMuxer(senderConn, time.Millisecond)
	defer m.Close()

	s := m.CreateStream("127.0.0.1", 9001, 16)
	if got := len(m.Streams()); got != 1 {
		t.Fatalf("Streams() len = %d, want 1", got)
	}

	m.RemoveStream(s)
	if got := len(m.Streams()); got != 0 {
		t.Fatalf("Streams() len after RemoveStream = %d, want 0", got)
	}
}
