package mpegts

import "testing"

func newTestPacket(pid uint16, withPCR bool, pcr uint64) []byte {
	buf := make([]byte, 188)
	buf[0] = SyncByte
	p := NewPacket(buf, 188)
	p.SetAFC(1)
	p.SetPID(pid)

	if withPCR {
		buf[3] = (buf[3] &^ 0x30) | 0x20 // AFC with adaptation field present
		buf[4] = 7                      // adaptation field length
		buf[5] = 0x10                   // PCR flag

		base := pcr / 300
		ext := pcr % 300

		buf[6] = byte(base >> 25)
		buf[7] = byte(base >> 17)
		buf[8] = byte(base >> 9)
		buf[9] = byte(base >> 1)
		buf[10] = byte(base<<7) | byte(ext>>8) | 0x7E
		buf[11] = byte(ext)
	}

	return buf
}

func TestPacketPIDRoundTrip(t *testing.T) {
	buf := newTestPacket(0x1FFF, false, 0)
	p := NewPacket(buf, 188)

	if !p.Valid() {
		t.Fatalf("expected valid sync byte")
	}
	if got := p.PID(); got != 0x1FFF {
		t.Fatalf("PID() = %#x, want 0x1FFF", got)
	}

	p.SetPID(0x0042)
	if got := p.PID(); got != 0x0042 {
		t.Fatalf("PID() after SetPID = %#x, want 0x0042", got)
	}
}

func TestPacketCCRoundTrip(t *testing.T) {
	buf := newTestPacket(0, false, 0)
	p := NewPacket(buf, 188)

	for cc := uint8(0); cc < 16; cc++ {
		p.SetCC(cc)
		if got := p.CC(); got != cc {
			t.Fatalf("CC() = %d, want %d", got, cc)
		}
	}
}

func TestPacketPCRExtraction(t *testing.T) {
	want := uint64(1234567890)
	buf := newTestPacket(0x100, true, want)
	p := NewPacket(buf, 188)

	if !p.HasPCR() {
		t.Fatalf("expected HasPCR() to be true")
	}
	if got := p.PCR(); got != want {
		t.Fatalf("PCR() = %d, want %d", got, want)
	}
}

func TestPacketNoPCRWithoutFlag(t *testing.T) {
	buf := newTestPacket(0x100, false, 0)
	p := NewPacket(buf, 188)

	if p.HasPCR() {
		t.Fatalf("expected HasPCR() to be false without adaptation field")
	}
}

func TestPCRSubWraps(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		{0, 100, 100},
		{100, 100, 0},
		{PCRMax, 0, 1},
		{PCRMax - 1, 1, 3},
	}

	for _, c := range cases {
		if got := PCRSub(c.a, c.b); got != c.want {
			t.Errorf("PCRSub(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
