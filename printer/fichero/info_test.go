package fichero

import (
	"testing"
	"time"
)

// replyWith wires a writer that answers every command with the given
// fragments.
func clientReplying(fragments ...[]byte) *Client {
	w := &fakeWriter{}
	c := NewClient(w)
	w.onWrite = func(data []byte) {
		for _, f := range fragments {
			c.HandleNotification(f)
		}
	}
	return c
}

func TestTextQueryTrimsReply(t *testing.T) {
	c := clientReplying([]byte(" D11s \r\n"))
	model, err := c.Model()
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	if model != "D11s" {
		t.Errorf("Expected trimmed model name, got %q", model)
	}
}

func TestTextQuerySentinelOnSilence(t *testing.T) {
	c := clientReplying() // writer never notifies
	c.commandTimeout = 50 * time.Millisecond

	model, err := c.Model()
	if err != nil {
		t.Fatalf("Silence should yield the sentinel, not an error: %v", err)
	}
	if model != "?" {
		t.Errorf("Expected \"?\", got %q", model)
	}
}

func TestBatteryReply(t *testing.T) {
	c := clientReplying([]byte{0x01, 0x62})
	level, err := c.Battery()
	if err != nil || level != 98 {
		t.Errorf("Expected battery 98, got %v, %v", level, err)
	}
}

func TestBatteryShortReplySentinel(t *testing.T) {
	c := clientReplying([]byte{0x62})
	level, err := c.Battery()
	if err != nil || level != -1 {
		t.Errorf("Short reply should yield -1, got %v, %v", level, err)
	}
}

func TestShutdownTimeoutBigEndian(t *testing.T) {
	c := clientReplying([]byte{0x01, 0x2C})
	minutes, err := c.ShutdownTimeout()
	if err != nil || minutes != 300 {
		t.Errorf("Expected 300 minutes, got %v, %v", minutes, err)
	}
}

func TestStatusQuery(t *testing.T) {
	c := clientReplying([]byte{0x50})
	s, err := c.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !s.Overheated || s.Charging || s.Ready() {
		t.Errorf("0x50 should decode as overheated and not ready: %+v", s)
	}
}

func TestStatusSilenceDecodesAsBlocked(t *testing.T) {
	c := clientReplying()
	c.commandTimeout = 50 * time.Millisecond

	s, err := c.Status()
	if err != nil {
		t.Fatalf("Status silence should degrade, not fail: %v", err)
	}
	if s.Ready() {
		t.Errorf("Unknown status must not report ready")
	}
}

func TestInfoParsed(t *testing.T) {
	c := clientReplying([]byte("D11s_1234|AA:BB:CC:DD:EE:FF|11:22:33:44:55:66|2.4.6|SN0042|87"))
	info, err := c.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if !info.Parsed() {
		t.Fatalf("Expected parsed record, got raw %q", info.Raw)
	}
	if info.Name != "D11s_1234" || info.Firmware != "2.4.6" || info.Serial != "SN0042" {
		t.Errorf("Fields misparsed: %+v", info)
	}
	if info.Battery != "87%" {
		t.Errorf("Expected battery 87%%, got %q", info.Battery)
	}
}

func TestInfoMalformedFallsBackToRaw(t *testing.T) {
	c := clientReplying([]byte("bogus record"))
	info, err := c.Info()
	if err != nil {
		t.Fatalf("Malformed info must not fail: %v", err)
	}
	if info.Parsed() || info.Raw != "bogus record" {
		t.Errorf("Expected raw fallback, got %+v", info)
	}
}

func TestConfigWriteAckSemantics(t *testing.T) {
	cases := []struct {
		name     string
		reply    []byte
		expected bool
	}{
		{"ack", []byte("OK"), true},
		{"nack", []byte("NO"), false},
		{"empty", []byte{}, false},
		{"ack with trailer", []byte("OK1"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := clientReplying(tc.reply)
			ok, err := c.SetDensity(1)
			if err != nil {
				t.Fatalf("Config write must report a bool, not fail: %v", err)
			}
			if ok != tc.expected {
				t.Errorf("Reply %q: expected %v, got %v", tc.reply, tc.expected, ok)
			}
		})
	}
}

func TestSetDensityValidatesLevel(t *testing.T) {
	c := clientReplying([]byte("OK"))
	if _, err := c.SetDensity(3); err == nil {
		t.Errorf("Expected error for out-of-range density")
	}
}

func TestStopPrintDualAcceptance(t *testing.T) {
	cases := []struct {
		name     string
		reply    []byte
		expected bool
	}{
		{"marker byte", []byte{0xAA}, true},
		{"ack token prefix", []byte("OK\r\n"), true},
		{"neither", []byte("NG"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := clientReplying(tc.reply)
			ok, err := c.StopPrint()
			if err != nil {
				t.Fatalf("StopPrint failed: %v", err)
			}
			if ok != tc.expected {
				t.Errorf("Reply % X: expected %v, got %v", tc.reply, tc.expected, ok)
			}
		})
	}
}

func TestStopPrintTimeoutIsNotFatal(t *testing.T) {
	c := clientReplying()
	c.stopTimeout = 50 * time.Millisecond

	ok, err := c.StopPrint()
	if err != nil {
		t.Fatalf("Stop timeout should degrade to false: %v", err)
	}
	if ok {
		t.Errorf("Silence must not count as acknowledgement")
	}
}
