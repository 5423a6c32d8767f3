package protocol

import (
	"encoding/json"
	"testing"
)

// decode unmarshals a built request into a generic map for shape checks.
func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("builder produced invalid JSON: %v\nraw: %s", err, raw)
	}
	return m
}

func dig(t *testing.T, m map[string]any, path ...string) any {
	t.Helper()
	var cur any = m
	for _, key := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("path %v: %T is not an object", path, cur)
		}
		cur, ok = node[key]
		if !ok {
			t.Fatalf("path %v: key %q missing", path, key)
		}
	}
	return cur
}

func TestSysInfoRequest(t *testing.T) {
	raw := SysInfoRequest()

	want := `{"system":{"get_sysinfo":{}}}`
	if string(raw) != want {
		t.Errorf("SysInfoRequest() = %s, want %s", raw, want)
	}
}

func TestRelayStateRequest(t *testing.T) {
	tests := []struct {
		name     string
		childIDs []string
		on       bool
		wantBit  float64
	}{
		{"single outlet on", []string{"8006ABCD00"}, true, 1},
		{"single outlet off", []string{"8006ABCD00"}, false, 0},
		{"bulk on", []string{"8006ABCD00", "8006ABCD01", "8006ABCD02"}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, RelayStateRequest(tt.childIDs, tt.on))

			if got := dig(t, m, "system", "set_relay_state", "state"); got != tt.wantBit {
				t.Errorf("state bit = %v, want %v", got, tt.wantBit)
			}

			ids, ok := dig(t, m, "context", "child_ids").([]any)
			if !ok || len(ids) != len(tt.childIDs) {
				t.Fatalf("child_ids = %v, want %d entries", ids, len(tt.childIDs))
			}
			for i, id := range tt.childIDs {
				if ids[i] != id {
					t.Errorf("child_ids[%d] = %v, want %s", i, ids[i], id)
				}
			}
		})
	}
}

// The LED command family must use the inverted wire encoding: the device
// command is set_led_off, so off=0 lights the LEDs.
func TestLEDStateRequestInvertedEncoding(t *testing.T) {
	tests := []struct {
		name    string
		on      bool
		wantOff float64
	}{
		{"leds on means off=0", true, 0},
		{"leds off means off=1", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, LEDStateRequest(tt.on))
			if got := dig(t, m, "system", "set_led_off", "off"); got != tt.wantOff {
				t.Errorf("off bit = %v, want %v", got, tt.wantOff)
			}
		})
	}
}

func TestWireBitTable(t *testing.T) {
	// Relay and LED kinds must disagree on every state, the whole point
	// of keeping the encoding in a table.
	for _, on := range []bool{true, false} {
		if wireBit(kindRelay, on) == wireBit(kindLED, on) {
			t.Errorf("relay and LED encodings agree for on=%v; LED must be inverted", on)
		}
	}
}

func TestRealtimeEnergyRequest(t *testing.T) {
	m := decode(t, RealtimeEnergyRequest("8006ABCD03"))

	ids := dig(t, m, "context", "child_ids").([]any)
	if len(ids) != 1 || ids[0] != "8006ABCD03" {
		t.Errorf("child_ids = %v, want [8006ABCD03]", ids)
	}

	rt, ok := dig(t, m, "emeter", "get_realtime").(map[string]any)
	if !ok || len(rt) != 0 {
		t.Errorf("emeter.get_realtime = %v, want empty object", rt)
	}
}

func TestDayStatRequest(t *testing.T) {
	m := decode(t, DayStatRequest("8006ABCD02", 7, 2026))

	if got := dig(t, m, "emeter", "get_daystat", "month"); got != float64(7) {
		t.Errorf("month = %v, want 7", got)
	}
	if got := dig(t, m, "emeter", "get_daystat", "year"); got != float64(2026) {
		t.Errorf("year = %v, want 2026", got)
	}
}

func TestSetAliasRequest(t *testing.T) {
	m := decode(t, SetAliasRequest("8006ABCD01", "Desk Lamp"))

	if got := dig(t, m, "system", "set_dev_alias", "alias"); got != "Desk Lamp" {
		t.Errorf("alias = %v, want Desk Lamp", got)
	}
	ids := dig(t, m, "context", "child_ids").([]any)
	if len(ids) != 1 || ids[0] != "8006ABCD01" {
		t.Errorf("child_ids = %v, want [8006ABCD01]", ids)
	}
}

func TestRebootRequest(t *testing.T) {
	m := decode(t, RebootRequest(3))
	if got := dig(t, m, "system", "reboot", "delay"); got != float64(3) {
		t.Errorf("delay = %v, want 3", got)
	}
}

func TestWifiStationRequest(t *testing.T) {
	m := decode(t, WifiStationRequest("MyNet", "hunter22", 3))

	if got := dig(t, m, "netif", "set_stainfo", "ssid"); got != "MyNet" {
		t.Errorf("ssid = %v, want MyNet", got)
	}
	if got := dig(t, m, "netif", "set_stainfo", "password"); got != "hunter22" {
		t.Errorf("password = %v, want hunter22", got)
	}
	if got := dig(t, m, "netif", "set_stainfo", "key_type"); got != float64(3) {
		t.Errorf("key_type = %v, want 3", got)
	}
}

func TestCloudServerRequest(t *testing.T) {
	m := decode(t, CloudServerRequest(""))
	if got := dig(t, m, "cnCloud", "set_server_url", "server"); got != "" {
		t.Errorf("server = %v, want empty string", got)
	}
}
