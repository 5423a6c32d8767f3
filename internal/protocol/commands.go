package protocol

import "encoding/json"

// Request builders for the command families the HS300 understands.
// Each builder returns the plaintext JSON body; the transport layer is
// responsible for obfuscation and framing.

// commandKind identifies a command family for state-bit encoding.
type commandKind int

const (
	kindRelay commandKind = iota
	kindLED
)

// wireBits maps a command kind to its {off, on} wire encoding. The relay
// family uses the obvious 1=on; the LED family is inverted because the
// device command is literally "set_led_off".
var wireBits = map[commandKind][2]int{
	kindRelay: {0, 1},
	kindLED:   {1, 0},
}

func wireBit(kind commandKind, on bool) int {
	bits := wireBits[kind]
	if on {
		return bits[1]
	}
	return bits[0]
}

// envelope is the top-level request shape. Exactly the namespaces that
// are set get marshalled; the device rejects unknown top-level keys.
type envelope struct {
	Context *contextNS `json:"context,omitempty"`
	System  *systemNS  `json:"system,omitempty"`
	Emeter  *emeterNS  `json:"emeter,omitempty"`
	Netif   *netifNS   `json:"netif,omitempty"`
	CnCloud *cloudNS   `json:"cnCloud,omitempty"`
}

type contextNS struct {
	ChildIDs []string `json:"child_ids"`
}

type systemNS struct {
	GetSysinfo    *struct{}      `json:"get_sysinfo,omitempty"`
	SetRelayState *relayState    `json:"set_relay_state,omitempty"`
	SetDevAlias   *devAlias      `json:"set_dev_alias,omitempty"`
	SetLEDOff     *ledState      `json:"set_led_off,omitempty"`
	Reboot        *rebootRequest `json:"reboot,omitempty"`
}

type relayState struct {
	State int `json:"state"`
}

type devAlias struct {
	Alias string `json:"alias"`
}

type ledState struct {
	Off int `json:"off"`
}

type rebootRequest struct {
	Delay int `json:"delay"`
}

type emeterNS struct {
	GetRealtime *struct{}    `json:"get_realtime,omitempty"`
	GetDayStat  *dayStatSpan `json:"get_daystat,omitempty"`
}

type dayStatSpan struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type netifNS struct {
	SetStaInfo *staInfo `json:"set_stainfo,omitempty"`
}

// staInfo carries WiFi credentials verbatim. No validation of the
// credential format happens at this layer.
type staInfo struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
	KeyType  int    `json:"key_type"`
}

type cloudNS struct {
	SetServerURL *serverURL `json:"set_server_url,omitempty"`
}

type serverURL struct {
	Server string `json:"server"`
}

// marshal serializes an envelope. The envelope types contain nothing
// json.Marshal can fail on, so the error is discarded.
func marshal(env envelope) []byte {
	b, _ := json.Marshal(env)
	return b
}

// SysInfoRequest builds the system info query. This is the only command
// sent before the session knows its child ids.
func SysInfoRequest() []byte {
	return marshal(envelope{System: &systemNS{GetSysinfo: &struct{}{}}})
}

// RelayStateRequest builds a relay switch command targeting one or more
// outlets by their full child ids.
func RelayStateRequest(childIDs []string, on bool) []byte {
	return marshal(envelope{
		Context: &contextNS{ChildIDs: childIDs},
		System:  &systemNS{SetRelayState: &relayState{State: wireBit(kindRelay, on)}},
	})
}

// RealtimeEnergyRequest builds a realtime energy meter query for one
// outlet.
func RealtimeEnergyRequest(childID string) []byte {
	return marshal(envelope{
		Context: &contextNS{ChildIDs: []string{childID}},
		Emeter:  &emeterNS{GetRealtime: &struct{}{}},
	})
}

// DayStatRequest builds a per-day cumulative energy query for one outlet
// over a calendar month.
func DayStatRequest(childID string, month, year int) []byte {
	return marshal(envelope{
		Context: &contextNS{ChildIDs: []string{childID}},
		Emeter:  &emeterNS{GetDayStat: &dayStatSpan{Month: month, Year: year}},
	})
}

// SetAliasRequest builds an outlet rename command.
func SetAliasRequest(childID, alias string) []byte {
	return marshal(envelope{
		Context: &contextNS{ChildIDs: []string{childID}},
		System:  &systemNS{SetDevAlias: &devAlias{Alias: alias}},
	})
}

// LEDStateRequest builds the relay status LED toggle. Note the inverted
// wire encoding, see wireBits.
func LEDStateRequest(on bool) []byte {
	return marshal(envelope{
		System: &systemNS{SetLEDOff: &ledState{Off: wireBit(kindLED, on)}},
	})
}

// RebootRequest builds a device reboot command with a delay in seconds.
func RebootRequest(delaySeconds int) []byte {
	return marshal(envelope{
		System: &systemNS{Reboot: &rebootRequest{Delay: delaySeconds}},
	})
}

// WifiStationRequest builds the WiFi provisioning command. keyType is the
// vendor's encoding: 3 for WPA2, 2 for WPA, 1 for WEP, 0 for open.
func WifiStationRequest(ssid, psk string, keyType int) []byte {
	return marshal(envelope{
		Netif: &netifNS{SetStaInfo: &staInfo{SSID: ssid, Password: psk, KeyType: keyType}},
	})
}

// CloudServerRequest builds the cloud server URL command. An empty URL
// detaches the strip from the vendor cloud, keeping it local-only.
func CloudServerRequest(url string) []byte {
	return marshal(envelope{
		CnCloud: &cloudNS{SetServerURL: &serverURL{Server: url}},
	})
}
