package powerstrip

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xtort/kasa-hs300/internal/logging"
	"github.com/xtort/kasa-hs300/internal/protocol"
	"github.com/xtort/kasa-hs300/internal/transport"
)

const (
	// DefaultPort is the fixed device port.
	DefaultPort = transport.DefaultPort

	// DefaultTimeout matches the vendor tooling's 2 second default.
	DefaultTimeout = transport.DefaultTimeout
)

// Strip is one device session. Configure the exported fields before
// Connect; after Connect they must not be changed.
type Strip struct {
	Address   string
	Port      int
	Timeout   time.Duration
	Preferred transport.Proto

	conn *transport.Client

	deviceID  string
	alias     string
	model     string
	swVersion string
	mac       string

	// outlets is populated exactly once, on the first successful system
	// info query. Refreshes update entries in place and never reorder.
	outlets   []*Outlet
	connected bool
}

// New creates an unconnected session for the strip at address with
// protocol defaults: port 9999, 2 second timeout, TCP preferred.
func New(address string) *Strip {
	return &Strip{
		Address:   address,
		Port:      DefaultPort,
		Timeout:   DefaultTimeout,
		Preferred: transport.TCP,
	}
}

func (s *Strip) addr() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// Connect issues the first system info query and populates the outlet
// registry. The query is tried over the preferred transport and falls
// back once to the other; later operations always use the preferred
// transport again.
func (s *Strip) Connect() error {
	if s.Address == "" {
		return NewValidationError("device address is required")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return NewValidationError(fmt.Sprintf("invalid port %d", s.Port))
	}

	s.conn = transport.NewClient(s.Address, s.Port, s.Timeout, s.Preferred)

	info, err := s.querySysInfo()
	if err != nil {
		return err
	}

	s.deviceID = info.DeviceID
	s.alias = info.Alias
	s.model = info.Model
	s.swVersion = info.SWVersion
	s.mac = info.MAC

	s.outlets = make([]*Outlet, 0, len(info.Children))
	for i, child := range info.Children {
		s.outlets = append(s.outlets, &Outlet{
			Slot:    i + 1,
			ChildID: child.ID,
			Name:    child.Alias,
			State:   stateFromWire(child.State),
			OnTime:  time.Duration(child.OnTime) * time.Second,
		})
	}
	s.connected = true

	logging.Info("connected to power strip",
		zap.String("device", s.addr()),
		zap.String("alias", s.alias),
		zap.String("model", s.model),
		zap.Int("outlets", len(s.outlets)),
	)
	return nil
}

// Close ends the session. There is no socket to tear down - transports
// are per-request - so this only forgets the connected state.
func (s *Strip) Close() {
	s.connected = false
}

// Connected reports whether Connect has succeeded on this session.
func (s *Strip) Connected() bool {
	return s.connected
}

func (s *Strip) requireConnected() error {
	if !s.connected {
		return NewValidationError("not connected (call Connect first)")
	}
	return nil
}

// querySysInfo runs the system info query with transport fallback and
// parses the reply.
func (s *Strip) querySysInfo() (*protocol.SysInfo, error) {
	raw, err := s.conn.SendWithFallback(protocol.SysInfoRequest())
	if err != nil {
		return nil, NewConnectionError("system info query failed", err, s.addr())
	}
	info, err := protocol.ParseSysInfo(raw)
	if err != nil {
		return nil, NewUnexpectedResponseError("bad system info reply", err)
	}
	return info, nil
}

// RefreshStatus re-queries system info and updates state, name and
// on-time on the existing outlets in place, matching on child id. The
// registry never grows, shrinks or reorders after Connect; a failed
// refresh leaves it untouched.
func (s *Strip) RefreshStatus() error {
	if err := s.requireConnected(); err != nil {
		return err
	}

	info, err := s.querySysInfo()
	if err != nil {
		return err
	}

	s.alias = info.Alias
	for _, child := range info.Children {
		outlet := s.outletByChildID(child.ID)
		if outlet == nil {
			// A child we did not see at connect time; registry size is
			// fixed for the session, so skip it.
			logging.Warn("refresh reported unknown outlet",
				zap.String("device", s.addr()),
				zap.String("child_id", child.ID),
			)
			continue
		}
		outlet.Name = child.Alias
		outlet.State = stateFromWire(child.State)
		outlet.OnTime = time.Duration(child.OnTime) * time.Second
	}
	return nil
}

func (s *Strip) outletByChildID(id string) *Outlet {
	for _, o := range s.outlets {
		if o.ChildID == id {
			return o
		}
	}
	return nil
}

// childID returns the full child identifier for protocol calls. Some
// firmware reports children with the bare 2-digit suffix, which must be
// prefixed with the device id on the wire.
func (s *Strip) childID(o *Outlet) string {
	if len(o.ChildID) > 2 {
		return o.ChildID
	}
	return s.deviceID + o.ChildID
}

// OutletBySlot returns the outlet in the given 1-based slot. A slot
// below 1 is a validation error; a slot past the end of the strip does
// not resolve and is a not-found error.
func (s *Strip) OutletBySlot(slot int) (*Outlet, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	if slot < 1 {
		return nil, NewValidationError(fmt.Sprintf("slot %d out of range (slots are 1-based)", slot))
	}
	if slot > len(s.outlets) {
		return nil, NewNotFoundError(fmt.Sprintf("no outlet in slot %d (strip has %d)", slot, len(s.outlets)))
	}
	return s.outlets[slot-1], nil
}

// OutletByName returns the first outlet whose current name matches
// exactly, in slot order. Device-reported names are not guaranteed
// unique; on a collision the lowest slot wins, deterministically.
func (s *Strip) OutletByName(name string) (*Outlet, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, NewValidationError("outlet name is empty")
	}
	for _, o := range s.outlets {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, NewNotFoundError(fmt.Sprintf("no outlet named %q", name))
}

// Resolve maps a selector to its outlet.
func (s *Strip) Resolve(sel Selector) (*Outlet, error) {
	switch {
	case sel.Slot != 0:
		return s.OutletBySlot(sel.Slot)
	case sel.Name != "":
		return s.OutletByName(sel.Name)
	default:
		return nil, NewValidationError("selector must give a slot number or a name")
	}
}

// SetOutlet switches one outlet. On acknowledgment the in-memory state
// is updated optimistically; no re-query is issued, so out-of-band
// changes are only visible after RefreshStatus. No transport fallback:
// a lost acknowledgment on a relay command must surface, not be retried
// into a double toggle.
func (s *Strip) SetOutlet(sel Selector, state State) error {
	outlet, err := s.Resolve(sel)
	if err != nil {
		return err
	}

	payload := protocol.RelayStateRequest([]string{s.childID(outlet)}, state == On)
	raw, err := s.conn.Send(payload)
	if err != nil {
		return NewConnectionError(fmt.Sprintf("relay command for %s failed", sel), err, s.addr())
	}
	if err := protocol.ParseRelayAck(raw); err != nil {
		return NewUnexpectedResponseError("relay command not acknowledged", err)
	}

	outlet.State = state
	logging.Info("outlet switched",
		zap.String("device", s.addr()),
		zap.Int("slot", outlet.Slot),
		zap.String("state", state.String()),
	)
	return nil
}

// SetAll switches every outlet with one bulk relay command addressed to
// all child ids. All in-memory states update optimistically on success.
func (s *Strip) SetAll(state State) error {
	if err := s.requireConnected(); err != nil {
		return err
	}

	ids := make([]string, 0, len(s.outlets))
	for _, o := range s.outlets {
		ids = append(ids, s.childID(o))
	}

	raw, err := s.conn.Send(protocol.RelayStateRequest(ids, state == On))
	if err != nil {
		return NewConnectionError("bulk relay command failed", err, s.addr())
	}
	if err := protocol.ParseRelayAck(raw); err != nil {
		return NewUnexpectedResponseError("bulk relay command not acknowledged", err)
	}

	for _, o := range s.outlets {
		o.State = state
	}
	logging.Info("all outlets switched",
		zap.String("device", s.addr()),
		zap.String("state", state.String()),
		zap.Int("outlets", len(s.outlets)),
	)
	return nil
}

// IsOn reports whether the selected outlet's last-known state is on.
func (s *Strip) IsOn(sel Selector) (bool, error) {
	outlet, err := s.Resolve(sel)
	if err != nil {
		return false, err
	}
	return outlet.State == On, nil
}

// PowerDraw reads the selected outlet's realtime energy meter. A strip
// without metering support yields a reading with Supported == false,
// not an error.
func (s *Strip) PowerDraw(sel Selector) (*protocol.EnergyReading, error) {
	outlet, err := s.Resolve(sel)
	if err != nil {
		return nil, err
	}

	raw, err := s.conn.Send(protocol.RealtimeEnergyRequest(s.childID(outlet)))
	if err != nil {
		return nil, NewConnectionError(fmt.Sprintf("energy query for %s failed", sel), err, s.addr())
	}
	reading, err := protocol.ParseRealtimeEnergy(raw)
	if err != nil {
		return nil, NewUnexpectedResponseError("bad energy reply", err)
	}
	return reading, nil
}

// EnergyDayStats reads per-day cumulative energy for a calendar month.
func (s *Strip) EnergyDayStats(sel Selector, month, year int) ([]protocol.DayStat, error) {
	if month < 1 || month > 12 {
		return nil, NewValidationError(fmt.Sprintf("invalid month %d", month))
	}
	outlet, err := s.Resolve(sel)
	if err != nil {
		return nil, err
	}

	raw, err := s.conn.Send(protocol.DayStatRequest(s.childID(outlet), month, year))
	if err != nil {
		return nil, NewConnectionError(fmt.Sprintf("day stat query for %s failed", sel), err, s.addr())
	}
	stats, err := protocol.ParseDayStat(raw)
	if err != nil {
		return nil, NewUnexpectedResponseError("bad day stat reply", err)
	}
	return stats, nil
}

// SetOutletName renames an outlet on the device and updates the
// in-memory name optimistically.
func (s *Strip) SetOutletName(sel Selector, name string) error {
	if name == "" {
		return NewValidationError("outlet name must not be empty")
	}
	outlet, err := s.Resolve(sel)
	if err != nil {
		return err
	}

	raw, err := s.conn.Send(protocol.SetAliasRequest(s.childID(outlet), name))
	if err != nil {
		return NewConnectionError(fmt.Sprintf("rename command for %s failed", sel), err, s.addr())
	}
	if err := protocol.ParseAck(raw, "system", "set_dev_alias"); err != nil {
		return NewUnexpectedResponseError("rename not acknowledged", err)
	}

	outlet.Name = name
	return nil
}

// SetLEDs switches the relay status LEDs on the strip's face.
func (s *Strip) SetLEDs(state State) error {
	if err := s.requireConnected(); err != nil {
		return err
	}

	raw, err := s.conn.Send(protocol.LEDStateRequest(state == On))
	if err != nil {
		return NewConnectionError("LED command failed", err, s.addr())
	}
	if err := protocol.ParseAck(raw, "system", "set_led_off"); err != nil {
		return NewUnexpectedResponseError("LED command not acknowledged", err)
	}
	return nil
}

// Reboot reboots the strip after the given delay. Relay states persist
// across a reboot; the session stays usable once the strip is back.
func (s *Strip) Reboot(delay time.Duration) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	if delay < 0 {
		return NewValidationError("reboot delay must not be negative")
	}

	raw, err := s.conn.Send(protocol.RebootRequest(int(delay / time.Second)))
	if err != nil {
		return NewConnectionError("reboot command failed", err, s.addr())
	}
	if err := protocol.ParseAck(raw, "system", "reboot"); err != nil {
		return NewUnexpectedResponseError("reboot not acknowledged", err)
	}
	return nil
}

// SetWifiCredentials points the strip at a wireless network. The
// credentials pass through verbatim; keyType is the vendor encoding
// (3 WPA2, 2 WPA, 1 WEP, 0 open).
func (s *Strip) SetWifiCredentials(ssid, psk string, keyType int) error {
	if err := s.requireConnected(); err != nil {
		return err
	}
	if ssid == "" {
		return NewValidationError("ssid must not be empty")
	}

	raw, err := s.conn.Send(protocol.WifiStationRequest(ssid, psk, keyType))
	if err != nil {
		return NewConnectionError("wifi provisioning failed", err, s.addr())
	}
	if err := protocol.ParseAck(raw, "netif", "set_stainfo"); err != nil {
		return NewUnexpectedResponseError("wifi provisioning not acknowledged", err)
	}
	return nil
}

// SetCloudServerURL changes the strip's cloud endpoint. An empty URL
// detaches it from the vendor cloud so it only answers on the LAN.
func (s *Strip) SetCloudServerURL(url string) error {
	if err := s.requireConnected(); err != nil {
		return err
	}

	raw, err := s.conn.Send(protocol.CloudServerRequest(url))
	if err != nil {
		return NewConnectionError("cloud server command failed", err, s.addr())
	}
	if err := protocol.ParseAck(raw, "cnCloud", "set_server_url"); err != nil {
		return NewUnexpectedResponseError("cloud server command not acknowledged", err)
	}
	return nil
}

// OutletCount returns the number of outlets on the strip.
func (s *Strip) OutletCount() int {
	return len(s.outlets)
}

// Outlets returns a snapshot copy of the outlet registry in slot order.
// Mutating the snapshot does not affect the session.
func (s *Strip) Outlets() []Outlet {
	snapshot := make([]Outlet, len(s.outlets))
	for i, o := range s.outlets {
		snapshot[i] = *o
	}
	return snapshot
}

// Info returns a snapshot of the device identity.
func (s *Strip) Info() DeviceInfo {
	return DeviceInfo{
		Address:     s.Address,
		Port:        s.Port,
		DeviceID:    s.deviceID,
		Alias:       s.alias,
		Model:       s.model,
		SWVersion:   s.swVersion,
		MAC:         s.mac,
		OutletCount: len(s.outlets),
	}
}
