package powerstrip

import (
	"fmt"
	"strings"
	"time"
)

// State is an outlet relay state.
type State int

const (
	Off State = iota
	On
)

// String returns the lowercase state name used on the CLI and API.
func (s State) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// MarshalJSON encodes the state as its string name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ParseState parses "on" or "off" (case-insensitive). Anything else is a
// validation error, raised before any network call.
func ParseState(s string) (State, error) {
	switch strings.ToLower(s) {
	case "on":
		return On, nil
	case "off":
		return Off, nil
	default:
		return Off, NewValidationError(fmt.Sprintf("invalid state %q (must be on or off)", s))
	}
}

// stateFromWire converts the device's 0/1 relay state field.
func stateFromWire(bit int) State {
	if bit == 1 {
		return On
	}
	return Off
}

// Outlet is one switched socket on the strip. Slot is the 1-based
// position, stable for the session; ChildID is the device's opaque
// identifier used in protocol calls; Name is the user-assigned label
// from the Kasa app and may change between refreshes.
type Outlet struct {
	Slot    int           `json:"slot"`
	ChildID string        `json:"child_id"`
	Name    string        `json:"name"`
	State   State         `json:"state"`
	OnTime  time.Duration `json:"-"`
}

// Selector addresses one outlet by slot number or by name. Exactly one
// field is set; the zero Selector is invalid.
type Selector struct {
	Slot int
	Name string
}

// BySlot selects an outlet by its 1-based slot number.
func BySlot(n int) Selector {
	return Selector{Slot: n}
}

// ByName selects an outlet by its current device-reported name.
// Matching is exact and case-sensitive; when two outlets share a name
// the lowest slot wins.
func ByName(name string) Selector {
	return Selector{Name: name}
}

// String describes the selector for error messages.
func (sel Selector) String() string {
	if sel.Slot > 0 {
		return fmt.Sprintf("slot %d", sel.Slot)
	}
	if sel.Name != "" {
		return fmt.Sprintf("name %q", sel.Name)
	}
	return "empty selector"
}

// DeviceInfo is a snapshot of the connected device's identity.
type DeviceInfo struct {
	Address     string `json:"address"`
	Port        int    `json:"port"`
	DeviceID    string `json:"device_id"`
	Alias       string `json:"alias"`
	Model       string `json:"model"`
	SWVersion   string `json:"sw_version"`
	MAC         string `json:"mac"`
	OutletCount int    `json:"outlet_count"`
}
