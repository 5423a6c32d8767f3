package config

import (
	"fmt"
	"time"
)

// Registry represents the entire user configuration file.
// It stores saved power strips and application preferences so that
// commands can name a device instead of repeating its address.
type Registry struct {
	Version     int                `yaml:"version"`
	Active      string             `yaml:"active,omitempty"`  // Name of the default device
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by user-chosen name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents one saved power strip.
type Device struct {
	Address        string    `yaml:"address"`
	Port           int       `yaml:"port,omitempty"`            // Defaults to 9999
	TimeoutSeconds float64   `yaml:"timeout_seconds,omitempty"` // Defaults to 2.0
	Protocol       string    `yaml:"protocol,omitempty"`        // "tcp" or "udp", defaults to tcp
	Model          string    `yaml:"model,omitempty"`           // Last reported model
	LastSeen       time.Time `yaml:"last_seen,omitempty"`       // Last successful connection
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	OutputFormat string `yaml:"output_format,omitempty"` // "table" or "compact"
	ListenAddr   string `yaml:"listen_addr,omitempty"`   // Default bind address for serve
	PollSeconds  int    `yaml:"poll_seconds,omitempty"`  // Status poll interval for serve
}

// Defaults applied when a saved device omits a field.
const (
	DefaultPort           = 9999
	DefaultTimeoutSeconds = 2.0
	DefaultProtocol       = "tcp"
)

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			OutputFormat: "table",
			ListenAddr:   "127.0.0.1:8080",
			PollSeconds:  5,
		},
	}
}

// Timeout returns the device's configured timeout as a duration.
func (d *Device) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return time.Duration(DefaultTimeoutSeconds * float64(time.Second))
	}
	return time.Duration(d.TimeoutSeconds * float64(time.Second))
}

// EffectivePort returns the device's port, defaulted.
func (d *Device) EffectivePort() int {
	if d.Port <= 0 {
		return DefaultPort
	}
	return d.Port
}

// EffectiveProtocol returns the device's transport, defaulted.
func (d *Device) EffectiveProtocol() string {
	if d.Protocol == "" {
		return DefaultProtocol
	}
	return d.Protocol
}

// GetDevice retrieves a saved device by name.
// Returns nil if the name is not in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// ActiveDevice returns the default device and its name. When no default
// is set and exactly one device is saved, that device is the default.
func (r *Registry) ActiveDevice() (string, *Device) {
	if r.Active != "" {
		return r.Active, r.Devices[r.Active]
	}
	if len(r.Devices) == 1 {
		for name, d := range r.Devices {
			return name, d
		}
	}
	return "", nil
}

// AddDevice saves a device under the given name, replacing any existing
// entry. The first saved device becomes the default.
func (r *Registry) AddDevice(name string, device *Device) error {
	if name == "" {
		return fmt.Errorf("device name must not be empty")
	}
	if device == nil || device.Address == "" {
		return fmt.Errorf("device %q needs an address", name)
	}

	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	r.Devices[name] = device
	if r.Active == "" {
		r.Active = name
	}
	return nil
}

// RemoveDevice deletes a saved device. Removing the default clears it.
func (r *Registry) RemoveDevice(name string) error {
	if _, exists := r.Devices[name]; !exists {
		return fmt.Errorf("no saved device named %q", name)
	}
	delete(r.Devices, name)
	if r.Active == name {
		r.Active = ""
	}
	return nil
}

// SetActive marks a saved device as the default.
func (r *Registry) SetActive(name string) error {
	if _, exists := r.Devices[name]; !exists {
		return fmt.Errorf("no saved device named %q", name)
	}
	r.Active = name
	return nil
}

// UpdateDeviceLastSeen records a successful connection to a saved
// device. Unknown names are ignored; ad-hoc addresses are not saved.
func (r *Registry) UpdateDeviceLastSeen(name, model string) {
	device, exists := r.Devices[name]
	if !exists {
		return
	}
	device.LastSeen = time.Now()
	if model != "" {
		device.Model = model
	}
}
