package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "kasactl") {
		t.Errorf("GetConfigDir() = %v, should contain 'kasactl'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.OutputFormat != "table" {
		t.Errorf("default output format = %q", reg.Preferences.OutputFormat)
	}
}

func TestDeviceDefaults(t *testing.T) {
	d := &Device{Address: "192.168.1.50"}

	if got := d.EffectivePort(); got != 9999 {
		t.Errorf("EffectivePort() = %d, want 9999", got)
	}
	if got := d.Timeout(); got != 2*time.Second {
		t.Errorf("Timeout() = %v, want 2s", got)
	}
	if got := d.EffectiveProtocol(); got != "tcp" {
		t.Errorf("EffectiveProtocol() = %q, want tcp", got)
	}

	d = &Device{Address: "10.0.0.3", Port: 10000, TimeoutSeconds: 0.5, Protocol: "udp"}
	if d.EffectivePort() != 10000 || d.Timeout() != 500*time.Millisecond || d.EffectiveProtocol() != "udp" {
		t.Errorf("explicit settings not honored: port=%d timeout=%v proto=%q",
			d.EffectivePort(), d.Timeout(), d.EffectiveProtocol())
	}
}

func TestRegistryAddDevice(t *testing.T) {
	reg := NewRegistry()

	if err := reg.AddDevice("office", &Device{Address: "192.168.1.50"}); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	// First device becomes the default.
	if reg.Active != "office" {
		t.Errorf("Active = %q after first add, want office", reg.Active)
	}

	if err := reg.AddDevice("garage", &Device{Address: "192.168.1.51"}); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}
	if reg.Active != "office" {
		t.Errorf("Active changed to %q on second add", reg.Active)
	}

	if err := reg.AddDevice("", &Device{Address: "x"}); err == nil {
		t.Error("AddDevice with empty name succeeded")
	}
	if err := reg.AddDevice("bad", &Device{}); err == nil {
		t.Error("AddDevice without address succeeded")
	}
}

func TestRegistryRemoveDevice(t *testing.T) {
	reg := NewRegistry()
	_ = reg.AddDevice("office", &Device{Address: "192.168.1.50"})
	_ = reg.AddDevice("garage", &Device{Address: "192.168.1.51"})

	if err := reg.RemoveDevice("office"); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	if reg.Active != "" {
		t.Errorf("Active = %q after removing the default, want empty", reg.Active)
	}
	if reg.GetDevice("office") != nil {
		t.Error("removed device still present")
	}

	if err := reg.RemoveDevice("office"); err == nil {
		t.Error("removing an unknown device succeeded")
	}
}

func TestRegistryActiveDevice(t *testing.T) {
	reg := NewRegistry()

	if name, d := reg.ActiveDevice(); name != "" || d != nil {
		t.Errorf("ActiveDevice() on empty registry = %q, %v", name, d)
	}

	// A single saved device is the implicit default.
	_ = reg.AddDevice("office", &Device{Address: "192.168.1.50"})
	reg.Active = ""
	name, d := reg.ActiveDevice()
	if name != "office" || d == nil {
		t.Errorf("ActiveDevice() with one device = %q, %v", name, d)
	}

	// Two devices and no explicit default is ambiguous.
	_ = reg.AddDevice("garage", &Device{Address: "192.168.1.51"})
	reg.Active = ""
	if name, _ := reg.ActiveDevice(); name != "" {
		t.Errorf("ActiveDevice() with two devices and no default = %q", name)
	}

	if err := reg.SetActive("garage"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if name, _ := reg.ActiveDevice(); name != "garage" {
		t.Errorf("ActiveDevice() after SetActive = %q", name)
	}

	if err := reg.SetActive("attic"); err == nil {
		t.Error("SetActive on unknown name succeeded")
	}
}

func TestUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()
	_ = reg.AddDevice("office", &Device{Address: "192.168.1.50"})

	before := time.Now()
	reg.UpdateDeviceLastSeen("office", "HS300(US)")

	d := reg.GetDevice("office")
	if d.LastSeen.Before(before) {
		t.Error("LastSeen not updated")
	}
	if d.Model != "HS300(US)" {
		t.Errorf("Model = %q", d.Model)
	}

	// Unknown names are ignored, not created.
	reg.UpdateDeviceLastSeen("attic", "HS300(US)")
	if reg.GetDevice("attic") != nil {
		t.Error("UpdateDeviceLastSeen created a device")
	}
}

func TestRegistryYAMLRoundTrip(t *testing.T) {
	input := `# Test config
version: 1
active: office
devices:
  office:
    address: 192.168.1.50
    port: 9999
    timeout_seconds: 2.5
    protocol: tcp
    model: HS300(US)
  garage:
    address: 192.168.1.51
preferences:
  output_format: compact
  poll_seconds: 10
`

	var reg Registry
	if err := yaml.Unmarshal([]byte(input), &reg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if reg.Active != "office" {
		t.Errorf("Active = %q", reg.Active)
	}
	office := reg.GetDevice("office")
	if office == nil {
		t.Fatal("office device missing")
	}
	if office.Address != "192.168.1.50" || office.TimeoutSeconds != 2.5 {
		t.Errorf("office = %+v", office)
	}
	garage := reg.GetDevice("garage")
	if garage == nil || garage.EffectivePort() != 9999 {
		t.Errorf("garage = %+v", garage)
	}
	if reg.Preferences.OutputFormat != "compact" || reg.Preferences.PollSeconds != 10 {
		t.Errorf("preferences = %+v", reg.Preferences)
	}

	out, err := yaml.Marshal(&reg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Registry
	if err := yaml.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if again.GetDevice("office").Address != "192.168.1.50" {
		t.Error("round trip lost device address")
	}
}

func TestSaveAndReload(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test redirects config via XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry: %v", err)
	}
	if len(reg.Devices) != 0 {
		t.Fatalf("fresh registry has %d devices", len(reg.Devices))
	}

	_ = reg.AddDevice("office", &Device{Address: "192.168.1.50", Protocol: "udp"})
	if err := reg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path, _ := GetConfigPath()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry after save: %v", err)
	}
	d := loaded.GetDevice("office")
	if d == nil || d.Address != "192.168.1.50" || d.Protocol != "udp" {
		t.Errorf("reloaded device = %+v", d)
	}
	if loaded.Active != "office" {
		t.Errorf("reloaded Active = %q", loaded.Active)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test redirects config via XDG_CONFIG_HOME")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "kasactl")
	if err := os.MkdirAll(cfgDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("version: 9\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReloadRegistry(); err == nil {
		t.Error("loading a future config version succeeded")
	}
}
