package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/xtort/kasa-hs300/internal/config"
)

func TestParseSelector(t *testing.T) {
	if sel := parseSelector("3"); sel.Slot != 3 || sel.Name != "" {
		t.Errorf("parseSelector(\"3\") = %+v, want slot 3", sel)
	}
	if sel := parseSelector("Heater"); sel.Name != "Heater" || sel.Slot != 0 {
		t.Errorf("parseSelector(\"Heater\") = %+v, want name selector", sel)
	}
	if sel := parseSelector("Lamp 2"); sel.Name != "Lamp 2" {
		t.Errorf("parseSelector(\"Lamp 2\") = %+v, want name selector", sel)
	}
}

func TestEffectiveFormat(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg, err := config.ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry: %v", err)
	}
	reg.Preferences.OutputFormat = "compact"
	if err := reg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := config.ReloadRegistry(); err != nil {
		t.Fatalf("ReloadRegistry: %v", err)
	}

	cmd := &cobra.Command{Use: "status"}
	cmd.Flags().StringVar(&outputFormat, "format", "table", "")
	defer func() { outputFormat = "table" }()

	// Saved preference applies when the flag was not given.
	if got := effectiveFormat(cmd); got != "compact" {
		t.Errorf("effectiveFormat = %q, want saved preference %q", got, "compact")
	}

	// An explicit flag always wins over the preference.
	if err := cmd.Flags().Set("format", "json"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if got := effectiveFormat(cmd); got != "json" {
		t.Errorf("effectiveFormat with explicit flag = %q, want %q", got, "json")
	}
}
