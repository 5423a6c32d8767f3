package powerstrip

import (
	"fmt"
	"strings"
	"time"

	"github.com/xtort/kasa-hs300/internal/protocol"
)

// Summary returns a one-line summary of the device identity
func (di DeviceInfo) Summary() string {
	return fmt.Sprintf("%s %q @ %s:%d (%d outlets, FW: %s)",
		di.Model, di.Alias, di.Address, di.Port, di.OutletCount, di.SWVersion)
}

// FormatDeviceInfo returns a formatted string with device identification information
func (di DeviceInfo) FormatDeviceInfo() string {
	var b strings.Builder

	b.WriteString("=== Device Information ===\n")
	b.WriteString(fmt.Sprintf("Alias:     %s\n", di.Alias))
	b.WriteString(fmt.Sprintf("Model:     %s\n", di.Model))
	b.WriteString(fmt.Sprintf("Address:   %s:%d\n", di.Address, di.Port))
	b.WriteString(fmt.Sprintf("Device ID: %s\n", di.DeviceID))
	b.WriteString(fmt.Sprintf("MAC:       %s\n", di.MAC))
	b.WriteString(fmt.Sprintf("Firmware:  %s\n", di.SWVersion))
	b.WriteString(fmt.Sprintf("Outlets:   %d\n", di.OutletCount))

	return b.String()
}

// FormatOutlets returns a table of outlets with slot, state, name and
// on-time columns.
func FormatOutlets(outlets []Outlet) string {
	var b strings.Builder

	b.WriteString("Slot | State | On For    | Name\n")
	b.WriteString("-----+-------+-----------+------------------\n")
	for _, o := range outlets {
		b.WriteString(fmt.Sprintf("  %d  | %-5s | %-9s | %s\n",
			o.Slot, strings.ToUpper(o.State.String()), formatOnTime(o), o.Name))
	}

	return b.String()
}

// FormatCompact returns a compact single-line outlet list suitable for
// scripting: "1:on 2:off ...".
func FormatCompact(outlets []Outlet) string {
	parts := make([]string, len(outlets))
	for i, o := range outlets {
		parts[i] = fmt.Sprintf("%d:%s", o.Slot, o.State)
	}
	return strings.Join(parts, " ")
}

// FormatStatus returns the full status display: identity plus the
// outlet table.
func FormatStatus(info DeviceInfo, outlets []Outlet) string {
	var b strings.Builder

	b.WriteString(info.Summary())
	b.WriteString("\n\n")
	b.WriteString(FormatOutlets(outlets))

	return b.String()
}

// FormatReading returns a human-readable realtime energy reading.
func FormatReading(r *protocol.EnergyReading) string {
	if !r.Supported {
		return "(no energy metering data)"
	}

	var b strings.Builder

	b.WriteString("=== Realtime Energy ===\n")
	b.WriteString(fmt.Sprintf("Power:   %.2f W\n", r.PowerW))
	b.WriteString(fmt.Sprintf("Voltage: %.1f V\n", r.VoltageV))
	b.WriteString(fmt.Sprintf("Current: %.3f A\n", r.CurrentA))
	b.WriteString(fmt.Sprintf("Total:   %.3f kWh\n", r.TotalKWh))

	return b.String()
}

// FormatDayStats returns a per-day energy table for one month.
func FormatDayStats(stats []protocol.DayStat) string {
	if len(stats) == 0 {
		return "(no daily energy data)\n"
	}

	var b strings.Builder

	b.WriteString("Date       | Energy (kWh)\n")
	b.WriteString("-----------+-------------\n")
	for _, d := range stats {
		b.WriteString(fmt.Sprintf("%04d-%02d-%02d | %.3f\n", d.Year, d.Month, d.Day, d.EnergyKWh))
	}

	return b.String()
}

func formatOnTime(o Outlet) string {
	if o.State != On || o.OnTime <= 0 {
		return "-"
	}
	d := o.OnTime
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
