package protocol

import (
	"encoding/json"
	"fmt"
)

// SysInfo is the parsed system info reply: device identity plus the
// per-outlet child list in the order the device reports it.
type SysInfo struct {
	DeviceID  string
	Alias     string
	Model     string
	SWVersion string
	HWVersion string
	MAC       string
	Children  []ChildInfo
}

// ChildInfo is one outlet entry from the sysinfo child list. ID is the
// opaque child identifier; depending on firmware it is either the 2-digit
// child suffix or the full device-id-prefixed form.
type ChildInfo struct {
	ID     string `json:"id"`
	Alias  string `json:"alias"`
	State  int    `json:"state"`
	OnTime int64  `json:"on_time"`
}

// EnergyReading is a normalized realtime energy sample. Firmware reports
// either milli-units (voltage_mv, current_ma, power_mw, total_wh) or
// whole units; both normalize to V, A, W and kWh here. A reading from
// firmware without metering support has Supported == false and zero
// values - that is data absence, not an error.
type EnergyReading struct {
	Supported bool    `json:"supported"`
	VoltageV  float64 `json:"voltage_v"`
	CurrentA  float64 `json:"current_a"`
	PowerW    float64 `json:"power_w"`
	TotalKWh  float64 `json:"total_kwh"`
}

// DayStat is one day's cumulative energy, normalized to kWh.
type DayStat struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Day       int     `json:"day"`
	EnergyKWh float64 `json:"energy_kwh"`
}

type rawSysInfo struct {
	System struct {
		GetSysinfo *struct {
			ErrCode   *int        `json:"err_code"`
			DeviceID  string      `json:"deviceId"`
			Alias     string      `json:"alias"`
			Model     string      `json:"model"`
			SWVersion string      `json:"sw_ver"`
			HWVersion string      `json:"hw_ver"`
			MAC       string      `json:"mac"`
			Children  []ChildInfo `json:"children"`
		} `json:"get_sysinfo"`
	} `json:"system"`
}

// ParseSysInfo parses a system info reply. Fields beyond the ones modeled
// here are ignored for forward compatibility.
func ParseSysInfo(raw []byte) (*SysInfo, error) {
	var reply rawSysInfo
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("malformed sysinfo reply: %w", err)
	}

	info := reply.System.GetSysinfo
	if info == nil {
		return nil, fmt.Errorf("sysinfo reply missing system.get_sysinfo")
	}
	if info.ErrCode != nil && *info.ErrCode != 0 {
		return nil, fmt.Errorf("device rejected sysinfo query (err_code %d)", *info.ErrCode)
	}
	if info.DeviceID == "" {
		return nil, fmt.Errorf("sysinfo reply missing deviceId")
	}

	return &SysInfo{
		DeviceID:  info.DeviceID,
		Alias:     info.Alias,
		Model:     info.Model,
		SWVersion: info.SWVersion,
		HWVersion: info.HWVersion,
		MAC:       info.MAC,
		Children:  info.Children,
	}, nil
}

// ackErrCode walks a reply to namespace.operation and returns its
// err_code. A missing namespace or operation is an acknowledgment shape
// mismatch.
func ackErrCode(raw []byte, namespace, operation string) (int, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return 0, fmt.Errorf("malformed reply: %w", err)
	}

	nsRaw, ok := top[namespace]
	if !ok {
		return 0, fmt.Errorf("reply missing %q namespace", namespace)
	}

	var ns map[string]json.RawMessage
	if err := json.Unmarshal(nsRaw, &ns); err != nil {
		return 0, fmt.Errorf("malformed %q namespace: %w", namespace, err)
	}

	opRaw, ok := ns[operation]
	if !ok {
		return 0, fmt.Errorf("reply missing %s.%s", namespace, operation)
	}

	var op struct {
		ErrCode *int `json:"err_code"`
	}
	if err := json.Unmarshal(opRaw, &op); err != nil {
		return 0, fmt.Errorf("malformed %s.%s: %w", namespace, operation, err)
	}
	if op.ErrCode == nil {
		return 0, fmt.Errorf("reply %s.%s missing err_code", namespace, operation)
	}
	return *op.ErrCode, nil
}

// ParseAck verifies an acknowledgment reply for the given namespace and
// operation. Success is exactly the expected shape with err_code 0;
// anything else is an error.
func ParseAck(raw []byte, namespace, operation string) error {
	code, err := ackErrCode(raw, namespace, operation)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("device rejected %s.%s (err_code %d)", namespace, operation, code)
	}
	return nil
}

// ParseRelayAck verifies a set_relay_state acknowledgment.
func ParseRelayAck(raw []byte) error {
	return ParseAck(raw, "system", "set_relay_state")
}

type rawRealtime struct {
	Emeter struct {
		GetRealtime *struct {
			ErrCode *int `json:"err_code"`

			// Milli-unit firmware (HS300 hardware v1 and later)
			VoltageMV *float64 `json:"voltage_mv"`
			CurrentMA *float64 `json:"current_ma"`
			PowerMW   *float64 `json:"power_mw"`
			TotalWh   *float64 `json:"total_wh"`

			// Whole-unit firmware (older plugs)
			Voltage *float64 `json:"voltage"`
			Current *float64 `json:"current"`
			Power   *float64 `json:"power"`
			Total   *float64 `json:"total"`
		} `json:"get_realtime"`
	} `json:"emeter"`
}

// ParseRealtimeEnergy parses and normalizes a realtime energy reply.
// Replies from firmware without metering support (empty mapping, missing
// namespace, or a nonzero err_code) produce Supported == false rather
// than an error.
func ParseRealtimeEnergy(raw []byte) (*EnergyReading, error) {
	var reply rawRealtime
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("malformed energy reply: %w", err)
	}

	rt := reply.Emeter.GetRealtime
	if rt == nil {
		return &EnergyReading{}, nil
	}
	if rt.ErrCode != nil && *rt.ErrCode != 0 {
		// "module not support" on meterless firmware
		return &EnergyReading{}, nil
	}

	reading := &EnergyReading{}
	switch {
	case rt.VoltageMV != nil || rt.CurrentMA != nil || rt.PowerMW != nil || rt.TotalWh != nil:
		reading.Supported = true
		if rt.VoltageMV != nil {
			reading.VoltageV = *rt.VoltageMV / 1000
		}
		if rt.CurrentMA != nil {
			reading.CurrentA = *rt.CurrentMA / 1000
		}
		if rt.PowerMW != nil {
			reading.PowerW = *rt.PowerMW / 1000
		}
		if rt.TotalWh != nil {
			reading.TotalKWh = *rt.TotalWh / 1000
		}
	case rt.Voltage != nil || rt.Current != nil || rt.Power != nil || rt.Total != nil:
		reading.Supported = true
		if rt.Voltage != nil {
			reading.VoltageV = *rt.Voltage
		}
		if rt.Current != nil {
			reading.CurrentA = *rt.Current
		}
		if rt.Power != nil {
			reading.PowerW = *rt.Power
		}
		if rt.Total != nil {
			reading.TotalKWh = *rt.Total
		}
	}

	return reading, nil
}

type rawDayStat struct {
	Emeter struct {
		GetDayStat *struct {
			ErrCode *int `json:"err_code"`
			DayList []struct {
				Year     int      `json:"year"`
				Month    int      `json:"month"`
				Day      int      `json:"day"`
				EnergyWh *float64 `json:"energy_wh"`
				Energy   *float64 `json:"energy"`
			} `json:"day_list"`
		} `json:"get_daystat"`
	} `json:"emeter"`
}

// ParseDayStat parses a get_daystat reply into per-day readings. As with
// realtime metering, both the energy_wh and energy unit families are
// normalized to kWh. Meterless firmware yields an empty list.
func ParseDayStat(raw []byte) ([]DayStat, error) {
	var reply rawDayStat
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("malformed daystat reply: %w", err)
	}

	ds := reply.Emeter.GetDayStat
	if ds == nil {
		return nil, nil
	}
	if ds.ErrCode != nil && *ds.ErrCode != 0 {
		return nil, nil
	}

	stats := make([]DayStat, 0, len(ds.DayList))
	for _, d := range ds.DayList {
		stat := DayStat{Year: d.Year, Month: d.Month, Day: d.Day}
		switch {
		case d.EnergyWh != nil:
			stat.EnergyKWh = *d.EnergyWh / 1000
		case d.Energy != nil:
			stat.EnergyKWh = *d.Energy
		}
		stats = append(stats, stat)
	}
	return stats, nil
}
