package powerstrip

import "testing"

func TestParseState(t *testing.T) {
	tests := []struct {
		input   string
		want    State
		wantErr bool
	}{
		{"on", On, false},
		{"off", Off, false},
		{"ON", On, false},
		{"Off", Off, false},
		{"", Off, true},
		{"toggle", Off, true},
		{"1", Off, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if tt.wantErr {
				if !IsValidationError(err) {
					t.Fatalf("ParseState(%q) error = %v, want validation error", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseState(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if On.String() != "on" || Off.String() != "off" {
		t.Errorf("State strings = %q, %q", On.String(), Off.String())
	}
}

func TestStateFromWire(t *testing.T) {
	if stateFromWire(1) != On {
		t.Error("stateFromWire(1) != On")
	}
	if stateFromWire(0) != Off {
		t.Error("stateFromWire(0) != Off")
	}
}

func TestSelectorString(t *testing.T) {
	tests := []struct {
		sel  Selector
		want string
	}{
		{BySlot(3), "slot 3"},
		{ByName("Lamp"), `name "Lamp"`},
		{Selector{}, "empty selector"},
	}

	for _, tt := range tests {
		if got := tt.sel.String(); got != tt.want {
			t.Errorf("Selector %+v String() = %q, want %q", tt.sel, got, tt.want)
		}
	}
}
