package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xtort/kasa-hs300/internal/config"
	"github.com/xtort/kasa-hs300/internal/powerstrip"
	"github.com/xtort/kasa-hs300/internal/transport"
	"github.com/xtort/kasa-hs300/internal/tui"
)

// Device command flags
var (
	deviceFlag   string
	portFlag     int
	timeoutFlag  float64
	protocolFlag string
	outputFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "Device address or saved device name (default: the active saved device)")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 9999, "Device port")
	rootCmd.PersistentFlags().Float64Var(&timeoutFlag, "timeout", 2.0, "Request timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&protocolFlag, "protocol", "tcp", "Transport protocol (tcp, udp)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, detailed, compact, json)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(energyCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(ledsCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(wifiCmd)
	rootCmd.AddCommand(cloudCmd)
	rootCmd.AddCommand(menuCmd)
}

// resolveStrip builds and connects a session from flags and the saved
// device registry. --device takes an address or a saved name; with no
// --device the registry's active device is used. Explicitly set flags
// override the saved settings.
func resolveStrip(cmd *cobra.Command) (*powerstrip.Strip, error) {
	address := deviceFlag
	var saved *config.Device
	savedName := ""

	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}

	if address == "" {
		name, device := reg.ActiveDevice()
		if device == nil {
			return nil, fmt.Errorf("no device given: use --device <ip>, or save one with 'kasactl devices add'")
		}
		saved, savedName, address = device, name, device.Address
	} else if device := reg.GetDevice(address); device != nil {
		saved, savedName, address = device, address, device.Address
	}

	strip := powerstrip.New(address)
	if saved != nil {
		strip.Port = saved.EffectivePort()
		strip.Timeout = saved.Timeout()
		proto, err := transport.ParseProto(saved.EffectiveProtocol())
		if err != nil {
			return nil, fmt.Errorf("saved device %q: %w", savedName, err)
		}
		strip.Preferred = proto
	}

	if cmd.Flags().Changed("port") {
		strip.Port = portFlag
	}
	if cmd.Flags().Changed("timeout") {
		strip.Timeout = time.Duration(timeoutFlag * float64(time.Second))
	}
	if cmd.Flags().Changed("protocol") || saved == nil {
		proto, err := transport.ParseProto(protocolFlag)
		if err != nil {
			return nil, err
		}
		strip.Preferred = proto
	}

	if err := strip.Connect(); err != nil {
		return nil, err
	}

	if savedName != "" {
		reg.UpdateDeviceLastSeen(savedName, strip.Info().Model)
		// Best effort; a read-only config dir shouldn't fail the command.
		_ = reg.Save()
	}

	return strip, nil
}

// parseSelector turns a CLI argument into an outlet selector: a number
// is a slot, anything else is a name.
func parseSelector(arg string) powerstrip.Selector {
	if slot, err := strconv.Atoi(arg); err == nil {
		return powerstrip.BySlot(slot)
	}
	return powerstrip.ByName(arg)
}

// effectiveFormat resolves the output format: an explicit --format flag
// wins, otherwise the saved registry preference applies.
func effectiveFormat(cmd *cobra.Command) string {
	if cmd.Flags().Changed("format") {
		return outputFormat
	}
	if reg, err := config.LoadRegistry(); err == nil && reg.Preferences != nil && reg.Preferences.OutputFormat != "" {
		return reg.Preferences.OutputFormat
	}
	return outputFormat
}

func printOutlets(cmd *cobra.Command, strip *powerstrip.Strip) error {
	switch effectiveFormat(cmd) {
	case "compact":
		fmt.Println(powerstrip.FormatCompact(strip.Outlets()))
	case "json":
		data, err := json.MarshalIndent(map[string]any{
			"device":  strip.Info(),
			"outlets": strip.Outlets(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "detailed":
		fmt.Println(strip.Info().FormatDeviceInfo())
		fmt.Println(powerstrip.FormatOutlets(strip.Outlets()))
	case "table":
		fallthrough
	default:
		fmt.Println(powerstrip.FormatStatus(strip.Info(), strip.Outlets()))
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the strip and all outlet states",
	Example: `  # Status of the active saved device
  kasactl status

  # Status of a specific strip
  kasactl status --device 192.168.1.50

  # Compact output for scripting
  kasactl status --format compact`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()
		return printOutlets(cmd, strip)
	},
}

var onCmd = &cobra.Command{
	Use:   "on <slot|name>",
	Short: "Switch one outlet on",
	Args:  cobra.ExactArgs(1),
	Example: `  kasactl on 3
  kasactl on "Desk Lamp"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchOutlet(cmd, args[0], powerstrip.On)
	},
}

var offCmd = &cobra.Command{
	Use:   "off <slot|name>",
	Short: "Switch one outlet off",
	Args:  cobra.ExactArgs(1),
	Example: `  kasactl off 3
  kasactl off "Desk Lamp"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchOutlet(cmd, args[0], powerstrip.Off)
	},
}

func switchOutlet(cmd *cobra.Command, arg string, state powerstrip.State) error {
	strip, err := resolveStrip(cmd)
	if err != nil {
		return err
	}
	defer strip.Close()

	sel := parseSelector(arg)
	if err := strip.SetOutlet(sel, state); err != nil {
		return err
	}

	outlet, err := strip.Resolve(sel)
	if err != nil {
		return err
	}
	fmt.Printf("Outlet %d (%s) is now %s\n", outlet.Slot, outlet.Name, state)
	return nil
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <slot|name>",
	Short: "Toggle one outlet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		sel := parseSelector(args[0])
		on, err := strip.IsOn(sel)
		if err != nil {
			return err
		}

		target := powerstrip.On
		if on {
			target = powerstrip.Off
		}
		if err := strip.SetOutlet(sel, target); err != nil {
			return err
		}

		outlet, err := strip.Resolve(sel)
		if err != nil {
			return err
		}
		fmt.Printf("Outlet %d (%s) is now %s\n", outlet.Slot, outlet.Name, target)
		return nil
	},
}

var allCmd = &cobra.Command{
	Use:   "all <on|off>",
	Short: "Switch every outlet at once",
	Args:  cobra.ExactArgs(1),
	Example: `  kasactl all off
  kasactl all on`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := powerstrip.ParseState(args[0])
		if err != nil {
			return err
		}

		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		if err := strip.SetAll(state); err != nil {
			return err
		}
		fmt.Printf("All %d outlets are now %s\n", strip.OutletCount(), state)
		return nil
	},
}

var powerCmd = &cobra.Command{
	Use:   "power <slot|name>",
	Short: "Show the realtime energy reading for one outlet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		reading, err := strip.PowerDraw(parseSelector(args[0]))
		if err != nil {
			return err
		}

		if effectiveFormat(cmd) == "json" {
			data, err := json.MarshalIndent(reading, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		fmt.Println(powerstrip.FormatReading(reading))
		return nil
	},
}

var energyCmd = &cobra.Command{
	Use:   "energy <slot|name>",
	Short: "Show per-day energy use for a calendar month",
	Args:  cobra.ExactArgs(1),
	Example: `  # Current month
  kasactl energy 3

  # A specific month
  kasactl energy 3 --month 3 --year 2024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		month, year := energyMonth, energyYear
		if month == 0 {
			now := time.Now()
			month, year = int(now.Month()), now.Year()
		}

		stats, err := strip.EnergyDayStats(parseSelector(args[0]), month, year)
		if err != nil {
			return err
		}
		fmt.Print(powerstrip.FormatDayStats(stats))
		return nil
	},
}

var (
	energyMonth int
	energyYear  int
)

func init() {
	energyCmd.Flags().IntVar(&energyMonth, "month", 0, "Month (1-12, default: current)")
	energyCmd.Flags().IntVar(&energyYear, "year", time.Now().Year(), "Year")
}

var renameCmd = &cobra.Command{
	Use:   "rename <slot|name> <new-name>",
	Short: "Rename an outlet on the device",
	Args:  cobra.ExactArgs(2),
	Example: `  kasactl rename 3 "Desk Lamp"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		// Resolve before renaming: a by-name selector stops matching
		// the moment the rename lands.
		outlet, err := strip.Resolve(parseSelector(args[0]))
		if err != nil {
			return err
		}
		if err := strip.SetOutletName(powerstrip.BySlot(outlet.Slot), args[1]); err != nil {
			return err
		}
		fmt.Printf("Outlet %d is now named %q\n", outlet.Slot, outlet.Name)
		return nil
	},
}

var ledsCmd = &cobra.Command{
	Use:   "leds <on|off>",
	Short: "Switch the outlet status LEDs on the strip's face",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := powerstrip.ParseState(args[0])
		if err != nil {
			return err
		}

		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		if err := strip.SetLEDs(state); err != nil {
			return err
		}
		fmt.Printf("Status LEDs are now %s\n", state)
		return nil
	},
}

var rebootDelay int

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the strip",
	Long: `Reboot the power strip.

Relay states persist across a reboot; outlets that were on come back
on. The strip drops off the network for a few seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		if err := strip.Reboot(time.Duration(rebootDelay) * time.Second); err != nil {
			return err
		}
		fmt.Printf("Reboot command sent (delay: %ds)\n", rebootDelay)
		return nil
	},
}

func init() {
	rebootCmd.Flags().IntVar(&rebootDelay, "delay", 1, "Reboot delay in seconds")
}

var wifiKeyType int

var wifiCmd = &cobra.Command{
	Use:   "wifi <ssid>",
	Short: "Point the strip at a wireless network",
	Long: `Configure the wireless network the strip joins.

The passphrase is prompted interactively and never echoed or stored.
After accepting new credentials the strip switches networks, so the
current session will drop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Passphrase (empty for open network): ")
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read passphrase: %w", err)
		}

		keyType := wifiKeyType
		if len(secret) == 0 {
			keyType = 0
		}

		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		if err := strip.SetWifiCredentials(args[0], string(secret), keyType); err != nil {
			return err
		}
		fmt.Printf("WiFi credentials accepted; the strip is joining %q\n", args[0])
		return nil
	},
}

func init() {
	wifiCmd.Flags().IntVar(&wifiKeyType, "key-type", 3, "Key type (3=WPA2, 2=WPA, 1=WEP, 0=open)")
}

var cloudURL string

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Change or clear the strip's cloud server URL",
	Long: `Change the cloud endpoint the strip reports to.

With no --url the endpoint is cleared, detaching the strip from the
vendor cloud so it only answers on the local network.`,
	Example: `  # Detach from the vendor cloud
  kasactl cloud

  # Point at a self-hosted endpoint
  kasactl cloud --url https://kasa.example.net`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strip, err := resolveStrip(cmd)
		if err != nil {
			return err
		}
		defer strip.Close()

		if err := strip.SetCloudServerURL(cloudURL); err != nil {
			return err
		}
		if cloudURL == "" {
			fmt.Println("Cloud server cleared; the strip is local-only")
		} else {
			fmt.Printf("Cloud server set to %s\n", cloudURL)
		}
		return nil
	},
}

func init() {
	cloudCmd.Flags().StringVar(&cloudURL, "url", "", "Cloud server URL (empty to detach)")
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Open the interactive outlet dashboard",
	RunE:  runMenu,
}

func runMenu(cmd *cobra.Command, args []string) error {
	strip, err := resolveStrip(cmd)
	if err != nil {
		return err
	}
	defer strip.Close()

	return tui.Run(strip)
}
