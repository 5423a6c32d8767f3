package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xtort/kasa-hs300/internal/config"
	"github.com/xtort/kasa-hs300/internal/transport"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage saved power strips",
	Long: `Manage the saved device registry.

Saved devices let every command refer to a strip by name instead of
repeating its address. One saved device is the active default, used
when --device is not given.`,
	RunE: runDevicesList,
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved devices",
	RunE:  runDevicesList,
}

func runDevicesList(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	if len(reg.Devices) == 0 {
		fmt.Println("No saved devices.")
		fmt.Println("\nSave one with: kasactl devices add <name> <address>")
		return nil
	}

	names := make([]string, 0, len(reg.Devices))
	for name := range reg.Devices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := reg.Devices[name]
		marker := " "
		if name == reg.Active {
			marker = "*"
		}
		fmt.Printf("%s %-16s %s:%d (%s)", marker, name, d.Address, d.EffectivePort(), d.EffectiveProtocol())
		if d.Model != "" {
			fmt.Printf("  %s", d.Model)
		}
		if !d.LastSeen.IsZero() {
			fmt.Printf("  last seen %s", d.LastSeen.Format("2006-01-02 15:04"))
		}
		fmt.Println()
	}
	return nil
}

var (
	addPort     int
	addTimeout  float64
	addProtocol string
)

var devicesAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Save a device under a name",
	Args:  cobra.ExactArgs(2),
	Example: `  kasactl devices add office 192.168.1.50
  kasactl devices add garage 192.168.1.51 --protocol udp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := transport.ParseProto(addProtocol); err != nil {
			return err
		}

		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}

		device := &config.Device{
			Address:        args[1],
			Port:           addPort,
			TimeoutSeconds: addTimeout,
			Protocol:       addProtocol,
		}
		if err := reg.AddDevice(args[0], device); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}

		fmt.Printf("Saved %q -> %s\n", args[0], args[1])
		if reg.Active == args[0] {
			fmt.Println("It is now the active default device.")
		}
		return nil
	},
}

func init() {
	devicesAddCmd.Flags().IntVar(&addPort, "port", 0, "Device port (default 9999)")
	devicesAddCmd.Flags().Float64Var(&addTimeout, "timeout", 0, "Request timeout in seconds (default 2.0)")
	devicesAddCmd.Flags().StringVar(&addProtocol, "protocol", "", "Transport protocol (tcp, udp)")
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a saved device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if err := reg.RemoveDevice(args[0]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("Removed %q\n", args[0])
		return nil
	},
}

var devicesUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a saved device the active default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if err := reg.SetActive(args[0]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("Active device is now %q\n", args[0])
		return nil
	},
}

func init() {
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)
	devicesCmd.AddCommand(devicesUseCmd)
	rootCmd.AddCommand(devicesCmd)
}
