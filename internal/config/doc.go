// Package config provides user configuration management for kasactl.
//
// The package manages a YAML configuration file storing saved power
// strips (name, address, transport settings) and application
// preferences, so that commands can refer to a device by name instead
// of repeating its IP address. The file lives in the OS-conventional
// configuration directory and is written atomically.
//
// The registry is loaded lazily and cached for the life of the process;
// Save writes the current in-memory state back to disk.
package config
