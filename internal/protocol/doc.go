// Package protocol implements the wire protocol spoken by Kasa HS300
// smart power strips on the local network.
//
// The protocol is JSON over TCP or UDP port 9999, obfuscated with an
// autokey XOR stream. Every request is a single JSON object rooted at one
// top-level namespace (system, context, emeter, netif or cnCloud), and
// every reply mirrors the request's namespaces with an err_code field per
// operation.
//
// # Obfuscation
//
// Payloads are wrapped with Encrypt and unwrapped with Decrypt. The
// scheme is a running-key XOR seeded with the constant 171: each output
// byte becomes the key for the next one. It is reversible, total over all
// byte sequences, and provides no confidentiality - it only keeps casual
// packet captures from being immediately readable.
//
// # Command families
//
// Request builders cover the command families the strip understands:
//
//   - SysInfoRequest: device identity plus the per-outlet child list
//   - RelayStateRequest: switch one or more outlets by child id
//   - RealtimeEnergyRequest / DayStatRequest: per-outlet energy metering
//   - SetAliasRequest: rename an outlet
//   - LEDStateRequest: toggle the relay status LEDs
//   - RebootRequest, WifiStationRequest, CloudServerRequest: maintenance
//
// The wire encodes on/off as an integer bit, but not uniformly: the LED
// command family inverts it (off=0 means the LEDs are lit). The encoding
// is table-driven per command kind so new bulk commands cannot silently
// regress it.
//
// # Parsing
//
// Reply parsers return plain errors; callers classify them. Fields the
// parsers do not recognize are ignored rather than rejected, so newer
// firmware replies still parse. Metering replies from firmware without
// energy support parse to a reading with Supported == false instead of
// failing.
package protocol
