package powerstrip

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ErrorType categorizes a device operation failure.
type ErrorType int

const (
	// ErrTypeConnection is any socket-level failure: dial error, reset,
	// unreachable host.
	ErrTypeConnection ErrorType = iota
	// ErrTypeTimeout is a connection failure where the device did not
	// answer within the session timeout.
	ErrTypeTimeout
	// ErrTypeConnectionRefused means the port actively refused.
	ErrTypeConnectionRefused
	// ErrTypeDNS is a hostname resolution failure.
	ErrTypeDNS
	// ErrTypeUnexpectedResponse is a reply the protocol layer could not
	// accept: malformed JSON, missing fields, wrong acknowledgment shape.
	ErrTypeUnexpectedResponse
	// ErrTypeNotFound means a selector did not resolve to a known outlet.
	ErrTypeNotFound
	// ErrTypeValidation is invalid caller input, caught before any
	// network traffic.
	ErrTypeValidation
)

// String returns a human-readable name for the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeUnexpectedResponse:
		return "Unexpected Response"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError is the error type for every failure this package surfaces.
type DeviceError struct {
	Type       ErrorType
	Message    string
	Err        error  // underlying error, if any
	DeviceAddr string // device address for context
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.DeviceAddr != "" {
		msg += fmt.Sprintf(" (device %s)", e.DeviceAddr)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As inspection.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// classifyConnectionError subtypes a transport failure. The distinctions
// are for operator diagnostics only; callers treating every subtype as a
// plain connection error lose nothing.
func classifyConnectionError(message string, err error, addr string) *DeviceError {
	devErr := &DeviceError{
		Type:       ErrTypeConnection,
		Message:    message,
		Err:        err,
		DeviceAddr: addr,
	}

	if os.IsTimeout(err) {
		devErr.Type = ErrTypeTimeout
		return devErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		devErr.Type = ErrTypeTimeout
		return devErr
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		devErr.Type = ErrTypeDNS
		return devErr
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		devErr.Type = ErrTypeConnectionRefused
		return devErr
	}

	return devErr
}

// NewConnectionError wraps a transport failure with classification.
func NewConnectionError(message string, err error, addr string) *DeviceError {
	return classifyConnectionError(message, err, addr)
}

// NewUnexpectedResponseError wraps a protocol parse or shape failure.
func NewUnexpectedResponseError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeUnexpectedResponse, Message: message, Err: err}
}

// NewNotFoundError reports a selector that resolves to no outlet.
func NewNotFoundError(message string) *DeviceError {
	return &DeviceError{Type: ErrTypeNotFound, Message: message}
}

// NewValidationError reports invalid caller input.
func NewValidationError(message string) *DeviceError {
	return &DeviceError{Type: ErrTypeValidation, Message: message}
}

// IsConnectionError reports whether err is any connection-level failure,
// including the timeout, refused and DNS subtypes.
func IsConnectionError(err error) bool {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return false
	}
	switch devErr.Type {
	case ErrTypeConnection, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsUnexpectedResponseError reports whether err is a protocol-level
// failure.
func IsUnexpectedResponseError(err error) bool {
	var devErr *DeviceError
	return errors.As(err, &devErr) && devErr.Type == ErrTypeUnexpectedResponse
}

// IsNotFoundError reports whether err is an unresolved selector.
func IsNotFoundError(err error) bool {
	var devErr *DeviceError
	return errors.As(err, &devErr) && devErr.Type == ErrTypeNotFound
}

// IsValidationError reports whether err is invalid caller input.
func IsValidationError(err error) bool {
	var devErr *DeviceError
	return errors.As(err, &devErr) && devErr.Type == ErrTypeValidation
}

// Hint returns terse troubleshooting advice for an error, for display
// under CLI failures.
func Hint(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return ""
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The strip did not respond in time.",
			"  - Check that the strip is powered and on your network",
			"  - Try --timeout with a larger value",
			"  - Try --protocol udp; some firmware answers UDP faster",
		}, "\n")
	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The device refused the connection.",
			"  - Verify the IP address points at the power strip",
			"  - Port 9999 may be firewalled between you and the device",
		}, "\n")
	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the device hostname.",
			"  - Use the IP address instead of a hostname",
			"  - Check that you are on the same network as the strip",
		}, "\n")
	case ErrTypeConnection:
		return strings.Join([]string{
			"Network communication failed.",
			"  - Confirm the strip's IP with the Kasa app",
			"  - Check that you are on the same network as the strip",
		}, "\n")
	case ErrTypeUnexpectedResponse:
		return "The device sent a reply this tool could not parse. Check the firmware version, and run with KASACTL_LOG_LEVEL=debug to capture the raw payload."
	case ErrTypeNotFound:
		return "Use 'kasactl status' to list outlet numbers and names. Name matching is exact and case-sensitive."
	default:
		return ""
	}
}
