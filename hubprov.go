// Package hubprov holds the shared types of the SMARTTUPPLEWARE hub
// provisioning service: the credential and identity records exchanged over
// the BLE protocol surface, and the outcome of a connection attempt.
package hubprov

// Credentials is one network's worth of Wi-Fi credentials as supplied by the
// remote controller. Password may be empty for open networks.
type Credentials struct {
	SSID     string
	Password string
}

// Identity describes the hub itself. It is assembled once at startup from
// configuration and never changes for the lifetime of the process.
type Identity struct {
	Type     string `json:"type"`
	Vendor   string `json:"vendor"`
	Model    string `json:"model"`
	Firmware string `json:"fw"`
	DeviceID string `json:"device_id"`
}

// Outcome is the result of the most recent connection attempt. Success is a
// pointer so that "never attempted" (null) stays distinguishable from both
// success and failure on the wire.
type Outcome struct {
	Success *bool  `json:"success"`
	Reason  string `json:"reason"`
}

// NotAttempted is the outcome before any credential write has been processed.
func NotAttempted() Outcome {
	return Outcome{Success: nil, Reason: "not attempted"}
}

// Succeeded builds a successful outcome with the given reason.
func Succeeded(reason string) Outcome {
	ok := true
	return Outcome{Success: &ok, Reason: reason}
}

// Failed builds a failed outcome with the given reason.
func Failed(reason string) Outcome {
	ok := false
	return Outcome{Success: &ok, Reason: reason}
}

// OK reports whether the outcome represents a successful attempt.
func (o Outcome) OK() bool {
	return o.Success != nil && *o.Success
}
