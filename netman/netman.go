// Package netman abstracts the host's network-configuration subsystem. The
// provisioning logic only ever talks to the Manager interface; the nmcli
// subpackage provides the production implementation, and tests substitute an
// in-memory fake.
package netman

import "context"

// InterfaceKind classifies a network interface.
type InterfaceKind int

const (
	KindOther InterfaceKind = iota
	KindWifi
)

// InterfaceState is the coarse connection state of an interface.
type InterfaceState int

const (
	StateOther InterfaceState = iota
	StateDisconnected
	StateConnected
)

// InterfaceInfo is a point-in-time snapshot of one network interface. It is
// re-fetched for every connection attempt; never cache it.
type InterfaceInfo struct {
	Name  string
	Kind  InterfaceKind
	State InterfaceState
}

// SavedProfile is one persisted connection profile as reported by the
// subsystem's enumeration. The enumeration does not expose the stored SSID;
// query it per profile with ProfileSSID.
type SavedProfile struct {
	Name string
	ID   string
	Kind InterfaceKind
}

// Manager is the set of network-subsystem operations the provisioning flow
// consumes. Every call is bounded by the deadline on ctx; implementations
// must distinguish a missing underlying tool (IsToolUnavailable) from a
// timeout (IsTimeout) and from a substantive refusal (any other error, whose
// message is surfaced to the controller verbatim).
type Manager interface {
	// ListInterfaces enumerates all network interfaces with kind and state.
	ListInterfaces(ctx context.Context) ([]InterfaceInfo, error)

	// SetRadio powers the wifi radio on or off.
	SetRadio(ctx context.Context, on bool) error

	// Rescan asks the subsystem to refresh scan results on iface. Results
	// queried immediately after are frequently stale; wait before trusting
	// VisibleSSIDs.
	Rescan(ctx context.Context, iface string) error

	// VisibleSSIDs lists the network names currently visible on iface.
	VisibleSSIDs(ctx context.Context, iface string) ([]string, error)

	// Connect issues a connect-by-name for ssid on iface. password may be
	// empty for open networks.
	Connect(ctx context.Context, iface, ssid, password string) error

	// ListProfiles enumerates saved connection profiles.
	ListProfiles(ctx context.Context) ([]SavedProfile, error)

	// ProfileSSID returns the SSID stored in the profile identified by id.
	ProfileSSID(ctx context.Context, id string) (string, error)

	// DeleteProfile removes a saved profile by name or id.
	DeleteProfile(ctx context.Context, nameOrID string) error

	// AddProfile creates a wifi profile bound to iface with the given
	// profile name and ssid.
	AddProfile(ctx context.Context, iface, name, ssid string) error

	// SetProfileHidden marks the named profile as targeting a hidden
	// network. Safe to apply to profiles for broadcast networks too.
	SetProfileHidden(ctx context.Context, name string) error

	// SetProfileSecurity switches the named profile to a pre-shared-key
	// scheme with the given key.
	SetProfileSecurity(ctx context.Context, name, psk string) error

	// ActivateProfile brings the named profile up.
	ActivateProfile(ctx context.Context, name string) error
}
