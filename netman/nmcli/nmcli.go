// Package nmcli implements netman.Manager by shelling out to NetworkManager's
// nmcli. Every operation is a single bounded invocation; parsing sticks to
// terse (-t / -g) output so field order is stable across nmcli versions.
package nmcli

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/smarttuppleware/hubprov"
	"github.com/smarttuppleware/hubprov/netman"
)

const tool = "nmcli"

// Manager shells out to nmcli. It is stateless; one instance can be shared.
type Manager struct {
	log hubprov.Logger
	run runFunc
}

var _ netman.Manager = (*Manager)(nil)

func New(log hubprov.Logger) *Manager {
	r := &runner{log: log}
	return &Manager{log: log, run: r.run}
}

func (m *Manager) ListInterfaces(ctx context.Context) ([]netman.InterfaceInfo, error) {
	out, err := m.run(ctx, tool, "-t", "-f", "DEVICE,TYPE,STATE", "device", "status")
	if err != nil {
		return nil, errors.Wrap(err, "list interfaces")
	}

	var infos []netman.InterfaceInfo
	for _, line := range terseLines(out) {
		ff := splitTerse(line)
		if len(ff) < 3 || ff[0] == "" {
			continue
		}
		infos = append(infos, netman.InterfaceInfo{
			Name:  ff[0],
			Kind:  kindOf(ff[1]),
			State: stateOf(ff[2]),
		})
	}
	return infos, nil
}

func (m *Manager) SetRadio(ctx context.Context, on bool) error {
	arg := "off"
	if on {
		arg = "on"
	}
	_, err := m.run(ctx, tool, "radio", "wifi", arg)
	return err
}

func (m *Manager) Rescan(ctx context.Context, iface string) error {
	_, err := m.run(ctx, tool, "device", "wifi", "rescan", "ifname", iface)
	return err
}

func (m *Manager) VisibleSSIDs(ctx context.Context, iface string) ([]string, error) {
	out, err := m.run(ctx, tool, "-t", "-f", "SSID", "device", "wifi", "list", "ifname", iface)
	if err != nil {
		return nil, errors.Wrap(err, "list visible networks")
	}

	var ssids []string
	for _, line := range terseLines(out) {
		ssid := splitTerse(line)[0]
		// hidden networks show up with an empty or placeholder SSID
		if ssid == "" || ssid == "--" {
			continue
		}
		ssids = append(ssids, ssid)
	}
	return ssids, nil
}

func (m *Manager) Connect(ctx context.Context, iface, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", iface)
	_, err := m.run(ctx, tool, args...)
	return err
}

func (m *Manager) ListProfiles(ctx context.Context) ([]netman.SavedProfile, error) {
	out, err := m.run(ctx, tool, "-t", "-f", "NAME,UUID,TYPE", "connection", "show")
	if err != nil {
		return nil, errors.Wrap(err, "list profiles")
	}

	var profiles []netman.SavedProfile
	for _, line := range terseLines(out) {
		ff := splitTerse(line)
		if len(ff) < 3 || ff[0] == "" {
			continue
		}
		profiles = append(profiles, netman.SavedProfile{
			Name: ff[0],
			ID:   ff[1],
			Kind: kindOf(ff[2]),
		})
	}
	return profiles, nil
}

func (m *Manager) ProfileSSID(ctx context.Context, id string) (string, error) {
	out, err := m.run(ctx, tool, "-g", "802-11-wireless.ssid", "connection", "show", id)
	if err != nil {
		return "", errors.Wrapf(err, "profile %s ssid", id)
	}
	return strings.TrimSpace(out), nil
}

func (m *Manager) DeleteProfile(ctx context.Context, nameOrID string) error {
	_, err := m.run(ctx, tool, "connection", "delete", nameOrID)
	return err
}

func (m *Manager) AddProfile(ctx context.Context, iface, name, ssid string) error {
	_, err := m.run(ctx, tool, "connection", "add",
		"type", "wifi",
		"ifname", iface,
		"con-name", name,
		"ssid", ssid)
	return err
}

func (m *Manager) SetProfileHidden(ctx context.Context, name string) error {
	_, err := m.run(ctx, tool, "connection", "modify", name,
		"802-11-wireless.hidden", "yes")
	return err
}

func (m *Manager) SetProfileSecurity(ctx context.Context, name, psk string) error {
	_, err := m.run(ctx, tool, "connection", "modify", name,
		"802-11-wireless-security.key-mgmt", "wpa-psk",
		"802-11-wireless-security.psk", psk)
	return err
}

func (m *Manager) ActivateProfile(ctx context.Context, name string) error {
	_, err := m.run(ctx, tool, "connection", "up", name)
	return err
}

func kindOf(typ string) netman.InterfaceKind {
	switch typ {
	case "wifi", "802-11-wireless":
		return netman.KindWifi
	default:
		return netman.KindOther
	}
}

func stateOf(state string) netman.InterfaceState {
	// device states carry detail like "connected (externally)"
	switch {
	case strings.HasPrefix(state, "connected"):
		return netman.StateConnected
	case strings.HasPrefix(state, "disconnected"):
		return netman.StateDisconnected
	default:
		return netman.StateOther
	}
}
