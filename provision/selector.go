package provision

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smarttuppleware/hubprov/netman"
)

// SelectInterface resolves the wifi interface for a connection attempt. A
// non-empty preferred name is returned unconditionally (caller pinned it).
// Otherwise the wifi interfaces are enumerated fresh: an already connected
// one wins, else the first in listing order. An enumeration failure is
// surfaced distinctly from "no wifi hardware".
func SelectInterface(ctx context.Context, mgr netman.Manager, preferred string) (string, error) {
	if preferred != "" {
		return preferred, nil
	}

	infos, err := mgr.ListInterfaces(ctx)
	if err != nil {
		return "", errors.Wrap(err, "enumerate interfaces")
	}

	var first string
	for _, in := range infos {
		if in.Kind != netman.KindWifi {
			continue
		}
		if in.State == netman.StateConnected {
			return in.Name, nil
		}
		if first == "" {
			first = in.Name
		}
	}

	if first == "" {
		return "", netman.ErrNoWifiInterface
	}
	return first, nil
}
