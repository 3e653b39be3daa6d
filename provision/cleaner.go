package provision

import (
	"context"

	"github.com/pkg/errors"

	"github.com/smarttuppleware/hubprov"
	"github.com/smarttuppleware/hubprov/netman"
)

// PurgeProfiles deletes every saved wifi profile whose stored SSID exactly
// equals ssid and returns how many were removed. A stale profile with
// outdated security settings makes NetworkManager silently prefer its stored
// credentials over freshly supplied ones, so the purge runs before every
// connect. The profile enumeration does not expose per-profile SSIDs, hence
// the individual lookups. Per-profile lookup and deletion failures are
// logged and skipped; only the enumeration itself failing is an error.
func PurgeProfiles(ctx context.Context, mgr netman.Manager, ssid string, log hubprov.Logger) (int, error) {
	profiles, err := mgr.ListProfiles(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "enumerate profiles")
	}

	deleted := 0
	for _, p := range profiles {
		if p.Kind != netman.KindWifi {
			continue
		}

		id := p.ID
		if id == "" {
			id = p.Name
		}

		stored, err := mgr.ProfileSSID(ctx, id)
		if err != nil {
			log.Warnf("skipping profile %q: ssid lookup failed: %v", p.Name, err)
			continue
		}
		if stored != ssid {
			continue
		}

		if err := mgr.DeleteProfile(ctx, id); err != nil {
			log.Warnf("failed to delete stale profile %q: %v", p.Name, err)
			continue
		}
		log.Infof("purged stale profile %q for ssid %q", p.Name, ssid)
		deleted++
	}

	return deleted, nil
}
