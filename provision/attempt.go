package provision

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/smarttuppleware/hubprov"
	"github.com/smarttuppleware/hubprov/netman"
)

// Per-step budgets for the cheap subsystem calls. The direct connect and the
// fallback activation use the configured connect budget instead.
const (
	queryTimeout  = 10 * time.Second
	mutateTimeout = 15 * time.Second
)

// ProfileName is the deterministic name of the fallback profile for an ssid.
// Using a fixed prefix keeps the hub's own profiles recognizable and lets a
// repeated attempt replace its predecessor instead of accumulating copies.
func ProfileName(ssid string) string {
	return "hubprov-" + ssid
}

// ConnectionAttempter runs a full connection attempt and reports the
// outcome. *Attempter is the production implementation; the Coordinator only
// depends on this interface.
type ConnectionAttempter interface {
	Attempt(ctx context.Context, ssid, password string) hubprov.Outcome
}

// Attempter drives the scan/connect/fallback ladder against a
// netman.Manager. Every external step is individually bounded, and every
// failure ends up in the returned outcome instead of escaping as an error:
// the provisioning channel must stay responsive no matter how broken the
// network stack is.
type Attempter struct {
	mgr    netman.Manager
	log    hubprov.Logger
	iface  string
	budget time.Duration
	settle time.Duration

	sleep func(context.Context, time.Duration)
}

var _ ConnectionAttempter = (*Attempter)(nil)

func NewAttempter(mgr netman.Manager, cfg hubprov.Config, log hubprov.Logger) *Attempter {
	return &Attempter{
		mgr:    mgr,
		log:    log.ChildLogger(map[string]interface{}{"component": "attempter"}),
		iface:  cfg.Interface,
		budget: cfg.ConnectTimeout,
		settle: cfg.SettleDelay,
		sleep:  sleepCtx,
	}
}

// attempt is the mutable state threaded through the ladder. iface starts as
// the configured pin (possibly empty) and is settled by resolveInterface.
type attempt struct {
	*Attempter

	ssid     string
	password string

	iface         string
	visible       bool
	directFailure string
}

// The ladder. Each step either finishes the attempt with an outcome or hands
// over to the next step; order matters and is part of the protocol.
var ladder = []struct {
	name string
	run  func(*attempt, context.Context) (hubprov.Outcome, bool)
}{
	{"check ssid", (*attempt).checkSSID},
	{"resolve interface", (*attempt).resolveInterface},
	{"enable radio", (*attempt).enableRadio},
	{"rescan", (*attempt).rescan},
	{"purge stale profiles", (*attempt).purgeStale},
	{"check visibility", (*attempt).checkVisibility},
	{"direct connect", (*attempt).directConnect},
	{"profile fallback", (*attempt).profileFallback},
}

// Attempt runs the ladder for the given credentials. It blocks for up to
// tens of seconds; callers dispatch it off the event path.
func (a *Attempter) Attempt(ctx context.Context, ssid, password string) hubprov.Outcome {
	at := &attempt{Attempter: a, ssid: ssid, password: password, iface: a.iface}

	a.log.Infof("connection attempt for ssid %q starting", ssid)
	for _, step := range ladder {
		out, done := step.run(at, ctx)
		if done {
			a.log.Infof("attempt finished at %q: success=%v reason=%q", step.name, out.OK(), out.Reason)
			return out
		}
	}
	// the last ladder step always finishes
	return hubprov.Failed("internal: ladder fell through")
}

func (at *attempt) checkSSID(context.Context) (hubprov.Outcome, bool) {
	if at.ssid == "" {
		return hubprov.Failed("missing ssid"), true
	}
	return hubprov.Outcome{}, false
}

func (at *attempt) resolveInterface(ctx context.Context) (hubprov.Outcome, bool) {
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	iface, err := SelectInterface(qctx, at.mgr, at.iface)
	if err != nil {
		reason := "no wifi interface found"
		if errors.Cause(err) != netman.ErrNoWifiInterface {
			reason += ": " + err.Error()
		}
		return hubprov.Failed(reason), true
	}

	at.iface = iface
	at.log.Debugf("using wifi interface %q", iface)
	return hubprov.Outcome{}, false
}

func (at *attempt) enableRadio(ctx context.Context) (hubprov.Outcome, bool) {
	mctx, cancel := context.WithTimeout(ctx, mutateTimeout)
	defer cancel()

	if err := at.mgr.SetRadio(mctx, true); err != nil {
		at.log.Warnf("radio enable failed (continuing): %v", err)
	}
	return hubprov.Outcome{}, false
}

func (at *attempt) rescan(ctx context.Context) (hubprov.Outcome, bool) {
	mctx, cancel := context.WithTimeout(ctx, mutateTimeout)
	defer cancel()

	if err := at.mgr.Rescan(mctx, at.iface); err != nil {
		at.log.Warnf("rescan failed (continuing): %v", err)
	}

	// visibility queries right after a rescan request are frequently
	// stale; give the subsystem time to refresh its cache
	at.sleep(ctx, at.settle)
	return hubprov.Outcome{}, false
}

func (at *attempt) purgeStale(ctx context.Context) (hubprov.Outcome, bool) {
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if n, err := PurgeProfiles(qctx, at.mgr, at.ssid, at.log); err != nil {
		at.log.Warnf("profile purge failed (continuing): %v", err)
	} else if n > 0 {
		at.log.Infof("purged %d stale profile(s) for %q", n, at.ssid)
	}
	return hubprov.Outcome{}, false
}

func (at *attempt) checkVisibility(ctx context.Context) (hubprov.Outcome, bool) {
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ssids, err := at.mgr.VisibleSSIDs(qctx, at.iface)
	if err != nil {
		// defaulting to not-visible steers a doomed direct attempt
		// into the fallback path instead
		at.log.Warnf("visibility query failed, assuming %q not visible: %v", at.ssid, err)
		at.visible = false
		return hubprov.Outcome{}, false
	}

	for _, s := range ssids {
		if s == at.ssid {
			at.visible = true
			break
		}
	}
	at.log.Debugf("ssid %q visible=%v (%d networks seen)", at.ssid, at.visible, len(ssids))
	return hubprov.Outcome{}, false
}

func (at *attempt) directConnect(ctx context.Context) (hubprov.Outcome, bool) {
	cctx, cancel := context.WithTimeout(ctx, at.budget)
	defer cancel()

	err := at.mgr.Connect(cctx, at.iface, at.ssid, at.password)
	switch {
	case err == nil:
		return hubprov.Succeeded("connected via " + at.iface), true
	case netman.IsTimeout(err):
		// a hung tool call must not be retried blindly
		return hubprov.Failed("timeout"), true
	case netman.IsToolUnavailable(err):
		return hubprov.Failed(errors.Cause(err).Error()), true
	}

	msg := err.Error()
	if !at.visible || mentionsNotFound(msg) {
		at.directFailure = msg
		at.log.Infof("direct connect failed (%s), trying profile fallback", msg)
		return hubprov.Outcome{}, false
	}
	return hubprov.Failed(msg), true
}

func (at *attempt) profileFallback(ctx context.Context) (hubprov.Outcome, bool) {
	name := ProfileName(at.ssid)

	// each mutation gets its own budget; a slow add must not starve the
	// modify calls after it
	mutate := func(op func(context.Context) error) error {
		mctx, cancel := context.WithTimeout(ctx, mutateTimeout)
		defer cancel()
		return op(mctx)
	}

	// a leftover profile with this name would shadow the new settings
	if err := mutate(func(c context.Context) error { return at.mgr.DeleteProfile(c, name) }); err != nil {
		at.log.Debugf("no previous fallback profile removed: %v", err)
	}

	if err := mutate(func(c context.Context) error { return at.mgr.AddProfile(c, at.iface, name, at.ssid) }); err != nil {
		return at.fallbackFailed(err), true
	}

	// hidden=true also works for broadcast networks; it sidesteps both
	// hidden ssids and stale scan caches
	if err := mutate(func(c context.Context) error { return at.mgr.SetProfileHidden(c, name) }); err != nil {
		return at.fallbackFailed(err), true
	}

	if at.password != "" {
		if err := mutate(func(c context.Context) error { return at.mgr.SetProfileSecurity(c, name, at.password) }); err != nil {
			return at.fallbackFailed(err), true
		}
	}

	actx, cancel := context.WithTimeout(ctx, at.budget+at.budget/2)
	defer cancel()

	if err := at.mgr.ActivateProfile(actx, name); err != nil {
		return at.fallbackFailed(err), true
	}
	return hubprov.Succeeded("connected (profile) via " + at.iface), true
}

func (at *attempt) fallbackFailed(err error) hubprov.Outcome {
	msg := err.Error()
	if msg == "" {
		msg = at.directFailure
	}
	return hubprov.Failed(msg)
}

// mentionsNotFound matches the subsystem's "no such network" refusals, e.g.
// nmcli's "No network with SSID 'X' found.".
func mentionsNotFound(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "not found") || strings.Contains(m, "no network")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
