package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smarttuppleware/hubprov/netman"
)

// fakeManager is a scriptable in-memory netman.Manager. Every call is
// recorded so tests can assert on the exact operation sequence.
type fakeManager struct {
	mu        sync.Mutex
	calls     []string
	deadlines map[string]time.Time

	interfaces    []netman.InterfaceInfo
	interfacesErr error

	radioErr  error
	rescanErr error

	visible    []string
	visibleErr error

	connectErr error

	profiles    []netman.SavedProfile
	profilesErr error

	profileSSIDs   map[string]string
	profileSSIDErr map[string]error

	deleteErr   map[string]error
	addErr      error
	addDelay    time.Duration
	hiddenErr   error
	securityErr error
	activateErr error
}

var _ netman.Manager = (*fakeManager)(nil)

func (f *fakeManager) record(format string, args ...interface{}) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *fakeManager) recordDeadline(ctx context.Context, key string) {
	if d, ok := ctx.Deadline(); ok {
		f.mu.Lock()
		if f.deadlines == nil {
			f.deadlines = map[string]time.Time{}
		}
		f.deadlines[key] = d
		f.mu.Unlock()
	}
}

func (f *fakeManager) deadline(key string) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deadlines[key]
}

func (f *fakeManager) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeManager) called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func (f *fakeManager) ListInterfaces(context.Context) ([]netman.InterfaceInfo, error) {
	f.record("ListInterfaces")
	return f.interfaces, f.interfacesErr
}

func (f *fakeManager) SetRadio(_ context.Context, on bool) error {
	f.record("SetRadio(%v)", on)
	return f.radioErr
}

func (f *fakeManager) Rescan(_ context.Context, iface string) error {
	f.record("Rescan(%s)", iface)
	return f.rescanErr
}

func (f *fakeManager) VisibleSSIDs(_ context.Context, iface string) ([]string, error) {
	f.record("VisibleSSIDs(%s)", iface)
	return f.visible, f.visibleErr
}

func (f *fakeManager) Connect(_ context.Context, iface, ssid, password string) error {
	f.record("Connect(%s,%s,%s)", iface, ssid, password)
	return f.connectErr
}

func (f *fakeManager) ListProfiles(context.Context) ([]netman.SavedProfile, error) {
	f.record("ListProfiles")
	return f.profiles, f.profilesErr
}

func (f *fakeManager) ProfileSSID(_ context.Context, id string) (string, error) {
	f.record("ProfileSSID(%s)", id)
	if err, ok := f.profileSSIDErr[id]; ok {
		return "", err
	}
	return f.profileSSIDs[id], nil
}

func (f *fakeManager) DeleteProfile(_ context.Context, nameOrID string) error {
	f.record("DeleteProfile(%s)", nameOrID)
	return f.deleteErr[nameOrID]
}

func (f *fakeManager) AddProfile(ctx context.Context, iface, name, ssid string) error {
	f.record("AddProfile(%s,%s,%s)", iface, name, ssid)
	f.recordDeadline(ctx, "add")
	if f.addDelay > 0 {
		time.Sleep(f.addDelay)
	}
	return f.addErr
}

func (f *fakeManager) SetProfileHidden(ctx context.Context, name string) error {
	f.record("SetProfileHidden(%s)", name)
	f.recordDeadline(ctx, "hidden")
	return f.hiddenErr
}

func (f *fakeManager) SetProfileSecurity(_ context.Context, name, psk string) error {
	f.record("SetProfileSecurity(%s,%s)", name, psk)
	return f.securityErr
}

func (f *fakeManager) ActivateProfile(_ context.Context, name string) error {
	f.record("ActivateProfile(%s)", name)
	return f.activateErr
}

// oneWifi is the baseline happy-path hardware: a single disconnected wifi
// interface named wlan0.
func oneWifi() []netman.InterfaceInfo {
	return []netman.InterfaceInfo{
		{Name: "eth0", Kind: netman.KindOther, State: netman.StateConnected},
		{Name: "wlan0", Kind: netman.KindWifi, State: netman.StateDisconnected},
	}
}
