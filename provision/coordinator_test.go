package provision

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/smarttuppleware/hubprov"
)

// fakeAttempter records attempts and returns a canned outcome, optionally
// blocking until released.
type fakeAttempter struct {
	mu      sync.Mutex
	calls   []hubprov.Credentials
	outcome hubprov.Outcome
	block   chan struct{}
}

func (f *fakeAttempter) Attempt(_ context.Context, ssid, password string) hubprov.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, hubprov.Credentials{SSID: ssid, Password: password})
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.outcome
}

func (f *fakeAttempter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig(t *testing.T) hubprov.Config {
	t.Helper()
	cfg, err := hubprov.NewConfig(hubprov.OptDeviceID("hub-001"))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func newTestCoordinator(t *testing.T, att ConnectionAttempter) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(testConfig(t), att, hubprov.GetLogger())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c
}

func decodeStatus(t *testing.T, raw []byte) hubprov.Outcome {
	t.Helper()
	var out hubprov.Outcome
	if err := jsoniter.Unmarshal(raw, &out); err != nil {
		t.Fatalf("status payload %q: %v", raw, err)
	}
	return out
}

func TestCoordinatorUnauthorizedCredentialWrite(t *testing.T) {
	att := &fakeAttempter{outcome: hubprov.Succeeded("connected via wlan0")}
	c := newTestCoordinator(t, att)

	c.HandleCredentialsWrite([]byte(`{"ssid":"HomeNet","password":"secret1"}`))
	c.Wait()

	out := decodeStatus(t, c.ReadStatus())
	if out.OK() || out.Reason != "not authorized" {
		t.Fatalf("status = %+v, want not authorized", out)
	}
	if att.callCount() != 0 {
		t.Fatal("unauthorized write must not reach the attempter")
	}
}

func TestCoordinatorParseFailureRecorded(t *testing.T) {
	att := &fakeAttempter{outcome: hubprov.Succeeded("connected via wlan0")}
	c := newTestCoordinator(t, att)

	c.HandleAuthWrite([]byte("pair-token-123"))
	c.HandleCredentialsWrite([]byte(`{"password":"x"}`))
	c.Wait()

	out := decodeStatus(t, c.ReadStatus())
	if out.OK() || !strings.HasPrefix(out.Reason, "invalid credentials:") {
		t.Fatalf("status = %+v, want an identifiable parse-error reason", out)
	}
	if att.callCount() != 0 {
		t.Fatal("a bad payload must never reach the attempter")
	}
}

func TestCoordinatorHappyPathScenario(t *testing.T) {
	att := &fakeAttempter{outcome: hubprov.Succeeded("connected via wlan0")}
	c := newTestCoordinator(t, att)

	c.HandleAuthWrite([]byte("pair-token-123"))
	c.HandleCredentialsWrite([]byte(`{"ssid":"HomeNet","password":"secret1"}`))
	c.Wait()

	out := decodeStatus(t, c.ReadStatus())
	if !out.OK() || out.Reason != "connected via wlan0" {
		t.Fatalf("status = %+v, want connected via wlan0", out)
	}

	att.mu.Lock()
	got := att.calls[0]
	att.mu.Unlock()
	want := hubprov.Credentials{SSID: "HomeNet", Password: "secret1"}
	if got != want {
		t.Fatalf("attempter got %+v, want %+v", got, want)
	}
}

func TestCoordinatorWrongTokenKeepsGateClosed(t *testing.T) {
	att := &fakeAttempter{outcome: hubprov.Succeeded("connected via wlan0")}
	c := newTestCoordinator(t, att)

	c.HandleAuthWrite([]byte("wrong"))
	c.HandleCredentialsWrite([]byte(`{"ssid":"HomeNet"}`))
	c.Wait()

	out := decodeStatus(t, c.ReadStatus())
	if out.Reason != "not authorized" {
		t.Fatalf("status = %+v, want not authorized", out)
	}
}

func TestCoordinatorBusyRejection(t *testing.T) {
	att := &fakeAttempter{
		outcome: hubprov.Succeeded("connected via wlan0"),
		block:   make(chan struct{}),
	}
	c := newTestCoordinator(t, att)

	c.HandleAuthWrite([]byte("pair-token-123"))
	c.HandleCredentialsWrite([]byte(`{"ssid":"HomeNet"}`))

	// wait for the attempt goroutine to be in flight
	deadline := time.Now().Add(2 * time.Second)
	for att.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("attempt never started")
		}
		time.Sleep(time.Millisecond)
	}

	c.HandleCredentialsWrite([]byte(`{"ssid":"OtherNet"}`))
	out := decodeStatus(t, c.ReadStatus())
	if out.OK() || out.Reason != "busy: attempt in progress" {
		t.Fatalf("status = %+v, want busy rejection", out)
	}

	close(att.block)
	c.Wait()

	out = decodeStatus(t, c.ReadStatus())
	if !out.OK() || out.Reason != "connected via wlan0" {
		t.Fatalf("status = %+v, want first attempt's outcome after completion", out)
	}
	if att.callCount() != 1 {
		t.Fatalf("busy rejection must not queue a second attempt, got %d", att.callCount())
	}
}

func TestCoordinatorStatusReadDuringAttempt(t *testing.T) {
	att := &fakeAttempter{
		outcome: hubprov.Succeeded("connected via wlan0"),
		block:   make(chan struct{}),
	}
	c := newTestCoordinator(t, att)

	c.HandleAuthWrite([]byte("pair-token-123"))
	c.HandleCredentialsWrite([]byte(`{"ssid":"HomeNet"}`))

	// reads must not block behind the in-flight attempt
	done := make(chan []byte, 1)
	go func() { done <- c.ReadStatus() }()
	select {
	case raw := <-done:
		out := decodeStatus(t, raw)
		if out.Success != nil {
			t.Fatalf("status = %+v, want the pre-attempt value while in flight", out)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("status read blocked behind the attempt")
	}

	close(att.block)
	c.Wait()
}

func TestCoordinatorIdentityRead(t *testing.T) {
	c := newTestCoordinator(t, &fakeAttempter{})

	var id hubprov.Identity
	if err := jsoniter.Unmarshal(c.ReadIdentity(), &id); err != nil {
		t.Fatalf("identity payload: %v", err)
	}
	want := hubprov.Identity{
		Type:     "SMARTTUPPLEWARE_HUB",
		Vendor:   "ZHAW",
		Model:    "DVHUB",
		Firmware: "1.0.0",
		DeviceID: "hub-001",
	}
	if !reflect.DeepEqual(id, want) {
		t.Fatalf("identity = %+v, want %+v", id, want)
	}
}

func TestCoordinatorIdentityReadIsImmutable(t *testing.T) {
	c := newTestCoordinator(t, &fakeAttempter{})

	leaked := c.ReadIdentity()
	for i := range leaked {
		leaked[i] = 'x'
	}

	var id hubprov.Identity
	if err := jsoniter.Unmarshal(c.ReadIdentity(), &id); err != nil {
		t.Fatalf("identity payload corrupted by caller mutation: %v", err)
	}
	if id.DeviceID != "hub-001" {
		t.Fatalf("identity = %+v, want the original record", id)
	}
}

func TestCoordinatorScratchRoundtrip(t *testing.T) {
	c := newTestCoordinator(t, &fakeAttempter{})

	if got := string(c.ReadScratch()); got != "ZHAW-SMARTTUPPLEWARE" {
		t.Fatalf("initial scratch = %q", got)
	}

	c.HandleScratchWrite([]byte("hello hub"))
	if got := string(c.ReadScratch()); got != "hello hub" {
		t.Fatalf("scratch = %q after write", got)
	}
}

func TestCoordinatorEndToEndFallbackScenario(t *testing.T) {
	// real attempter against the fake manager: direct connect reports the
	// network as unknown, fallback activation succeeds
	f := &fakeManager{
		interfaces: oneWifi(),
		visible:    []string{"CafeNet"},
		connectErr: errors.New("No network with SSID 'HomeNet' found."),
	}
	cfg := testConfig(t)
	cfg.ConnectTimeout = time.Second
	cfg.SettleDelay = 0

	att := NewAttempter(f, cfg, hubprov.GetLogger())
	c, err := NewCoordinator(cfg, att, hubprov.GetLogger())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	c.HandleAuthWrite([]byte("pair-token-123"))
	c.HandleCredentialsWrite([]byte(`{"ssid":"HomeNet","password":"secret1"}`))
	c.Wait()

	out := decodeStatus(t, c.ReadStatus())
	if !out.OK() || out.Reason != "connected (profile) via wlan0" {
		t.Fatalf("status = %+v, want fallback success", out)
	}
	if !f.called("SetProfileHidden(hubprov-HomeNet)") {
		t.Fatal("fallback profile must be hidden")
	}
}
