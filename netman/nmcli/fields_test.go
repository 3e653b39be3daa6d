package nmcli

import (
	"reflect"
	"testing"
)

func TestSplitTerse(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"wlan0:wifi:connected", []string{"wlan0", "wifi", "connected"}},
		{"eth0:ethernet:", []string{"eth0", "ethernet", ""}},
		{`Cafe\:Net:wifi:disconnected`, []string{"Cafe:Net", "wifi", "disconnected"}},
		{`back\\slash:x`, []string{`back\slash`, "x"}},
		{"", []string{""}},
		{"lonely", []string{"lonely"}},
	}

	for _, c := range cases {
		got := splitTerse(c.line)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("splitTerse(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestTerseLines(t *testing.T) {
	out := "a:b\r\n\nc:d\n   \n"
	got := terseLines(out)
	want := []string{"a:b", "c:d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("terseLines = %v, want %v", got, want)
	}
}

func TestFailureMessage(t *testing.T) {
	out := "Warning: something\nError: No network with SSID 'HomeNet' found.\n"
	got := failureMessage(out)
	if got != "No network with SSID 'HomeNet' found." {
		t.Fatalf("unexpected failure message %q", got)
	}

	if got := failureMessage("plain output\n"); got != "plain output" {
		t.Fatalf("expected first line fallback, got %q", got)
	}

	if got := failureMessage("  \n"); got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}
}
