package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPortOf(t *testing.T) {
	tests := map[string]string{
		":8000":        ":8000",
		"0.0.0.0:9000": ":9000",
		"localhost:80": ":80",
		"not-an-addr":  "not-an-addr",
		"[::1]:8443":   ":8443",
	}
	for addr, want := range tests {
		if got := portOf(addr); got != want {
			t.Errorf("portOf(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestTTLLabel(t *testing.T) {
	if got := ttlLabel(0); got != "unlimited" {
		t.Errorf("ttlLabel(0) = %q", got)
	}
	if got := ttlLabel(5 * time.Minute); got != "5m0s" {
		t.Errorf("ttlLabel(5m) = %q", got)
	}
}

func TestMockServer_BadFixtures(t *testing.T) {
	home := isolateConfig(t)
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte("users:\n  - email: demo@clientdesk.dev\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := execute(t, "", "--home", home, "mock-server", "--addr", "127.0.0.1:0", "--fixtures", path)
	if res.err == nil {
		t.Fatal("mock-server accepted a user without a password")
	}

	res = execute(t, "", "--home", home, "mock-server", "--fixtures", filepath.Join(home, "missing.yaml"))
	if res.err == nil {
		t.Fatal("mock-server accepted a missing fixtures file")
	}
}
