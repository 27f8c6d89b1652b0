package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/felixgeelhaar/clientdesk/internal/version"
)

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	if res.err != nil {
		t.Fatalf("version error = %v", res.err)
	}
	if strings.TrimSpace(res.stdout) != "clientdesk "+version.Version {
		t.Errorf("version = %q", res.stdout)
	}

	res = execute(t, "", "version", "--json")
	if res.err != nil {
		t.Fatalf("version --json error = %v", res.err)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(res.stdout), &info); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if info.GoVersion == "" || info.Platform == "" {
		t.Errorf("info = %+v, want go version and platform", info)
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		res := execute(t, "", "completion", shell)
		if res.err != nil {
			t.Fatalf("completion %s error = %v", shell, res.err)
		}
		if !strings.Contains(res.stdout, "clientdesk") {
			t.Errorf("completion %s does not mention clientdesk", shell)
		}
	}

	if res := execute(t, "", "completion", "tcsh"); res.err == nil {
		t.Error("completion accepted an unknown shell")
	}
}
