package cmd

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/exitcode"
)

func TestClientsList_Table(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	res := env.run(t, "", "clients", "list")
	if res.err != nil {
		t.Fatalf("clients list error = %v", res.err)
	}

	for _, want := range []string{"Name", "Panel", "Effective Start", "Effective End",
		"Acme Health", "Premium", "01/01/2024", "31/12/2024", "Delta Care"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("table output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestClientsList_JSONKeepsServerOrder(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	res := env.run(t, "", "clients", "list", "--format", "json")
	if res.err != nil {
		t.Fatalf("clients list error = %v", res.err)
	}

	var records []api.ClientRecord
	if err := json.Unmarshal([]byte(res.stdout), &records); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
	}
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	want := []string{"Acme Health", "Blue River Clinic", "Cedar Labs", "Delta Care"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", names, want)
	}
	if !records[3].EffectiveEndAt.IsZero() {
		t.Errorf("open-ended client has end %v", records[3].EffectiveEndAt)
	}
}

func TestClientsList_SortAndFilter(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "sort by start ascending",
			args: []string{"--sort", "start"},
			want: []string{"Delta Care", "Blue River Clinic", "Acme Health", "Cedar Labs"},
		},
		{
			name: "sort by name descending",
			args: []string{"--sort", "name", "--desc"},
			want: []string{"Delta Care", "Cedar Labs", "Blue River Clinic", "Acme Health"},
		},
		{
			name: "filter by panel",
			args: []string{"--filter", "premium"},
			want: []string{"Acme Health", "Delta Care"},
		},
		{
			name: "filter by formatted date",
			args: []string{"--filter", "/2023"},
			want: []string{"Blue River Clinic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"clients", "list", "--format", "yaml"}, tt.args...)
			res := env.run(t, "", args...)
			if res.err != nil {
				t.Fatalf("clients list error = %v", res.err)
			}
			var got []string
			for _, line := range strings.Split(res.stdout, "\n") {
				if name, ok := strings.CutPrefix(line, "- name: "); ok {
					got = append(got, name)
				}
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("names = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientsList_InvalidArguments(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown sort column", args: []string{"--sort", "budget"}},
		{name: "unknown format", args: []string{"--format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(t, "", append([]string{"clients", "list"}, tt.args...)...)
			if res.err == nil {
				t.Fatal("expected an error")
			}
			if code := exitcode.DetermineExitCode(res.err); code != exitcode.UsageError {
				t.Errorf("exit code = %d, want %d (err %v)", code, exitcode.UsageError, res.err)
			}
		})
	}
}

func TestClientsList_NoSession(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "clients", "list")
	if !apperrors.HasCode(res.err, apperrors.ErrCodeAuthNoSession) {
		t.Fatalf("error = %v, want %s", res.err, apperrors.ErrCodeAuthNoSession)
	}
	if code := exitcode.DetermineExitCode(res.err); code != exitcode.AuthError {
		t.Errorf("exit code = %d, want %d", code, exitcode.AuthError)
	}
}

func TestClientsList_RevokedTokenEndsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.mock.RevokeAll()

	res := env.run(t, "", "clients", "list")
	if !apperrors.HasCode(res.err, apperrors.ErrCodeAuthSessionEnded) {
		t.Fatalf("error = %v, want %s", res.err, apperrors.ErrCodeAuthSessionEnded)
	}
	if !api.IsUnauthorized(res.err) {
		t.Errorf("error does not wrap the unauthorized response: %v", res.err)
	}
	if _, err := os.Stat(filepath.Join(env.home, "credentials.json")); !os.IsNotExist(err) {
		t.Errorf("credentials kept after the token was rejected")
	}

	res = env.run(t, "", "clients", "list")
	if !apperrors.HasCode(res.err, apperrors.ErrCodeAuthNoSession) {
		t.Errorf("next run error = %v, want %s", res.err, apperrors.ErrCodeAuthNoSession)
	}
}

func TestClientsList_NetworkErrorKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	// Reserve a port, then close it so nothing listens there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadURL := "http://" + l.Addr().String()
	l.Close()

	res := execute(t, "", "--home", env.home, "--api-url", deadURL, "clients", "list")
	if res.err == nil {
		t.Fatal("expected a network error")
	}
	if code := exitcode.DetermineExitCode(res.err); code != exitcode.NetworkError {
		t.Errorf("exit code = %d, want %d (err %v)", code, exitcode.NetworkError, res.err)
	}
	if !apperrors.HasCode(res.err, apperrors.ErrCodeAPINetwork) {
		t.Errorf("error = %v, want %s", res.err, apperrors.ErrCodeAPINetwork)
	}
	if _, err := os.Stat(filepath.Join(env.home, "credentials.json")); err != nil {
		t.Errorf("credentials removed after a network error: %v", err)
	}
}

func TestClientsList_ServerErrorIsCoded(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	res := execute(t, "", "--home", env.home, "--api-url", ts.URL, "clients", "list")
	if !apperrors.HasCode(res.err, apperrors.ErrCodeAPIStatus) {
		t.Fatalf("error = %v, want %s", res.err, apperrors.ErrCodeAPIStatus)
	}
	if code := exitcode.DetermineExitCode(res.err); code != exitcode.GeneralError {
		t.Errorf("exit code = %d, want %d", code, exitcode.GeneralError)
	}
	if _, err := os.Stat(filepath.Join(env.home, "credentials.json")); err != nil {
		t.Errorf("credentials removed after a server error: %v", err)
	}
}

func TestClientsList_HelpExamplesUseSortKeys(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	for _, line := range strings.Split(clientsListCmd.Long, "\n") {
		args := strings.Fields(line)
		if len(args) < 3 || args[0] != "clientdesk" {
			continue
		}
		t.Run(strings.Join(args[1:], " "), func(t *testing.T) {
			res := env.run(t, "", args[1:]...)
			if res.err != nil {
				t.Errorf("%s: %v", line, res.err)
			}
		})
	}
}

func TestClientsList_SortByEndDescending(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	res := env.run(t, "", "clients", "list", "--format", "yaml", "--sort", "end", "--desc")
	if res.err != nil {
		t.Fatalf("clients list error = %v", res.err)
	}
	var dated []string
	for _, line := range strings.Split(res.stdout, "\n") {
		if name, ok := strings.CutPrefix(line, "- name: "); ok && name != "Delta Care" {
			dated = append(dated, name)
		}
	}
	want := []string{"Blue River Clinic", "Cedar Labs", "Acme Health"}
	if strings.Join(dated, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", dated, want)
	}
}
