package ux

import (
	"os"
	"path/filepath"
)

// HomeLayout names the files clientdesk keeps under its home directory.
type HomeLayout struct {
	Home string
}

// NewHomeLayout creates a HomeLayout rooted at home.
func NewHomeLayout(home string) *HomeLayout {
	return &HomeLayout{Home: home}
}

// ConfigFile returns the path to config.yaml
func (h *HomeLayout) ConfigFile() string {
	return filepath.Join(h.Home, "config.yaml")
}

// CredentialsFile returns the path used by the file token store
func (h *HomeLayout) CredentialsFile() string {
	return filepath.Join(h.Home, "credentials.json")
}

// StorageDB returns the path used by the sqlite token store
func (h *HomeLayout) StorageDB() string {
	return filepath.Join(h.Home, "storage.db")
}

// LogDir returns the default log directory
func (h *HomeLayout) LogDir() string {
	return filepath.Join(h.Home, "logs")
}

// SuggestNextSteps provides contextual next steps based on what exists
func (h *HomeLayout) SuggestNextSteps() string {
	_, hasConfig := os.Stat(h.ConfigFile())
	_, hasCreds := os.Stat(h.CredentialsFile())
	_, hasDB := os.Stat(h.StorageDB())

	if os.IsNotExist(hasConfig) {
		return "Point clientdesk at your API with 'clientdesk config set api.base_url <url>'"
	}

	if os.IsNotExist(hasCreds) && os.IsNotExist(hasDB) {
		return "Sign in with 'clientdesk login'"
	}

	return "List clients with 'clientdesk clients list' or open 'clientdesk ui'"
}
