package commands

import (
	"fmt"

	"github.com/nkapoor/esshub/cmd/cli/internal/session"
	"github.com/nkapoor/esshub/internal/api"
)

type Globals struct {
	Debug   bool
	Version string
}

// ClientFlags is embedded by every command that talks to the portal.
type ClientFlags struct {
	Server     string `help:"Portal server URL" default:"http://localhost:8000" env:"ESSHUB_SERVER"`
	Demo       bool   `help:"Use the built-in offline demo portal" env:"ESSHUB_DEMO"`
	SessionDir string `help:"Custom session directory (default: ~/.esshub/)"`
}

// portal returns the HTTP client, or the offline demo portal when --demo is
// set.
func (f *ClientFlags) portal() api.Portal {
	if f.Demo {
		return api.NewMock()
	}
	return api.NewClient(api.Config{BaseURL: f.Server})
}

func (f *ClientFlags) sessions() (*session.Store, error) {
	store, err := session.NewStore(f.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

// sessionToken returns the stored bearer token or an instruction to log in.
func sessionToken(store *session.Store) (string, error) {
	token, ok := store.Token()
	if !ok {
		return "", fmt.Errorf("not logged in, run 'esshub login' first")
	}
	return token, nil
}
