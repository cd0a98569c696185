package commands

import (
	"context"
	"fmt"
)

// LogoutCmd clears the stored session.
type LogoutCmd struct {
	ClientFlags
}

func (c *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	sessions, err := c.sessions()
	if err != nil {
		return err
	}
	if err := sessions.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}
