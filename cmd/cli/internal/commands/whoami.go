package commands

import (
	"context"
	"fmt"
)

// WhoamiCmd prints the stored identity without touching the network.
type WhoamiCmd struct {
	ClientFlags
}

func (c *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	sessions, err := c.sessions()
	if err != nil {
		return err
	}

	if !sessions.IsAuthenticated() {
		fmt.Println("Not logged in.")
		if employeeID, ok := sessions.EmployeeID(); ok {
			fmt.Printf("Last login attempt: %s\n", employeeID)
		}
		return nil
	}

	employeeID, _ := sessions.EmployeeID()
	fmt.Printf("Logged in as %s\n", employeeID)

	if profile, ok := sessions.Profile(); ok {
		fmt.Printf("Name: %s\n", profile.DisplayName())
		fmt.Printf("Department: %s\n", profile.Department)
		fmt.Printf("Position: %s\n", profile.Position)
	}
	return nil
}
