package commands

import (
	"context"
	"fmt"

	"github.com/nkapoor/esshub/cmd/cli/internal/session"
	"github.com/nkapoor/esshub/internal/api"
	"github.com/nkapoor/esshub/internal/models"
)

// ProfileCmd fetches and prints the employee profile. When the server is
// unreachable it falls back to the snapshot cached at login.
type ProfileCmd struct {
	ClientFlags
}

func (c *ProfileCmd) Run(ctx context.Context, globals *Globals) error {
	sessions, err := c.sessions()
	if err != nil {
		return err
	}
	token, err := sessionToken(sessions)
	if err != nil {
		return err
	}
	employeeID, ok := sessions.EmployeeID()
	if !ok {
		return fmt.Errorf("session has no employee id, run 'esshub login' again")
	}

	profile, err := c.portal().Employee(ctx, token, employeeID)
	switch {
	case err == nil:
		// Refresh the cached snapshot for the next offline read.
		if saveErr := sessions.Save(session.Update{Profile: profile}); saveErr != nil {
			fmt.Printf("warning: failed to cache profile: %v\n", saveErr)
		}

	case api.IsUnauthorized(err):
		// A dead token is unrecoverable; drop the session so the next
		// command prompts a fresh login.
		if clearErr := sessions.Clear(); clearErr != nil {
			return clearErr
		}
		return fmt.Errorf("session expired, please login again")

	case api.IsConnectivity(err):
		cached, ok := sessions.Profile()
		if !ok {
			return err
		}
		fmt.Println("Cannot connect to server; showing cached profile.")
		fmt.Println()
		profile = cached

	default:
		return err
	}

	printProfile(profile)
	return nil
}

func printProfile(p *models.UserProfile) {
	fmt.Printf("Employee ID:   %s\n", p.EmployeeID)
	fmt.Printf("Name:          %s\n", p.DisplayName())
	fmt.Printf("Department:    %s\n", p.Department)
	fmt.Printf("Position:      %s\n", p.Position)
	if p.Email != "" {
		fmt.Printf("Email:         %s\n", p.Email)
	}
	if p.Mobile != "" {
		fmt.Printf("Mobile:        %s\n", p.Mobile)
	}
	if p.DateOfBirth != "" {
		fmt.Printf("Date of birth: %s\n", p.DateOfBirth)
	}
	if p.JoinDate != "" {
		fmt.Printf("Join date:     %s\n", p.JoinDate)
	}
	if p.Status != "" {
		fmt.Printf("Status:        %s\n", p.Status)
	}
}
