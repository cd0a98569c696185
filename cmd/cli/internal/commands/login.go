package commands

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/nkapoor/esshub/cmd/cli/internal/flow"
	"github.com/nkapoor/esshub/internal/api"
	"github.com/nkapoor/esshub/internal/logger"
)

// LoginCmd runs the interactive login sequence: captcha, credentials, then
// the 6-digit OTP.
type LoginCmd struct {
	ClientFlags

	EmployeeID string `arg:"" optional:"" help:"Employee ID to log in as"`
}

func (c *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)

	sessions, err := c.sessions()
	if err != nil {
		return err
	}
	portal := c.portal()

	ctrl := flow.New(flow.Config{
		Portal:   portal,
		Sessions: sessions,
		Demo:     c.Demo,
		OnShake:  func() { fmt.Print("\a") },
	})

	in := bufio.NewReader(os.Stdin)

	if err := c.runCredentials(ctx, ctrl, in); err != nil {
		return err
	}

	if ctrl.State() == flow.StateAwaitingOTP {
		if err := c.runOTP(ctx, ctrl, portal, in); err != nil {
			return err
		}
	}

	if profile, ok := sessions.Profile(); ok {
		fmt.Printf("\nWelcome, %s!\n", profile.DisplayName())
	} else {
		fmt.Println("\nLogin successful.")
	}
	return nil
}

// runCredentials loops the captcha/credentials prompt until the portal
// accepts or the user gives up.
func (c *LoginCmd) runCredentials(ctx context.Context, ctrl *flow.Controller, in *bufio.Reader) error {
	for {
		if err := c.showCaptcha(ctx, ctrl, in); err != nil {
			return err
		}

		employeeID := c.EmployeeID
		if employeeID == "" {
			fmt.Print("Employee ID: ")
			employeeID = readLine(in)
		} else {
			fmt.Printf("Employee ID: %s\n", employeeID)
		}

		fmt.Print("Password: ")
		password, err := readPassword()
		if err != nil {
			return err
		}

		captchaText := ""
		if !c.Demo {
			fmt.Print("Captcha text: ")
			captchaText = readLine(in)
		}

		err = ctrl.SubmitCredentials(ctx, employeeID, password, captchaText)
		if err == nil {
			return nil
		}

		var rejected *flow.RejectedError
		switch {
		case errors.As(err, &rejected):
			fmt.Printf("Login failed: %s\n\n", rejected.Message)
			// A rejected attempt keeps the employee id; only retype what
			// was wrong.
			c.EmployeeID = ctrl.EmployeeID()
			if ctrl.PasswordError() {
				fmt.Println("Check your password and try again.")
			}
		case errors.Is(err, flow.ErrMissingIdentifier),
			errors.Is(err, flow.ErrMissingPassword),
			errors.Is(err, flow.ErrMissingCaptcha):
			fmt.Printf("%s\n\n", capitalize(err.Error()))
		case api.IsConnectivity(err):
			fmt.Println("Cannot connect to server. Please check your connection.")
			return err
		default:
			return err
		}
	}
}

// showCaptcha fetches a challenge and writes the image where the user can
// open it. Load failures offer a manual retry rather than looping forever.
func (c *LoginCmd) showCaptcha(ctx context.Context, ctrl *flow.Controller, in *bufio.Reader) error {
	for {
		err := ctrl.LoadCaptcha(ctx)
		if err == nil {
			break
		}
		if errors.Is(err, api.ErrCaptchaUnavailable) {
			fmt.Println("Captcha failed to load. Press Enter to retry, or Ctrl+C to quit.")
			readLine(in)
			continue
		}
		return err
	}

	if c.Demo {
		// The demo portal accepts its fixed captcha; no need to open the
		// image.
		return nil
	}

	path, err := writeCaptchaImage(ctrl.Captcha())
	if err != nil {
		return err
	}
	fmt.Printf("Captcha image: %s\n", path)
	return nil
}

// runOTP drives the passcode step: countdown, entry, resend once expired.
func (c *LoginCmd) runOTP(ctx context.Context, ctrl *flow.Controller, portal api.Portal, in *bufio.Reader) error {
	if sentTo := ctrl.OTPSentTo(); sentTo != "" {
		fmt.Printf("\nAn OTP has been sent to %s\n", sentTo)
	}
	c.printDemoOTP(portal)
	watchExpiry(ctx, ctrl)

	for {
		if cd := ctrl.Countdown(); cd != nil {
			if remaining := cd.Remaining(); remaining > 0 {
				fmt.Printf("OTP valid for %d seconds.\n", remaining)
			} else {
				fmt.Println("The OTP has expired. Type 'r' to request a new one.")
			}
		}

		fmt.Print("Enter 6-digit OTP (or 'r' to resend): ")
		line := readLine(in)

		if strings.EqualFold(line, "r") {
			switch err := ctrl.ResendOTP(ctx); {
			case err == nil:
				fmt.Println("A new OTP has been sent.")
				c.printDemoOTP(portal)
				watchExpiry(ctx, ctrl)
			case errors.Is(err, flow.ErrResendNotReady):
				fmt.Println("The current OTP is still valid.")
			default:
				var rejected *flow.RejectedError
				if errors.As(err, &rejected) {
					fmt.Printf("Resend failed: %s\n", rejected.Message)
					continue
				}
				return err
			}
			continue
		}

		entry := ctrl.Entry()
		entry.Reset()
		for i := 0; i < len(line); i++ {
			entry.PressDigit(line[i])
		}

		err := ctrl.SubmitOTP(ctx)
		if err == nil {
			return nil
		}

		var rejected *flow.RejectedError
		switch {
		case errors.As(err, &rejected):
			fmt.Printf("Verification failed: %s\n", rejected.Message)
		case errors.Is(err, flow.ErrIncompleteCode),
			errors.Is(err, flow.ErrCodeExpired):
			fmt.Println(capitalize(err.Error()))
		case api.IsConnectivity(err):
			fmt.Println("Cannot connect to server. Please check your connection.")
			return err
		default:
			return err
		}
	}
}

// watchExpiry runs the live countdown in the background so the lapse is
// announced even while the prompt is blocked on input. The controller stops
// the countdown on verification or resend, which ends the watcher.
func watchExpiry(ctx context.Context, ctrl *flow.Controller) {
	cd := ctrl.Countdown()
	if cd == nil {
		return
	}
	go cd.Run(ctx, func(remaining int) {
		if remaining == 0 {
			fmt.Println("\nThe OTP has expired. Type 'r' to request a new one.")
		}
	})
}

// printDemoOTP surfaces the locally generated passcode when running against
// the offline portal.
func (c *LoginCmd) printDemoOTP(portal api.Portal) {
	if !c.Demo {
		return
	}
	if mock, ok := portal.(*api.Mock); ok {
		if code, ok := mock.LastOTP(); ok {
			fmt.Printf("Demo OTP: %s\n", code)
		}
	}
}

func writeCaptchaImage(captcha *api.CaptchaResponse) (string, error) {
	if captcha == nil {
		return "", errors.New("no captcha loaded")
	}
	img, err := base64.StdEncoding.DecodeString(captcha.Image)
	if err != nil {
		return "", fmt.Errorf("failed to decode captcha image: %w", err)
	}

	path := filepath.Join(os.TempDir(), "esshub-captcha.png")
	if err := os.WriteFile(path, img, 0600); err != nil {
		return "", fmt.Errorf("failed to write captcha image: %w", err)
	}
	return path, nil
}

func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword() (string, error) {
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
