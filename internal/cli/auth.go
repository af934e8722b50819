package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/returnloop/kiosk/internal/api"
	"github.com/returnloop/kiosk/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in and store the session credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd)

	registerCmd.Flags().String("email", "", "account email address")
	registerCmd.Flags().String("first-name", "", "first name")
	registerCmd.Flags().String("last-name", "", "last name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pair, err := env.client.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	if err := env.tokens.SetTokens(ctx, session.Credentials{Access: pair.Access, Refresh: pair.Refresh}); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	fmt.Printf("Signed in as %s\n", args[0])
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := env.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	fmt.Println("Signed out")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	email, _ := cmd.Flags().GetString("email")
	firstName, _ := cmd.Flags().GetString("first-name")
	lastName, _ := cmd.Flags().GetString("last-name")

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := signalContext()
	defer cancel()

	created, err := env.client.Register(ctx, api.RegisterRequest{
		Username:  args[0],
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return err
	}
	if err := env.tokens.SetTokens(ctx, session.Credentials{Access: created.Access, Refresh: created.Refresh}); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	fmt.Printf("Account %s created and signed in\n", created.User.Username)
	return nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
