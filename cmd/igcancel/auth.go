package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igcancel/pkg/auth"
	"igcancel/pkg/config"
	"igcancel/pkg/instagram"
	"igcancel/pkg/logger"
	"igcancel/pkg/ui"
)

var (
	// Auth command flags
	cookieHeader string
	skipVerify   bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram credentials",
	Long: `Manage stored Instagram session cookies.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Instagram session cookies securely",
	Long: `Store the sessionid and csrftoken cookies of a logged-in browser session.

You can paste the whole Cookie header from the browser's network tab with
--cookie-header, or enter the two values at hidden prompts. The session is
checked against Instagram before it is saved, which also tells igcancel the
account's username.`,
	Example: `  # Interactive login
  igcancel auth login

  # Paste the Cookie header
  igcancel auth login --cookie-header "csrftoken=...; sessionid=...; ds_user_id=..."

  # Store without contacting Instagram
  igcancel auth login myusername --skip-verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored Instagram credentials.

If no username is provided, you will be shown a list of stored accounts
to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Instagram accounts with masked cookie values.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// verifyCmd represents the auth verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [username]",
	Short: "Check that a stored session is still accepted",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(verifyCmd)

	loginCmd.Flags().StringVar(&cookieHeader, "cookie-header", "", "Cookie header copied from the browser")
	loginCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store the cookies without checking them (requires a username)")
}

func newCredentialManager() (*auth.Manager, error) {
	dir, err := auth.ConfigDir()
	if err != nil {
		return nil, err
	}
	manager, err := auth.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	return manager, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	manager, err := newCredentialManager()
	if err != nil {
		return err
	}

	account := &auth.Account{UserAgent: cfg.Instagram.UserAgent}
	if len(args) > 0 {
		account.Username = args[0]
	}

	if cookieHeader != "" {
		cookies, err := auth.ParseCookieHeader(cookieHeader)
		if err != nil {
			return err
		}
		account.SessionID = cookies.SessionID
		account.CSRFToken = cookies.CSRFToken
	} else {
		if !ui.IsInteractive() {
			return errors.New("stdin is not a terminal, pass the cookies with --cookie-header")
		}
		auth.ShowCookieExtractionGuide(os.Stdout)

		reader := bufio.NewReader(os.Stdin)
		if account.SessionID, err = promptSecret(reader, "sessionid cookie value: "); err != nil {
			return fmt.Errorf("failed to read session ID: %w", err)
		}
		if account.CSRFToken, err = promptSecret(reader, "csrftoken cookie value: "); err != nil {
			return fmt.Errorf("failed to read CSRF token: %w", err)
		}
	}

	if account.CSRFToken == "" {
		return errors.New("csrftoken cookie is required")
	}

	if skipVerify {
		if account.Username == "" {
			return errors.New("a username is required with --skip-verify")
		}
	} else {
		fmt.Println("\nChecking the session with Instagram...")
		username, err := verifySession(cmd.Context(), cfg, account)
		if err != nil {
			return err
		}
		if account.Username != "" && !strings.EqualFold(account.Username, username) {
			ui.PrintWarning("Session belongs to @%s, storing it under that name", username)
		}
		account.Username = username
	}

	account.LastModified = time.Now()
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", account.Username))
	fmt.Println("\nCancel your pending follow requests with:")
	fmt.Println("  $ igcancel --html path/to/pending_follow_requests.html")
	fmt.Println("\nUse this account explicitly with:")
	fmt.Printf("  $ igcancel --account %s\n", account.Username)
	fmt.Println("\n⚠️  Never share your credentials or config files!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return err
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			return errors.New("no stored accounts found")
		}
		username, err = chooseAccount(os.Stdin, os.Stdout, accounts)
		if err != nil {
			return err
		}
		if username == "" {
			return nil
		}

		ok, err := ui.ConfirmStdin(fmt.Sprintf("Remove account '%s'?", username))
		if err != nil || !ok {
			return err
		}
	}

	if err := manager.Delete(username); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + username)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'igcancel auth login' to add an account")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Session ID: %s\n", sanitized.SessionID)
		fmt.Printf("   CSRF Token: %s\n", sanitized.CSRFToken)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	manager, err := newCredentialManager()
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	account, err := manager.Resolve(name)
	if err != nil {
		return err
	}

	username, err := verifySession(cmd.Context(), cfg, account)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Session for %s is valid (logged in as @%s)", account.Username, username))
	return nil
}

// verifySession asks Instagram who the cookies belong to
func verifySession(ctx context.Context, cfg *config.Config, account *auth.Account) (string, error) {
	userAgent := account.UserAgent
	if userAgent == "" {
		userAgent = cfg.Instagram.UserAgent
	}
	client := instagram.NewClient(instagram.Options{
		SessionID: account.SessionID,
		CSRFToken: account.CSRFToken,
		UserAgent: userAgent,
		AppID:     cfg.Instagram.AppID,
		Timeout:   cfg.RateLimit.RequestTimeout,
	}, logger.GetLogger())

	username, err := client.VerifySession(ctx)
	if err != nil {
		return "", fmt.Errorf("session check failed: %w", err)
	}
	return username, nil
}

// chooseAccount shows a numbered menu and returns the picked username, or
// an empty string when the user backs out.
func chooseAccount(in io.Reader, out io.Writer, accounts []*auth.Account) (string, error) {
	fmt.Fprintln(out, "Select account:")
	for i, account := range accounts {
		fmt.Fprintf(out, "  %d. %s\n", i+1, account.Username)
	}
	fmt.Fprintf(out, "  0. Cancel\n\nChoice: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	var choice int
	if _, err := fmt.Sscanf(strings.TrimSpace(line), "%d", &choice); err != nil {
		return "", fmt.Errorf("invalid choice %q", strings.TrimSpace(line))
	}
	switch {
	case choice == 0:
		return "", nil
	case choice < 0 || choice > len(accounts):
		return "", fmt.Errorf("invalid choice %d", choice)
	}
	return accounts[choice-1].Username, nil
}

// promptSecret reads a value without echo when stdin is a terminal
func promptSecret(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
