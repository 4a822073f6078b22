package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"coursemirror/pkg/auth"
	"coursemirror/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage portal credentials",
	Long: `Manage the portal accounts used for browser login.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables COURSEMIRROR_USERNAME and COURSEMIRROR_PASSWORD (read-only)`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store portal credentials",
	Long: `Store a portal username and password. The password is read without
echo. Use 'coursemirror auth test' to check that the login works.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE:  runList,
}

var testCmd = &cobra.Command{
	Use:   "test [username]",
	Short: "Log in through the browser and report the result",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthTest,
}

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Explain how to reuse a browser session with --cookies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		auth.WriteCookieGuide(cmd.OutOrStdout(), cfg.Portal.BaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(testCmd)
	authCmd.AddCommand(cookiesCmd)

	testCmd.Flags().BoolVar(&headless, "headless", true, "run the login browser without a window")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Print("Portal username: ")
		username, err = readLine(reader)
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	if username == "" {
		return errors.New("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Account '%s' already exists. Update it? (y/N): ", username)
		answer, _ := readLine(reader)
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
	}

	fmt.Print("Password: ")
	password, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := manager.Store(&auth.Account{Username: username, Password: password}); err != nil {
		return err
	}

	ui.PrintSuccess("Account saved: " + username)
	fmt.Println("\nMirror a course with it:")
	fmt.Printf("  coursemirror mirror <course-url> --account %s\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Account removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts. Run 'coursemirror auth login' to add one.")
		return nil
	}

	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
			ui.Cyan(masked.Username), masked.Password, ui.Dim(masked.LastModified.Format("2006-01-02 15:04")))
	}
	return nil
}

func runAuthTest(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	// Cookies would bypass the browser login under test.
	cfg.Portal.Cookies = ""

	log, err := setupLogger(cfg, false)
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	client, err := openSession(cmd.Context(), cfg, name, log)
	if err != nil {
		return err
	}

	count := 0
	if base, err := url.Parse(cfg.Portal.BaseURL); err == nil && client.Jar != nil {
		count = len(client.Jar.Cookies(base))
	}
	ui.PrintSuccess(fmt.Sprintf("Login succeeded, %d cookies for %s", count, cfg.Portal.BaseURL))
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo on a terminal and falls back to a plain
// line otherwise.
func readPassword(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(password), nil
	}
	return readLine(r)
}
