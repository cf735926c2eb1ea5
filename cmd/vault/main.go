package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/techgaint000/SecureAccountManager/internal/client"
	"github.com/techgaint000/SecureAccountManager/internal/logging"
	"github.com/techgaint000/SecureAccountManager/internal/model"
)

const usage = `Usage: vault [flags] <command> [args]

Commands:
  signup <email>         register and sign in
  login <email>          sign in
  logout                 sign out everywhere
  whoami                 show the signed-in user
  platforms              list platforms
  add-platform <name>    add a platform
  rm-platform <id>       remove a platform
  accounts               list accounts
  add-account <name>     add an account (requires --platform)
  rm-account <id>        remove an account
  watch                  stream auth events until idle timeout

Flags:
`

func main() {
	flags := pflag.NewFlagSet("vault", pflag.ExitOnError)
	server := flags.String("server", envOr("VAULT_SERVER", "http://localhost:8080"), "backend address")
	tokenFile := flags.String("token-file", defaultTokenFile(), "token cache location")
	platformID := flags.String("platform", "", "platform id for account commands")
	icon := flags.String("icon", "", "platform icon")
	color := flags.String("color", "", "platform color")
	idle := flags.Duration("idle", client.IdleTimeout, "idle timeout for watch")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}

	c := client.NewClient(*server, client.NewTokenCache(*tokenFile))
	if err := c.LoadCachedTokens(); err != nil {
		fatal("load tokens: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "signup":
		err = runCredentials(ctx, rest, c.SignUp)
	case "login":
		err = runCredentials(ctx, rest, c.SignInWithPassword)
	case "logout":
		err = runLogout(ctx, c)
	case "whoami":
		err = runWhoami(ctx, c)
	case "platforms":
		err = runPlatforms(ctx, c)
	case "add-platform":
		err = runAddPlatform(ctx, c, rest, *icon, *color)
	case "rm-platform":
		err = runRemove(ctx, rest, c.DeletePlatform)
	case "accounts":
		err = runAccounts(ctx, c, *platformID)
	case "add-account":
		err = runAddAccount(ctx, c, rest, *platformID)
	case "rm-account":
		err = runRemove(ctx, rest, c.DeleteAccount)
	case "watch":
		err = runWatch(c, *idle)
	default:
		flags.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal("%v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tokens.json"
	}
	return filepath.Join(home, ".securevault", "tokens.json")
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "vault: "+format+"\n", args...)
	os.Exit(1)
}

func promptPassword() (string, error) {
	if p := os.Getenv("VAULT_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type credentialsFunc func(ctx context.Context, email, password string) (*model.AuthSession, error)

func runCredentials(ctx context.Context, args []string, fn credentialsFunc) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one email argument")
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}
	sess, err := fn(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", sess.User.Email)
	return nil
}

func runLogout(ctx context.Context, c *client.Client) error {
	if err := c.SignOut(ctx, client.ScopeGlobal); err != nil {
		// A dead session is as signed out as it gets.
		if client.IsStaleSession(err) {
			return c.ClearLocalSession()
		}
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func runWhoami(ctx context.Context, c *client.Client) error {
	u, err := c.GetUser(ctx)
	if err != nil {
		return err
	}
	fmt.Println(u.Email)
	return nil
}

func runPlatforms(ctx context.Context, c *client.Client) error {
	list := client.NewPlatformList(c)
	if err := list.Refetch(ctx); err != nil {
		return err
	}
	for _, p := range list.Platforms() {
		fmt.Printf("%s\t%s\n", p.ID, p.Name)
	}
	return nil
}

func runAddPlatform(ctx context.Context, c *client.Client, args []string, icon, color string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one name argument")
	}
	p, err := c.CreatePlatform(ctx, client.PlatformParams{Name: args[0], Icon: icon, Color: color})
	if err != nil {
		return err
	}
	fmt.Printf("Added platform %s (%s)\n", p.Name, p.ID)
	return nil
}

func runAccounts(ctx context.Context, c *client.Client, platformID string) error {
	list := client.NewAccountList(c, platformID)
	if err := list.Refetch(ctx); err != nil {
		return err
	}
	for _, a := range list.Accounts() {
		fmt.Printf("%s\t%s\t%s\n", a.ID, a.Name, a.Username)
	}
	return nil
}

func runAddAccount(ctx context.Context, c *client.Client, args []string, platformID string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one name argument")
	}
	if platformID == "" {
		return fmt.Errorf("--platform is required")
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}
	a, err := c.CreateAccount(ctx, client.AccountParams{
		PlatformID: platformID,
		Name:       args[0],
		Password:   password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added account %s (%s)\n", a.Name, a.ID)
	return nil
}

func runRemove(ctx context.Context, args []string, fn func(context.Context, string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one id argument")
	}
	return fn(ctx, args[0])
}

// runWatch keeps a live session open: it streams auth state changes and
// treats each line of input as user activity. Going quiet past the idle
// timeout signs the session out, exactly like walking away from an unlocked
// screen.
func runWatch(c *client.Client, idle time.Duration) error {
	logger := logging.Setup("info", "text")

	store := client.NewSessionStore(c, logger.With("component", "session"))
	defer store.Close()

	unwatch := store.Watch(func(st client.State, sess *model.AuthSession) {
		if sess != nil {
			fmt.Printf("[%s] %s\n", st, sess.User.Email)
		} else {
			fmt.Printf("[%s]\n", st)
		}
	})
	defer unwatch()

	if err := store.Start(context.Background()); err != nil {
		return err
	}
	if store.State() != client.StateAuthenticated {
		return fmt.Errorf("not signed in")
	}

	monitor := client.NewMonitor(store, client.MonitorConfig{Timeout: idle}, logger.With("component", "idle"))
	defer monitor.Close()
	monitor.SetAuthenticated(true)

	fmt.Printf("Watching; idle timeout %s. Press enter to stay active, Ctrl-D to quit.\n", idle)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if store.State() != client.StateAuthenticated {
			break
		}
		monitor.Activity()
	}
	return scanner.Err()
}
