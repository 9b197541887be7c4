// Command register creates an account with the Account Service from the
// terminal and stores the returned session token.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/cafoot/client/accounts"
	"github.com/cafoot/client/internal/navigation"
	"github.com/cafoot/client/internal/notify"
	"github.com/cafoot/client/internal/pkg/log"
	platformconfig "github.com/cafoot/client/internal/platform/config"
	"github.com/cafoot/client/internal/state"
	"github.com/cafoot/client/internal/storage"
	"github.com/cafoot/client/internal/types"
	"github.com/cafoot/client/register"
)

const (
	exitOK = iota
	exitFailed
	exitUsage
)

type options struct {
	envFile  string
	fullName string
	email    string
	password string
	confirm  string
	login    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.envFile, "env", "", "read configuration from this dotenv file instead of the environment")
	fs.StringVar(&o.fullName, "name", "", "full name")
	fs.StringVar(&o.email, "email", "", "email address")
	fs.StringVar(&o.password, "password", "", "password")
	fs.StringVar(&o.confirm, "confirm", "", "password confirmation")
	fs.BoolVar(&o.login, "login", false, "go to sign in instead of registering")
	err := fs.Parse(args)
	return o, err
}

func loadConfig(o options) (*platformconfig.Config, error) {
	if o.envFile != "" {
		return platformconfig.LoadFromFile(o.envFile)
	}
	return platformconfig.LoadFromEnv()
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(exitUsage)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, opts, os.Stdin, color.Output, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *platformconfig.Config, opts options, stdin io.Reader, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)
	log.SetDebug(cfg.Debug)

	store, err := storage.New(cfg.Storage)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open storage: %v\n", err)
		return exitFailed
	}
	defer store.Close()

	client, err := accounts.NewHTTPClient(cfg.AccountService.RegisterURL(), cfg.AccountService.Timeout,
		accounts.WithUserAgent(cfg.AccountService.UserAgent))
	if err != nil {
		fmt.Fprintf(stderr, "Invalid account service: %v\n", err)
		return exitUsage
	}

	identity := state.NewSlot[accounts.User]()
	notifier := notify.New(cfg.Registration.NotificationTTL)
	defer notifier.Stop()
	unsubscribe := notifier.Subscribe(func(n notify.Notification) {
		printNotification(stdout, n)
	})
	defer unsubscribe()

	arrived := make(chan string, 1)
	nav := navigation.NavigatorFunc(func(dest string) {
		fmt.Fprintf(stdout, "-> %s\n", dest)
		select {
		case arrived <- dest:
		default:
		}
	})

	form, err := register.NewController(register.Dependencies{
		Registrar: client,
		Identity:  identity,
		Store:     store,
		Notifier:  notifier,
		Navigator: nav,
	}, register.WithRedirectDelay(cfg.Registration.RedirectDelay))
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailed
	}
	defer form.Close()

	if opts.login {
		form.GoToLogin()
		return exitOK
	}

	p := prompter{in: bufio.NewScanner(stdin), out: stdout}
	draft := register.Draft{
		FullName:        p.ask("Full name", opts.fullName),
		Email:           p.ask("Email", opts.email),
		Password:        p.ask("Password", opts.password),
		ConfirmPassword: p.ask("Confirm password", opts.confirm),
	}
	if s := register.EstimateStrength(draft.Password, draft.FullName, draft.Email); s.Weak() {
		color.New(color.FgYellow).Fprintf(stdout, "Weak password (score %d/4, cracked in %s)\n", s.Score, s.CrackTime)
	}

	if err := form.Submit(ctx, draft); err != nil {
		if errors.Is(err, register.ErrPasswordMismatch) {
			return exitUsage
		}
		return exitFailed
	}

	select {
	case dest := <-arrived:
		if dest != types.RouteDashboard {
			return exitFailed
		}
	case <-ctx.Done():
		return exitFailed
	}
	if u, ok := identity.Get(); ok {
		fmt.Fprintf(stdout, "Signed in as %s\n", u)
	}
	return exitOK
}

func printNotification(w io.Writer, n notify.Notification) {
	if !n.Visible {
		return
	}
	c := color.New(color.FgGreen)
	if n.Severity == notify.SeverityError {
		c = color.New(color.FgRed)
	}
	c.Fprintln(w, n.Message)
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// ask returns value, prompting for it when empty
func (p prompter) ask(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}
