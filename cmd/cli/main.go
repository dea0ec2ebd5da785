// Command cli is the fund administrator's terminal tool.
//
//	cli [-u admin] requests [pending|approved|rejected]
//	cli [-u admin] approve <request-id>
//	cli [-u admin] reject <request-id>
//	cli [-u admin] fund
//	cli [-u admin] sweep
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/marketledger/infra/initializer"
	"github.com/amirasaad/marketledger/pkg/app"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/service/auth"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const usage = `Usage: cli [-u username] <command> [arguments]
Commands:
  requests [status]   list credit requests, optionally by status
  approve <id>        approve a pending credit request
  reject <id>         reject a pending credit request
  fund                show fund capital and loaned-out credits
  sweep               flag outstanding loans past their due date`

func main() {
	if err := run(os.Args[1:]); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	username := fs.String("u", os.Getenv("CLI_ADMIN_USER"), "admin username or email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Println(usage)
		return nil
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	cfg.Auth.Strategy = "basic"
	cfg.Scheduler.Enabled = false

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close() //nolint:errcheck

	a := app.New(deps.ToAppDeps(), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stdin := bufio.NewReader(os.Stdin)
	if *username == "" {
		if *username, err = prompt(stdin, os.Stdout, "Username: "); err != nil {
			return err
		}
	}
	password, err := readPassword(stdin, os.Stdout)
	if err != nil {
		return err
	}
	admin, err := login(ctx, a.AuthService, *username, password)
	if err != nil {
		return err
	}

	c := &commander{app: a, admin: admin, out: os.Stdout}
	return c.execute(ctx, fs.Args())
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(in *bufio.Reader, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(in, out, "Password: ")
	}
	fmt.Fprint(out, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// login authenticates identity and requires the admin role.
func login(ctx context.Context, authSvc *auth.Service, identity, password string) (*user.User, error) {
	u, err := authSvc.Login(ctx, identity, password)
	if err != nil {
		return nil, err
	}
	if u.Role != user.RoleAdmin {
		return nil, fmt.Errorf("%s is not an administrator", u.Username)
	}
	return u, nil
}
