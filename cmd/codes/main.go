// Command codes manages reference codes in the configured record store.
//
//	codes list
//	codes add -code demo -max 25
//	codes revoke -code demo
//	codes reset -code demo
//	codes sessions
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/saturnino-fabrica-de-software/lookout/internal/config"
	"github.com/saturnino-fabrica-de-software/lookout/internal/database"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/repository"
	"github.com/saturnino-fabrica-de-software/lookout/internal/store"
)

const usage = `usage: codes <command> [flags]

commands:
  list                      list reference codes and their usage
  add -code C -max N        create or update a code
  revoke -code C            stop new redemptions and invalidate existing sessions
  reset -code C             set the usage counter back to zero
  sessions                  list remembered browsers
`

type codeStore interface {
	GetCode(ctx context.Context, code string) (*domain.ReferenceCode, error)
	ListCodes(ctx context.Context) ([]domain.ReferenceCode, error)
	UpsertCode(ctx context.Context, rc domain.ReferenceCode) error
}

type sessionStore interface {
	ListSessions(ctx context.Context) ([]domain.BrowserSession, error)
	DeleteSessionsByCode(ctx context.Context, code string) (int, error)
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	codes, sessions, closeFn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	return dispatch(ctx, args, codes, sessions, out)
}

func dispatch(ctx context.Context, args []string, codes codeStore, sessions sessionStore, out io.Writer) error {
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	code := fs.String("code", "", "reference code")
	maxUses := fs.Int("max", domain.DefaultCodeMaxUses, "maximum number of redemptions")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	switch cmd {
	case "list":
		return listCodes(ctx, codes, out)
	case "add":
		return addCode(ctx, codes, *code, *maxUses, out)
	case "revoke":
		return revokeCode(ctx, codes, sessions, *code, out)
	case "reset":
		return resetCode(ctx, codes, *code, out)
	case "sessions":
		return listSessions(ctx, sessions, out)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func listCodes(ctx context.Context, codes codeStore, out io.Writer) error {
	list, err := codes.ListCodes(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tUSED\tMAX\tREMAINING\tSTATUS")
	for _, rc := range list {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", rc.Code, rc.CurrentUses, rc.MaxUses, rc.Remaining(), status(rc))
	}
	return tw.Flush()
}

func status(rc domain.ReferenceCode) string {
	switch {
	case !rc.InGoodStanding():
		return "revoked"
	case !rc.CanRedeem():
		return "exhausted"
	default:
		return "active"
	}
}

func addCode(ctx context.Context, codes codeStore, code string, maxUses int, out io.Writer) error {
	if code == "" {
		return errors.New("-code is required")
	}

	rc := domain.ReferenceCode{Code: code, MaxUses: maxUses}
	existing, err := codes.GetCode(ctx, code)
	switch {
	case err == nil:
		rc.CurrentUses = existing.CurrentUses
	case !errors.Is(err, domain.ErrInvalidCode):
		return err
	}

	if err := codes.UpsertCode(ctx, rc); err != nil {
		return err
	}
	fmt.Fprintf(out, "code %s: max_uses=%d current_uses=%d\n", rc.Code, rc.MaxUses, rc.CurrentUses)
	return nil
}

// revokeCode drops the ceiling to zero and forgets every browser that
// redeemed the code, so a later reset cannot bring those sessions back.
func revokeCode(ctx context.Context, codes codeStore, sessions sessionStore, code string, out io.Writer) error {
	rc, err := lookup(ctx, codes, code)
	if err != nil {
		return err
	}

	rc.MaxUses = 0
	if err := codes.UpsertCode(ctx, *rc); err != nil {
		return err
	}

	deleted, err := sessions.DeleteSessionsByCode(ctx, rc.Code)
	if err != nil {
		return fmt.Errorf("code %s revoked but sessions not removed: %w", rc.Code, err)
	}
	fmt.Fprintf(out, "code %s revoked (%d sessions removed)\n", rc.Code, deleted)
	return nil
}

func resetCode(ctx context.Context, codes codeStore, code string, out io.Writer) error {
	rc, err := lookup(ctx, codes, code)
	if err != nil {
		return err
	}

	rc.CurrentUses = 0
	if err := codes.UpsertCode(ctx, *rc); err != nil {
		return err
	}
	fmt.Fprintf(out, "code %s reset: %d uses available\n", rc.Code, rc.MaxUses)
	return nil
}

func lookup(ctx context.Context, codes codeStore, code string) (*domain.ReferenceCode, error) {
	if code == "" {
		return nil, errors.New("-code is required")
	}
	rc, err := codes.GetCode(ctx, code)
	if errors.Is(err, domain.ErrInvalidCode) {
		return nil, fmt.Errorf("code %s not found", code)
	}
	return rc, err
}

func listSessions(ctx context.Context, sessions sessionStore, out io.Writer) error {
	list, err := sessions.ListSessions(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINGERPRINT\tCODE\tLAST LOGIN\tUSER AGENT")
	for _, s := range list {
		fp := s.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fp, s.Code, s.LastLogin.Format(domain.LastLoginLayout), s.UserAgent)
	}
	return tw.Flush()
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (codeStore, sessionStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverPostgres {
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repository.NewReferenceCodeRepository(pool), repository.NewBrowserSessionRepository(pool), pool.Close, nil
	}

	st := store.New(cfg.DataDir)
	if err := st.Init(ctx, logger); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize record store: %w", err)
	}
	return st.Codes, st.Sessions, func() {}, nil
}
