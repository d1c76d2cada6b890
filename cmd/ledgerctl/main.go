// Command ledgerctl runs ledger imports and exports against the configured
// store without going through the HTTP API.
//
//	ledgerctl accounts
//	ledgerctl import -account ID [-file path] [-delimiter tab] [-update] [-commit]
//	ledgerctl export -account ID [-search text] [-status s] [-out file]
//	ledgerctl export -projects [-year 2024] [-out file]
//	ledgerctl hash-password -password secret
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/boddenberg/org-finance-bfa-go/internal/config"
	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/backend"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/cache"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/collections"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

var errUsage = errors.New("usage: ledgerctl <accounts|import|export|hash-password> [flags]")

func main() {
	_ = config.LoadDotEnv(".env")

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}

type app struct {
	ledger   *service.LedgerService
	imports  *service.ImportService
	export   *service.ExportService
	closeAll func()
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	if cmd == "hash-password" {
		return hashPassword(rest, stdout)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.closeAll()

	switch cmd {
	case "accounts":
		return a.listAccounts(ctx, stdout)
	case "import":
		return a.importFile(ctx, rest, stdin, stdout)
	case "export":
		return a.exportCSV(ctx, rest, stdout)
	}
	return errUsage
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := observability.NewLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	docs, closeStore, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store := collections.New(docs)
	accounts := cache.New[[]domain.BankAccount](cfg.CacheTTL)

	ledgerSvc := service.NewLedgerService(store, accounts, cfg.BalanceTolerance, metrics, logger)
	projectSvc := service.NewProjectService(store, store, metrics, logger)
	return &app{
		ledger:  ledgerSvc,
		imports: service.NewImportService(store, metrics, logger),
		export:  service.NewExportService(ledgerSvc, projectSvc, nil, metrics, logger),
		closeAll: func() {
			accounts.Close()
			if err := closeStore(); err != nil {
				logger.Warn("closing store", zap.Error(err))
			}
			_ = logger.Sync()
		},
	}, nil
}

// ============================================================
// Subcommands
// ============================================================

func (a *app) listAccounts(ctx context.Context, stdout io.Writer) error {
	accounts, err := a.ledger.ListAccounts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOPENING\tACTIVE")
	for _, acc := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%t\n", acc.ID, acc.Name, acc.Balance, acc.IsActive)
	}
	return tw.Flush()
}

func (a *app) importFile(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	accountID := fs.String("account", "", "bank account id (required)")
	file := fs.String("file", "-", "file to import, - for stdin")
	delimiter := fs.String("delimiter", ",", `column delimiter: "," or "tab"`)
	skipHeader := fs.Bool("skip-header", false, "skip the first non-empty line")
	headerSchema := fs.Bool("header", false, "map columns by the header row")
	update := fs.Bool("update", false, "update transactions that already exist")
	strict := fs.Bool("strict", false, "match existing transactions on every field")
	commit := fs.Bool("commit", false, "write the records; without it the import is a dry run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *accountID == "" {
		return errors.New("import: -account is required")
	}

	text, err := readInput(*file, stdin)
	if err != nil {
		return err
	}
	req := &domain.ImportRequest{
		Text:           text,
		Delimiter:      *delimiter,
		SkipHeaderRow:  *skipHeader,
		UpdateExisting: *update,
		StrictMatch:    *strict,
		HeaderSchema:   *headerSchema,
	}

	if !*commit {
		preview, err := a.imports.Preview(ctx, *accountID, req)
		if err != nil {
			return err
		}
		printPreview(stdout, preview)
		fmt.Fprintln(stdout, "dry run, nothing written (use -commit)")
		return nil
	}

	res, err := a.imports.Commit(ctx, *accountID, req)
	if err != nil {
		return err
	}
	printPreview(stdout, &res.ImportPreview)
	fmt.Fprintf(stdout, "written: %d, failed: %d\n", len(res.Result.Succeeded), len(res.Result.Failed))
	for _, f := range res.Result.Failed {
		fmt.Fprintf(stdout, "  %s: %s\n", f.ID, f.Error)
	}
	if len(res.Result.Failed) > 0 {
		return fmt.Errorf("import: %d records failed", len(res.Result.Failed))
	}
	return nil
}

func printPreview(w io.Writer, p *service.ImportPreview) {
	fmt.Fprintf(w, "records: %d valid, %d invalid, %d updates\n", p.Valid, p.Invalid, p.Updates)
	for _, rec := range p.Records {
		if !rec.IsValid {
			fmt.Fprintf(w, "  line %d: %s\n", rec.Line, strings.Join(rec.Errors, "; "))
		}
	}
}

func (a *app) exportCSV(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	accountID := fs.String("account", "", "bank account id")
	projects := fs.Bool("projects", false, "export project spending instead of transactions")
	search := fs.String("search", "", "text search")
	status := fs.String("status", "", "transaction or project status")
	category := fs.String("category", "", "transaction category or project BOD category")
	from := fs.String("from", "", "first date, YYYY-MM-DD")
	to := fs.String("to", "", "last date, YYYY-MM-DD")
	year := fs.String("year", "", "project year")
	out := fs.String("out", "-", "output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer f.Close()
		w = f
	}

	var name string
	var err error
	if *projects {
		name, err = a.export.Projects(ctx, ledger.ProjectFilters{
			Search: *search, Status: *status, BODCategory: *category, Year: *year,
		}, w)
	} else {
		if *accountID == "" {
			return errors.New("export: -account or -projects is required")
		}
		name, err = a.export.Transactions(ctx, *accountID, ledger.TransactionFilters{
			Search: *search, Status: *status, Category: *category, DateFrom: *from, DateTo: *to,
		}, w)
	}
	if err != nil {
		return err
	}
	if *out != "-" {
		fmt.Fprintf(stdout, "wrote %s (%s)\n", *out, name)
	}
	return nil
}

func hashPassword(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	password := fs.String("password", "", "password to hash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		return errors.New("hash-password: -password is required")
	}
	hash, err := service.HashPassword(*password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
