package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/infrastructure/auth"
	"github.com/iho/palletledger/internal/infrastructure/logger"
	"github.com/iho/palletledger/internal/infrastructure/postgres"
)

func partnersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partners",
		Short: "Partner operations",
	}

	var query string
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List partners with their current balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if query != "" {
				q.Set("q", query)
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp dto.ListPartnersResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/partners/?"+q.Encode(), nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tName\tEUP\tGB\tTMB1\tTMB2")
			for _, p := range resp.Partners {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", p.ID, p.Name, p.Saldo.EUP, p.Saldo.GB, p.Saldo.TMB1, p.Saldo.TMB2)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVarP(&query, "query", "q", "", "Filter by name")
	listCmd.Flags().IntVar(&limit, "limit", domain.DefaultPageSize, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.PartnerResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/partners/", dto.CreatePartnerRequest{Name: args[0]}, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete PARTNER_ID",
		Short: "Delete a partner with all entries and closures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().do(cmd.Context(), http.MethodDelete, "/api/v1/partners/"+url.PathEscape(args[0]), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "partner %s deleted\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, createCmd, deleteCmd)
	return cmd
}

type periodFlags struct {
	year, month int
	from, to    string
	richtung    string
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.year, "year", 0, "Year of the period")
	cmd.Flags().IntVar(&p.month, "month", 0, "Month of the period")
	cmd.Flags().StringVar(&p.from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&p.to, "to", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&p.richtung, "richtung", "", "List only Eingang or Ausgang entries")
}

func (p *periodFlags) query() url.Values {
	q := url.Values{}
	if p.from != "" {
		q.Set("start_date", p.from)
	}
	if p.to != "" {
		q.Set("end_date", p.to)
	}
	if p.year != 0 {
		q.Set("year", strconv.Itoa(p.year))
	}
	if p.month != 0 {
		q.Set("month", strconv.Itoa(p.month))
	}
	if p.richtung != "" {
		q.Set("richtung", p.richtung)
	}
	return q
}

func balanceCmd(opts *rootOptions) *cobra.Command {
	period := &periodFlags{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "balance PARTNER_ID",
		Short: "Show the balance of a partner for a period (default: current month)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/partners/" + url.PathEscape(args[0]) + "/balance"
			if q := period.query(); len(q) > 0 {
				path += "?" + q.Encode()
			}

			var resp dto.BalanceResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printBalance(cmd.OutOrStdout(), &resp)
		},
	}
	period.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response")

	return cmd
}

func printBalance(w io.Writer, b *dto.BalanceResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "Zeitraum\t%s - %s\t\t\t\t\n", b.PeriodStart.Format("02.01.2006"), b.PeriodEnd.Format("02.01.2006"))
	fmt.Fprintln(tw, "\tEUP\tGB\tTMB1\tTMB2\t")
	for _, line := range []struct {
		label string
		q     domain.Quantities
	}{
		{"Anfangssaldo", b.SaldoStart},
		{"Bewegung", b.Movement},
		{"Endsaldo", b.SaldoEnd},
		{"Summe Eingang", b.SumsInbound},
		{"Summe Ausgang", b.SumsOutbound},
	} {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", line.label, line.q.EUP, line.q.GB, line.q.TMB1, line.q.TMB2)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d Buchungen\n", len(b.Entries))
	return nil
}

func exportCmd(opts *rootOptions) *cobra.Command {
	period := &periodFlags{}
	var output string

	cmd := &cobra.Command{
		Use:   "export PARTNER_ID",
		Short: "Download the spreadsheet statement for a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if period.from == "" || period.to == "" {
				return fmt.Errorf("--from and --to are required")
			}

			if output == "" {
				output = fmt.Sprintf("Palettenkonto_%s_%s_%s.xlsx", args[0], period.from, period.to)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			path := "/api/v1/partners/" + url.PathEscape(args[0]) + "/export.xlsx?" + period.query().Encode()
			if err := opts.client().download(cmd.Context(), path, f); err != nil {
				_ = os.Remove(output)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", output)
			return nil
		},
	}
	period.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Target file")

	return cmd
}

func recordCmd(opts *rootOptions) *cobra.Command {
	var req dto.RecordEntryRequest
	var menge, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "record PARTNER_ID",
		Short: "Book an inbound (EIN) or outbound (AUS) movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Menge = json.Number(menge)

			var resp dto.EntryResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/partners/"+url.PathEscape(args[0])+"/entries", req, &resp, withIdempotencyKey(idempotencyKey)); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.Richtung, "richtung", "", "EIN or AUS")
	cmd.Flags().StringVar(&req.Kategorie, "kategorie", "", "EUP, GB, TMB1 or TMB2")
	cmd.Flags().StringVar(&menge, "menge", "", "Quantity")
	cmd.Flags().StringVar(&req.Kommentar, "kommentar", "", "Comment; outbound bookings need a reference number")
	cmd.Flags().StringVar(&req.Datum, "datum", "", "Booking date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header")
	_ = cmd.MarkFlagRequired("richtung")
	_ = cmd.MarkFlagRequired("kategorie")
	_ = cmd.MarkFlagRequired("menge")

	return cmd
}

func correctCmd(opts *rootOptions) *cobra.Command {
	var req dto.RecordCorrectionRequest
	var menge, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "correct PARTNER_ID",
		Short: "Book a signed correction against an existing Belegnummer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Menge = json.Number(menge)

			var resp dto.EntryResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/partners/"+url.PathEscape(args[0])+"/corrections", req, &resp, withIdempotencyKey(idempotencyKey)); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&req.Belegnummer, "beleg", "", "Belegnummer of the original entry")
	cmd.Flags().StringVar(&req.Kategorie, "kategorie", "", "EUP, GB, TMB1 or TMB2")
	cmd.Flags().StringVar(&menge, "menge", "", "Signed quantity")
	cmd.Flags().StringVar(&req.Kommentar, "kommentar", "", "Reason for the correction")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header")
	_ = cmd.MarkFlagRequired("beleg")
	_ = cmd.MarkFlagRequired("kategorie")
	_ = cmd.MarkFlagRequired("menge")
	_ = cmd.MarkFlagRequired("kommentar")

	return cmd
}

func closeCmd(opts *rootOptions) *cobra.Command {
	var req dto.CloseMonthRequest

	cmd := &cobra.Command{
		Use:   "close PARTNER_ID",
		Short: "Close an elapsed month and persist its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ClosureResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/partners/"+url.PathEscape(args[0])+"/closures", req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().IntVar(&req.Year, "year", 0, "Year")
	cmd.Flags().IntVar(&req.Month, "month", 0, "Month 1-12")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")

	return cmd
}

func statusCmd(opts *rootOptions) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "status PARTNER_ID",
		Short: "Show whether a month can be closed (default: previous month)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if year != 0 {
				q.Set("year", strconv.Itoa(year))
			}
			if month != 0 {
				q.Set("month", strconv.Itoa(month))
			}
			path := "/api/v1/partners/" + url.PathEscape(args[0]) + "/closures/status"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var resp dto.MonthStatusResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12")

	return cmd
}

func reconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile PARTNER_ID",
		Short: "Recompute every closure from the entries and report differences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReconciliationResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/partners/"+url.PathEscape(args[0])+"/closures/reconcile", nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d of %d closures reconciled\n", resp.ReconciledClosures, resp.TotalClosures)
			for _, d := range resp.Discrepancies {
				fmt.Fprintf(out, "%04d-%02d: stored %+v, calculated %+v, difference %+v\n",
					d.Closure.Year, d.Closure.Month, d.Closure.Saldo, d.Calculated, d.Difference)
			}

			if len(resp.Discrepancies) > 0 {
				return fmt.Errorf("%d closures differ from the entries", len(resp.Discrepancies))
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", envOr("MIGRATIONS_PATH", "migrations"), "Migrations directory")

	migrator := func() (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		return postgres.NewMigrator(databaseURL, migrationsPath, logger.New(logger.Config{Level: "info", Format: "console"})), nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator()
			if err != nil {
				return err
			}
			return m.Up()
		},
	}

	downCmd := &cobra.Command{
		Use:   "down STEPS",
		Short: "Roll back the given number of migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[0], err)
			}
			m, err := migrator()
			if err != nil {
				return err
			}
			return m.Down(steps)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator()
			if err != nil {
				return err
			}
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	var user domain.User
	var role, secret string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			user.Role = domain.Role(role)

			token, err := auth.NewJWTManager(secret, ttl).Generate(&user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user.ID, "user-id", "", "Subject of the token")
	cmd.Flags().StringVar(&user.Name, "name", "", "Name recorded as erfasst_von")
	cmd.Flags().StringVar(&user.Email, "email", "", "Email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "admin, operator or viewer")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}
