// cmd/qualifyctl/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"procurement-workers/internal/common/config"
	"procurement-workers/internal/common/database"
	apperrors "procurement-workers/internal/common/errors"
	"procurement-workers/internal/evaluations"
	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"
	"procurement-workers/internal/search"
	"procurement-workers/pkg/registry"
)

// Exit codes: 1 usage, 2 validation failed, 3 bad input.
const (
	exitInvalid  = 2
	exitBadInput = 3
)

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

type historySource interface {
	History(ctx context.Context, vendorID string) ([]models.QualificationEvaluation, error)
}

type vendorFinder interface {
	FindByClass(ctx context.Context, classes []string, size int) ([]search.VendorDocument, error)
}

// backends opens the stores behind the read-only lookup commands.
type backends struct {
	history func(ctx context.Context) (historySource, func(), error)
	vendors func(ctx context.Context) (vendorFinder, error)
}

func configuredBackends() backends {
	return backends{
		history: func(ctx context.Context) (historySource, func(), error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, nil, err
			}
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return nil, nil, err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return nil, nil, err
			}
			return evaluations.NewRepository(pg.DB), func() { pg.Close() }, nil
		},
		vendors: func(ctx context.Context) (vendorFinder, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return nil, err
			}
			return search.NewIndexer(es.Client, cfg.Qualification.SearchIndex), nil
		},
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(configuredBackends())
}

func newRootCmdWith(b backends) *cobra.Command {
	root := &cobra.Command{
		Use:           "qualifyctl",
		Short:         "Check vendor qualification data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newValidateCmd(),
		newDocumentsCmd(),
		newScoreCmd(),
		newRegistryCmd(),
		newHistoryCmd(b),
		newVendorsCmd(b),
	)
	return root
}

type validateFlags struct {
	today    string
	timezone string
}

func newValidateCmd() *cobra.Command {
	var flags validateFlags
	cmd := &cobra.Command{
		Use:   "validate <submission.json|yaml>",
		Short: "Run every qualification check on a submission file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0], flags)
		},
	}
	cmd.Flags().StringVar(&flags.today, "today", "", "Judge expiry as of this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.timezone, "timezone", "Asia/Riyadh", "Zone whose midnight decides expiry")
	return cmd
}

func runValidate(out io.Writer, path string, flags validateFlags) error {
	loc, err := time.LoadLocation(flags.timezone)
	if err != nil {
		return codeError(exitBadInput, "timezone: %s", err)
	}
	now := time.Now().In(loc)
	if flags.today != "" {
		d, ok := qualification.ParseDate(flags.today, loc)
		if !ok {
			return codeError(exitBadInput, "--today %q is not a date", flags.today)
		}
		now = d.Add(12 * time.Hour)
	}

	raw, err := readDocument(path)
	if err != nil {
		return codeError(exitBadInput, "%s", err)
	}
	sub, err := qualification.DecodeSubmission(raw)
	if err != nil {
		return codeError(exitBadInput, "%s", err)
	}

	v := qualification.NewValidator(qualification.WithClock(func() time.Time { return now }))
	res := v.ValidateSubmission(sub)
	if err := writeJSON(out, res); err != nil {
		return err
	}
	if !res.OK {
		return codeError(exitInvalid, "submission has %d issue(s)", len(res.Issues))
	}
	return nil
}

// readDocument returns the file as JSON, converting YAML by extension.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return json.Marshal(doc)
	default:
		return data, nil
	}
}

func newDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents <vendor-type>",
		Short: "List the mandatory documents for a vendor type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := qualification.DefaultCatalog()
			set := catalog.ResolveMandatoryDocuments(args[0])
			if !qualification.IsKnownVendorType(args[0]) {
				fmt.Fprintf(cmd.ErrOrStderr(), "WARN: unknown vendor type %q, showing the base set\n", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), catalog.Requirements(set))
		},
	}
}

func newScoreCmd() *cobra.Command {
	var s models.Scores
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the weighted qualification score and class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qualification.ComputeQualification(s)
			if err != nil {
				return codeError(exitBadInput, "%s", err)
			}
			return writeJSON(cmd.OutOrStdout(), q)
		},
	}
	f := cmd.Flags()
	f.IntVar(&s.DocumentCompliance, "document-compliance", 0, "Document compliance score (0-100)")
	f.IntVar(&s.TechnicalCapability, "technical-capability", 0, "Technical capability score (0-100)")
	f.IntVar(&s.FinancialStrength, "financial-strength", 0, "Financial strength score (0-100)")
	f.IntVar(&s.Experience, "experience", 0, "Experience score (0-100)")
	f.IntVar(&s.Responsiveness, "responsiveness", 0, "Responsiveness score (0-100)")
	return cmd
}

func newRegistryCmd() *cobra.Command {
	reg := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}
	var path string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the activity registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := registry.LoadRegistry(path)
			if err != nil {
				return codeError(exitBadInput, "%s", err)
			}
			if err := r.Validate(apperrors.IsKnownBPMNCode); err != nil {
				return codeError(exitInvalid, "%s", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d activities OK: %s\n", len(r.Activities), strings.Join(r.TaskTypes(), ", "))
			return nil
		},
	}
	validate.Flags().StringVar(&path, "path", "configs/activity-registry.json", "Path to registry file")
	reg.AddCommand(validate)
	return reg
}

func newHistoryCmd(b backends) *cobra.Command {
	return &cobra.Command{
		Use:   "history <vendor-id>",
		Short: "Print the recorded evaluations of a vendor, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, closeFn, err := b.history(ctx)
			if err != nil {
				return fmt.Errorf("open evaluation store: %w", err)
			}
			defer closeFn()

			list, err := src.History(ctx, args[0])
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return codeError(exitInvalid, "no evaluations for vendor %s", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}
}

func newVendorsCmd(b backends) *cobra.Command {
	var (
		classes []string
		size    int
	)
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "List indexed vendors by class, best score first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, c := range classes {
				c = strings.ToUpper(strings.TrimSpace(c))
				switch c {
				case qualification.ClassA, qualification.ClassB, qualification.ClassC, qualification.ClassD:
				default:
					return codeError(exitBadInput, "unknown vendor class %q", c)
				}
				classes[i] = c
			}

			finder, err := b.vendors(cmd.Context())
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			docs, err := finder.FindByClass(cmd.Context(), classes, size)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), docs)
		},
	}
	cmd.Flags().StringSliceVar(&classes, "class", []string{qualification.ClassA}, "Vendor classes to include")
	cmd.Flags().IntVar(&size, "size", 20, "Maximum number of vendors")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
