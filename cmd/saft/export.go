package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/postgres"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/saft"
	"github.com/scripttb/720CRM-sub000/pkg/config"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

type exporter interface {
	Export(ctx context.Context, ownerID string, start, end time.Time, format string) (*dto.SAFTExportResult, error)
}

type exportOptions struct {
	owner  string
	from   string
	to     string
	output string
	zip    bool
}

// newExportCmd con exp nil construye el exportador desde la configuración del entorno (DB_*, AGT_*).
func newExportCmd(exp exporter) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Genera el SAF-T de un periodo",
		Example: `  saft export --owner 6f1c... --from 2026-03-01 --to 2026-03-31
  saft export --owner 6f1c... --from 2026-01-01 --to 2026-12-31 --zip -o saft-2026.zip`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if exp != nil {
				return runExport(ctx, exp, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			uc, cleanup, err := buildExporter(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			return runExport(ctx, uc, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.owner, "owner", "", "propietario (sub del token) cuyos documentos se exportan")
	cmd.Flags().StringVar(&opts.from, "from", "", "fecha inicial YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "fecha final YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "fichero de salida (por defecto el nombre SAF-T en el directorio actual, - = stdout)")
	cmd.Flags().BoolVar(&opts.zip, "zip", false, "empaquetar el XML en un .zip")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runExport(ctx context.Context, exp exporter, opts exportOptions, stdout, stderr io.Writer) error {
	start, end, err := billing.ParsePeriod(opts.from, opts.to)
	if err != nil {
		return err
	}
	format := billing.FormatXML
	if opts.zip {
		format = billing.FormatZIP
	}
	res, err := exp.Export(ctx, opts.owner, start, end, format)
	if err != nil {
		return err
	}

	target := opts.output
	if target == "" {
		target = res.FileName
	}
	if target == "-" {
		_, err = stdout.Write(res.Content)
		return err
	}
	if err := os.WriteFile(target, res.Content, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", target, err)
	}
	fmt.Fprintf(stderr, "%s (%d documentos, sha256 %s)\n", target, res.Entries, res.Digest)
	return nil
}

// buildExporter conecta a PostgreSQL con la misma configuración que la API. Los logs van a stderr.
func buildExporter(ctx context.Context) (exporter, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	uc := billing.NewSAFTUseCase(postgres.NewTxRunner(pool), saft.Software{
		ProductCompanyTaxID:      cfg.AGT.ProductCompanyTaxID,
		SoftwareValidationNumber: cfg.AGT.SoftwareValidationNumber,
		ProductID:                cfg.AGT.ProductID,
		ProductVersion:           cfg.AGT.ProductVersion,
	}, nil, nil, log.WithComponent("saft"))
	return uc, pool.Close, nil
}
