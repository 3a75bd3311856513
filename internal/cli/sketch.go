package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/sketchbook/internal/app"
	"github.com/Additional-Code/sketchbook/internal/auth"
	"github.com/Additional-Code/sketchbook/internal/config"
	"github.com/Additional-Code/sketchbook/internal/dto"
	"github.com/Additional-Code/sketchbook/internal/logger"
	"github.com/Additional-Code/sketchbook/internal/migration"
	"github.com/Additional-Code/sketchbook/internal/model"
	sketchsvc "github.com/Additional-Code/sketchbook/internal/service/sketch"
	"github.com/Additional-Code/sketchbook/internal/view"
)

func newSketchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sketch",
		Short: "Inspect and edit sketches",
	}
	cmd.AddCommand(newSketchListCmd(), newSketchCountsCmd(), newSketchSaveCmd(), newSketchDeleteCmd())
	return cmd
}

func withStore(ctx context.Context, fn func(context.Context, *sketchsvc.Service) error) error {
	var store *sketchsvc.Service
	opts := fx.Options(app.Core, fx.Populate(&store))
	return runWithApp(ctx, opts, func(ctx context.Context) error {
		return fn(ctx, store)
	})
}

func newSketchListCmd() *cobra.Command {
	var (
		query    string
		filter   string
		designer string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sketches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := view.ParseKind(filter)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, store *sketchsvc.Service) error {
				all, err := store.GetAll(ctx)
				if err != nil {
					return err
				}
				filtered := view.Apply(all, view.Filter{Query: query, Kind: kind, Designer: designer})
				page := view.Page(filtered, limit)
				if err := renderSketches(cmd.OutOrStdout(), page); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "showing %d of %d\n", len(page), len(filtered))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Order number substring; overrides --filter")
	cmd.Flags().StringVar(&filter, "filter", string(view.KindAll), "One of "+kindNames())
	cmd.Flags().StringVar(&designer, "designer", "", "Designer name substring for --filter DESIGNER")
	cmd.Flags().IntVar(&limit, "limit", view.DefaultPageSize, "Maximum rows to show")
	return cmd
}

func newSketchCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show sketch counts per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *sketchsvc.Service) error {
				all, err := store.GetAll(ctx)
				if err != nil {
					return err
				}
				return renderCounts(cmd.OutOrStdout(), view.Count(all))
			})
		},
	}
}

func newSketchSaveCmd() *cobra.Command {
	var req dto.SketchRequest
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create a sketch, or replace one when --id is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			sk := req.ToModel()
			return withStore(cmd.Context(), func(ctx context.Context, store *sketchsvc.Service) error {
				all, err := store.Save(ctx, sk)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s; %d sketches stored\n", sk.OrderNumber, len(all))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ID, "id", "", "Existing sketch id to replace")
	f.StringVar(&req.OrderNumber, "order", "", "Order number (required)")
	f.StringVar(&req.Gender, "gender", "", "GENTS or LADIES")
	f.StringVar(&req.Status, "status", "", "PROCESSING or DELIVERED")
	f.StringVar(&req.DesignerName, "designer", "", "Designer name")
	f.StringVar(&req.PaymentStatus, "payment", "", "PENDING, HALF PAYMENT or COMPLETE PAYMENT")
	f.StringVar(&req.PaymentAmount, "amount", "", "Payment amount")
	f.StringVar(&req.ProductionUnit, "unit", "", "HAFIZ SAHIB, RANA PLAZA or MNR PRODUCTION")
	f.StringVar(&req.ImportDate, "import-date", "", "Import date")
	f.StringVar(&req.ExportDate, "export-date", "", "Export date")
	f.StringVar(&req.ProcessingItems, "processing", "", "Items in processing")
	f.StringVar(&req.CompletedItems, "completed", "", "Items completed")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

func newSketchDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sketch by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *sketchsvc.Service) error {
				all, err := store.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s; %d sketches stored\n", args[0], len(all))
				return nil
			})
		},
	}
}

func newLoginCmd() *cobra.Command {
	var passcode string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check a passcode against the configured one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passcode == "" {
				fmt.Fprint(cmd.OutOrStdout(), "passcode: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				passcode = strings.TrimSpace(line)
			}

			var gate *auth.Gate
			opts := fx.Options(config.Module, logger.Module, auth.Module, fx.Populate(&gate))
			return runWithApp(cmd.Context(), opts, func(context.Context) error {
				if err := gate.Check(passcode); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "passcode accepted")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&passcode, "passcode", "", "Passcode; prompted when omitted")
	return cmd
}

func kindNames() string {
	names := make([]string, 0, len(view.Kinds()))
	for _, k := range view.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func renderSketches(w io.Writer, sketches []model.Sketch) error {
	rows := make([][]string, 0, len(sketches))
	for _, sk := range sketches {
		rows = append(rows, []string{
			sk.ID,
			sk.OrderNumber,
			string(sk.Gender),
			string(sk.Status),
			sk.DesignerName,
			string(sk.PaymentStatus),
			sk.PaymentAmount,
			string(sk.ProductionUnit),
			time.UnixMilli(sk.CreatedAt).UTC().Format("2006-01-02 15:04"),
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Order", "Gender", "Status", "Designer", "Payment", "Amount", "Unit", "Created")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func renderCounts(w io.Writer, c view.Counts) error {
	rows := [][]string{{"total", "", fmt.Sprint(c.Total)}}
	for _, s := range model.AllStatuses() {
		rows = append(rows, []string{"status", string(s), fmt.Sprint(c.ByStatus[s])})
	}
	for _, p := range model.AllPaymentStatuses() {
		rows = append(rows, []string{"payment", string(p), fmt.Sprint(c.ByPayment[p])})
	}
	for _, u := range model.AllProductionUnits() {
		rows = append(rows, []string{"unit", string(u), fmt.Sprint(c.ByUnit[u])})
	}

	table := tablewriter.NewWriter(w)
	table.Header("Category", "Value", "Count")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func renderMigrations(w io.Writer, status []migration.Status) error {
	rows := make([][]string, 0, len(status))
	for _, s := range status {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		rows = append(rows, []string{fmt.Sprint(s.Version), s.Path, state})
	}

	table := tablewriter.NewWriter(w)
	table.Header("Version", "File", "State")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
