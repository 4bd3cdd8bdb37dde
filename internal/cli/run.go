package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/chemflow/internal/network"
	"github.com/roach88/chemflow/internal/process"
	"github.com/roach88/chemflow/internal/report"
	"github.com/roach88/chemflow/internal/sheet"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Sets are name=value mass-flow overrides applied before the run.
	Sets []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <sheet-path>",
		Short: "Evaluate a flowsheet once",
		Long: `Build a flowsheet into a network of devices and evaluate it once.

Devices are updated in dependency order, so every device reads inputs
that are already computed. Feed streams take the mass_flow declared in
the sheet unless overridden with --set.

Example:
  chemflow run ./plant
  chemflow run ./plant --set feed_a=20 --set feed_b=2.5
  chemflow run ./plant/plant.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSheet(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "override a stream mass flow (name=value, repeatable)")

	return cmd
}

func runSheet(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	overrides, err := parseSets(opts.Sets)
	if err != nil {
		_ = formatter.Error(sheet.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --set", err)
	}

	s, err := sheet.Load(path)
	if err != nil {
		var loadErr *sheet.LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, sheet.ErrCodeGeneric, err.Error(), nil)
	}
	logger.Info("sheet loaded", "sheet", s.Name, "streams", len(s.Streams), "devices", len(s.Devices))

	net, err := network.Build(s, network.WithLogger(logger))
	if err != nil {
		var invalid *network.InvalidSheetError
		if errors.As(err, &invalid) {
			return outputValidationErrors(formatter, invalid.Errors)
		}
		_ = formatter.Error(sheet.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build network", err)
	}

	for _, o := range overrides {
		if err := net.Set(o.name, o.value); err != nil {
			_ = formatter.Error(sheet.ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --set", err)
		}
		logger.Debug("mass flow set", "stream", o.name, "value", o.value)
	}

	result, err := net.Run()
	if err != nil {
		code := string(process.CodeOf(err))
		if code == "" {
			code = sheet.ErrCodeGeneric
		}
		var devErr *network.DeviceError
		var details any
		if errors.As(err, &devErr) {
			details = map[string]string{"device": devErr.Device}
		}
		_ = formatter.Error(code, err.Error(), details)
		return WrapExitError(ExitFailure, "run failed", err)
	}
	logger.Info("run complete", "sheet", s.Name, "devices", len(result.Order))

	if formatter.Format == "json" {
		return outputRunJSON(formatter, result)
	}
	return outputRunText(formatter, result)
}

type override struct {
	name  string
	value float64
}

// parseSets parses name=value pairs, keeping their order.
func parseSets(sets []string) ([]override, error) {
	out := make([]override, 0, len(sets))
	for _, kv := range sets {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: expected name=value", kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", kv, err)
		}
		out = append(out, override{name: name, value: v})
	}
	return out, nil
}

func outputRunJSON(formatter *OutputFormatter, result *network.Result) error {
	data, err := report.MarshalCanonical(result.Canonical())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode result", err)
	}
	return json.NewEncoder(formatter.Writer).Encode(CLIResponse{
		Status:    "ok",
		Data:      json.RawMessage(data),
		SheetHash: result.SheetHash,
	})
}

func outputRunText(formatter *OutputFormatter, result *network.Result) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Sheet %s (%s)\n", result.Sheet, shortHash(result.SheetHash))
	fmt.Fprintf(w, "Order: %s\n\n", strings.Join(result.Order, " -> "))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tMASS FLOW")
	for _, st := range result.Streams {
		fmt.Fprintf(tw, "%s\t%s\n", st.Name, formatFlow(st.MassFlow))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DEVICE\tKIND\tIN\tOUT\tBALANCE")
	for _, d := range result.Devices {
		balance := "✓"
		if !d.Conserved(network.DefaultTolerance) {
			balance = "✗"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Kind, formatFlow(d.In), formatFlow(d.Out), balance)
	}
	return tw.Flush()
}

func formatFlow(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
