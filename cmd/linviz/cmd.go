package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"linviz"
)

type rootParams struct {
	configFile string
	logLevel   string
	logFormat  string
}

func newRootCmd(outW, errW io.Writer) *cobra.Command {
	params := &rootParams{}
	rootCmd := &cobra.Command{
		Use:   "linviz",
		Short: "Render linearizability checker output as a timeline",
		Long: strings.Trim(dedent.Dedent(`
			linviz lays out a concurrent history and the partial linearizations
			a checker found for it, and renders the result as SVG.

			The dataset is JSON or YAML with Partitions (History,
			PartialLinearizations) and Annotations. LINVIZ_* environment
			variables and a .env file override the configuration.

			Example:
			$ linviz render history.json --config style.yaml --output history.svg

			Example:
			$ linviz tooltip history.json --select 0:2 --hover 0:5
		`), "\n"),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(outW)
	rootCmd.SetErr(errW)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&params.configFile, "config", "", "YAML configuration file (optional)")
	flags.StringVar(&params.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&params.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newRenderCmd(params), newTooltipCmd(params), newErrorsCmd(params))
	return rootCmd
}

// load runs the pipeline over the dataset named by the first argument.
func load(cmd *cobra.Command, params *rootParams, datasetFile string) (*linviz.Visualization, error) {
	logger := newLogger(params.logLevel, params.logFormat, cmd.ErrOrStderr())

	config, err := linviz.LoadConfig(params.configFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if err := linviz.ApplyEnv(cmd.Context(), &config, nil); err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	logger.Debug("configuration loaded",
		"font_size", config.Font.Size,
		"min_timestamp_gap", config.Layout.MinTimestampGap,
		"min_linearization_gap", config.Layout.MinLinearizationGap)

	dataset, err := linviz.DecodeFile(datasetFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded", "file", datasetFile,
		"partitions", len(dataset.Partitions), "annotations", len(dataset.Annotations))

	return linviz.Visualize(dataset, config, linviz.WithLogger(logger))
}

func newRenderCmd(params *rootParams) *cobra.Command {
	var outputFile, format string
	var jump bool
	selected := &refValue{}
	cmd := &cobra.Command{
		Use:   "render DATASET",
		Short: "Render a dataset as SVG or as JSON geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vis, err := load(cmd, params, args[0])
			if err != nil {
				return err
			}

			state, err := initialState(vis.Controller, selected, jump)
			if err != nil {
				return err
			}

			var content []byte
			switch format {
			case "svg":
				var b strings.Builder
				if err := vis.WriteSVG(&b, state); err != nil {
					return err
				}
				content = []byte(b.String())
			case "json":
				content, err = json.MarshalIndent(vis.Scene, "", "  ")
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown output format %q", format)
			}

			if outputFile == "-" {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}
			outputPath := getOutputFilename(args[0], outputFile, "."+format)
			if err := os.WriteFile(outputPath, content, 0644); err != nil {
				return fmt.Errorf("error writing output file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Timeline %s generated successfully: %s\n",
				strings.ToUpper(format), outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "",
		"Output filename, - for stdout (default: dataset name with the format's extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "Output format: svg or json")
	cmd.Flags().Var(selected, "select", "Render with the event PARTITION:EVENT selected")
	cmd.Flags().BoolVar(&jump, "jump", false, "Render with the first illegal next step selected")
	return cmd
}

// initialState applies the --select and --jump flags, in that order.
func initialState(ctrl *linviz.Controller, selected *refValue, jump bool) (linviz.State, error) {
	state := linviz.State{}
	var err error
	if selected.set {
		state, _, err = ctrl.Apply(state, linviz.Input{Kind: linviz.InputClick, Target: selected.ref})
		if err != nil {
			return state, err
		}
	}
	if jump {
		state, _, err = ctrl.Apply(state, linviz.Input{Kind: linviz.InputJump})
	}
	return state, err
}

func newTooltipCmd(params *rootParams) *cobra.Command {
	hover := &refValue{}
	selected := &refValue{}
	cmd := &cobra.Command{
		Use:   "tooltip DATASET --hover P:E [--select P:E]",
		Short: "Print the tooltip and visible layers for a hovered event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !hover.set {
				return fmt.Errorf("--hover is required")
			}
			vis, err := load(cmd, params, args[0])
			if err != nil {
				return err
			}
			ctrl := vis.Controller

			state := linviz.State{}
			if selected.set {
				state, _, err = ctrl.Apply(state, linviz.Input{Kind: linviz.InputClick, Target: selected.ref})
				if err != nil {
					return err
				}
			}
			_, frame, err := ctrl.Apply(state, linviz.Input{Kind: linviz.InputHover, Target: hover.ref})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, frame.Tooltip)
			fmt.Fprintf(out, "visible layers: %s\n", formatVisible(frame.Visible))
			return nil
		},
	}
	cmd.Flags().Var(hover, "hover", "Hovered event as PARTITION:EVENT")
	cmd.Flags().Var(selected, "select", "Selected event as PARTITION:EVENT")
	return cmd
}

func newErrorsCmd(params *rootParams) *cobra.Command {
	selected := &refValue{}
	cmd := &cobra.Command{
		Use:   "errors DATASET [--select P:E]",
		Short: "List illegal next steps by position and the first visible one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vis, err := load(cmd, params, args[0])
			if err != nil {
				return err
			}
			ctrl := vis.Controller

			visible := ctrl.DefaultView()
			if selected.set {
				_, frame, err := ctrl.Apply(linviz.State{},
					linviz.Input{Kind: linviz.InputClick, Target: selected.ref})
				if err != nil {
					return err
				}
				visible = frame.Visible
			}

			out := cmd.OutOrStdout()
			for _, mk := range ctrl.Markers() {
				ev, _ := vis.Model.Event(linviz.Ref{Partition: mk.Partition, Event: mk.Event})
				fmt.Fprintf(out, "x=%.1f partition=%d linearization=%d event=%d %s\n",
					mk.X, mk.Partition, mk.Layer, mk.Event, ev.Description)
			}
			first, ok := ctrl.FirstError(visible)
			if !ok {
				fmt.Fprintln(out, "first visible error: none")
				return nil
			}
			fmt.Fprintf(out, "first visible error: partition=%d linearization=%d event=%d\n",
				first.Partition, first.Layer, first.Event)
			if !selected.set {
				fmt.Fprintf(out, "jump selects: partition=%d event=%d\n",
					first.Target.Partition, first.Target.Event)
			}
			return nil
		},
	}
	cmd.Flags().Var(selected, "select", "Selected event as PARTITION:EVENT")
	return cmd
}

func formatVisible(visible []int) string {
	parts := make([]string, len(visible))
	for i, li := range visible {
		if li == linviz.NoLayer {
			parts[i] = fmt.Sprintf("%d:-", i)
			continue
		}
		parts[i] = fmt.Sprintf("%d:%d", i, li)
	}
	return strings.Join(parts, " ")
}

// refValue is a PARTITION:EVENT flag.
type refValue struct {
	ref linviz.Ref
	set bool
}

var _ pflag.Value = (*refValue)(nil)

func (r *refValue) String() string {
	if !r.set {
		return ""
	}
	return fmt.Sprintf("%d:%d", r.ref.Partition, r.ref.Event)
}

func (r *refValue) Set(s string) error {
	p, e, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("expected PARTITION:EVENT, got %q", s)
	}
	partition, err := strconv.Atoi(p)
	if err != nil {
		return fmt.Errorf("bad partition %q: %w", p, err)
	}
	event, err := strconv.Atoi(e)
	if err != nil {
		return fmt.Errorf("bad event %q: %w", e, err)
	}
	r.ref = linviz.Ref{Partition: partition, Event: event}
	r.set = true
	return nil
}

func (r *refValue) Type() string {
	return "ref"
}
