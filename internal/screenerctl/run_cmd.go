package screenerctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"screener/analytics"
	"screener/backtest"
	"screener/internal/screenerd"
	"screener/internal/terminalui"
	"screener/model"
)

type runOptions struct {
	file  string
	out   string
	quiet bool
	color bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Backtest a signals file",
		Example: `  screener run --file signals.csv
  screener run --file signals.xlsx --out reports/run.json --quiet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			if opts.quiet {
				log = zap.NewNop()
			}

			stack, err := screenerd.NewStack(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer stack.Close()

			payload, err := os.ReadFile(opts.file)
			if err != nil {
				return fmt.Errorf("read signals: %w", err)
			}

			progress := cmd.ErrOrStderr()
			if opts.quiet {
				progress = io.Discard
			}
			rep, err := streamRun(cmd, stack.Runner, payload, progress)
			if err != nil {
				return err
			}

			if opts.out != "" {
				if err := writeReport(opts.out, rep); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", opts.out)
			}

			view, err := analytics.BuildView(rep, screenerd.ViewDefaults(cfg.View))
			if err != nil {
				return err
			}
			terminalui.Render(cmd.OutOrStdout(), view, terminalui.Options{Color: opts.color})
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "signals file (.csv or .xlsx)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the report JSON here")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "no progress or logs")
	cmd.Flags().BoolVar(&opts.color, "color", true, "colored output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// streamRun drives the streaming form so the terminal shows progress.
func streamRun(cmd *cobra.Command, runner *backtest.Runner, payload []byte, progress io.Writer) (*model.Report, error) {
	var rep *model.Report
	for msg := range runner.Stream(cmd.Context(), payload) {
		switch msg.Type {
		case backtest.MessageProgress:
			ev := msg.Progress()
			fmt.Fprintf(progress, "\r[%d/%d] %-24s", ev.Current, ev.Total, ev.Symbol)
		case backtest.MessageComplete:
			fmt.Fprintln(progress)
			rep = msg.Report
		case backtest.MessageError:
			fmt.Fprintln(progress)
			return nil, errors.New(msg.Message)
		}
	}
	if rep == nil {
		if err := cmd.Context().Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("run ended without a report")
	}
	return rep, nil
}

func writeReport(path string, rep *model.Report) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
