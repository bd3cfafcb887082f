package screenerctl

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"screener/analytics"
	"screener/internal/screenerd"
	"screener/internal/terminalui"
	"screener/model"
	"screener/tradelog"
)

type viewOptions struct {
	report        string
	capital       string
	search        string
	sort          string
	dir           string
	page          int
	pageSize      int
	top           int
	includeFailed bool
	json          bool
	color         bool
}

func newViewCmd(root *rootOptions) *cobra.Command {
	opts := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render a saved report",
		Example: `  screener view --report run.json --capital 250000 --sort symbol --dir asc
  screener view --report run.json --search INFY --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(opts.report)
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}
			var rep model.Report
			if err := json.Unmarshal(data, &rep); err != nil {
				return fmt.Errorf("decode report: %w", err)
			}

			cfg, err := root.resolveConfig()
			if err != nil {
				return err
			}
			params, err := opts.params(screenerd.ViewDefaults(cfg.View))
			if err != nil {
				return err
			}

			view, err := analytics.BuildView(&rep, params)
			if err != nil {
				return err
			}
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			terminalui.Render(cmd.OutOrStdout(), view, terminalui.Options{Color: opts.color})
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.report, "report", "r", "", "report JSON written by run --out or the API")
	f.StringVar(&opts.capital, "capital", "", "capital for the P&L column")
	f.StringVar(&opts.search, "search", "", "symbol substring filter")
	f.StringVar(&opts.sort, "sort", "", "sort key, e.g. return_30d or symbol")
	f.StringVar(&opts.dir, "dir", "", "asc or desc")
	f.IntVar(&opts.page, "page", 1, "page number")
	f.IntVar(&opts.pageSize, "page-size", 0, "rows per page")
	f.IntVar(&opts.top, "top", 0, "top performers per horizon")
	f.BoolVar(&opts.includeFailed, "include-failed", false, "include failed signals in the trade log")
	f.BoolVar(&opts.json, "json", false, "print the view as JSON")
	f.BoolVar(&opts.color, "color", true, "colored output")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

// params overlays the flags that were set on defaults.
func (o *viewOptions) params(p analytics.ViewParams) (analytics.ViewParams, error) {
	if o.capital != "" {
		c, err := decimal.NewFromString(o.capital)
		if err != nil {
			return p, fmt.Errorf("invalid --capital: %w", err)
		}
		p.Capital = c
	}
	if o.sort != "" {
		if !tradelog.IsSortKey(o.sort) {
			return p, fmt.Errorf("%w: %q", tradelog.ErrUnknownSortKey, o.sort)
		}
		p.Sort = p.Sort.Toggle(o.sort)
	}
	if o.dir != "" {
		p.Sort.Direction = tradelog.Direction(o.dir)
	}
	if o.pageSize > 0 {
		p.PageSize = o.pageSize
	}
	if o.top > 0 {
		p.TopN = o.top
	}
	p.Search = o.search
	p.Page = o.page
	p.IncludeFailed = o.includeFailed
	return p, nil
}
