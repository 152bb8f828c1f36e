package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Fmazzesi/zefixtools/internal/firms"
	"github.com/Fmazzesi/zefixtools/internal/report"
	"github.com/Fmazzesi/zefixtools/internal/store"
	"github.com/Fmazzesi/zefixtools/internal/table"
	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [name]",
	Short: "Search companies by exact name",
	Long: `Search the registry for companies matching a name exactly.

By default every hit is fetched in full and normalized (status, legal form,
purpose, counts, address). With --simple only the identifying fields of each
hit are returned.

Examples:
  zefix search "UBS AG"
  zefix search "Migros" --simple --table
  zefix search "Novartis AG" --save --xlsx novartis.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		simple, _ := cmd.Flags().GetBool("simple")

		mode := firms.ModeFull
		if simple {
			mode = firms.ModeSimple
		}
		res, err := newService().Search(cmd.Context(), name, mode)
		if err != nil {
			return err
		}

		var records any = res.Firms
		if simple {
			records = res.Summaries
		}
		if err := saveIfRequested(cmd, store.SearchFile(name, simple), records); err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := table.FromRows(res.Rows()).WriteXLSX(path, "Companies"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		}
		if err := emit(cmd, res.Rows(), records); err != nil {
			return err
		}
		reportFailures(cmd.ErrOrStderr(), res.Failures)
		return nil
	},
}

func init() {
	searchCmd.Flags().Bool("simple", false, "return only name, ehraid, legal seat and excerpt link")
	searchCmd.Flags().String("xlsx", "", "also write the result table to this .xlsx file")
	addOutputFlags(searchCmd)
}

// --- Takeovers Command ---

var takeoversCmd = &cobra.Command{
	Use:   "takeovers [ehraid]",
	Short: "Follow the chain of takeovers made by a company",
	Long: `Recursively follow the "has taken over" relation starting at a company.
Every firm in the chain carries its hop distance from the starting company.

Examples:
  zefix takeovers 110662
  zefix takeovers 110662 --tree
  zefix takeovers 110662 --save --plot chain.svg --html chain.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseEHRAID(args[0])
		if err != nil {
			return err
		}
		chain, err := newService().Takeovers(cmd.Context(), id)
		if err != nil {
			return err
		}

		if err := saveIfRequested(cmd, store.TakeoversFile, chain.Nodes); err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("plot"); path != "" {
			svg := report.AcquisitionChart(chain.Nodes, report.DefaultChartConfig())
			if err := writeFile(path, svg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		}
		if path, _ := cmd.Flags().GetString("html"); path != "" {
			html, err := report.GenerateHTML(chain, report.DefaultReportConfig())
			if err != nil {
				return err
			}
			if err := writeFile(path, html); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		}

		if tree, _ := cmd.Flags().GetBool("tree"); tree {
			text, err := report.GenerateText(chain, report.DefaultReportConfig())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
		} else if err := emit(cmd, firmRows(chain.Nodes), chain.Nodes); err != nil {
			return err
		}
		if chain.Truncated > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d takeover(s) beyond max depth %d not followed\n",
				chain.Truncated, cfg.Traversal.MaxDepth)
		}
		reportFailures(cmd.ErrOrStderr(), chain.Failures)
		return nil
	},
}

func init() {
	takeoversCmd.Flags().Bool("tree", false, "print the chain as an indented tree")
	takeoversCmd.Flags().String("plot", "", "write an SVG acquisition chart to this file")
	takeoversCmd.Flags().String("html", "", "write an HTML takeover report to this file")
	addOutputFlags(takeoversCmd)
}

// --- Acquirers Command ---

var acquirersCmd = &cobra.Command{
	Use:   "acquirers [ehraid]",
	Short: "List the companies that took over a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseEHRAID(args[0])
		if err != nil {
			return err
		}
		res, err := newService().Acquirers(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(res.Acquirers) == 0 && len(res.Failures) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No acquisition records for %s (%s)\n", res.Target.Label(), id)
		}

		if err := saveIfRequested(cmd, store.AcquirersFile(id), res.Acquirers); err != nil {
			return err
		}
		if err := emit(cmd, firmRows(res.Acquirers), res.Acquirers); err != nil {
			return err
		}
		reportFailures(cmd.ErrOrStderr(), res.Failures)
		return nil
	},
}

func init() {
	addOutputFlags(acquirersCmd)
}

// --- Legal Forms Command ---

var legalFormsCmd = &cobra.Command{
	Use:   "legalforms",
	Short: "List the registry's legal-form catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		forms, err := newService().LegalForms(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUID\tNAME\tGERMAN")
		for _, f := range forms {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.ID, f.UID, f.Name.English(), f.Name.De)
		}
		return w.Flush()
	},
}

// --- Output helpers ---

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("save", false, "save the records as JSON under output.dir")
	cmd.Flags().Bool("table", false, "print a text table instead of JSON")
	cmd.Flags().Int("max-width", 40, "clip table cells to this many characters (0 = no limit)")
}

// emit prints records as a table (--table) or as indented JSON.
func emit(cmd *cobra.Command, rows []models.Row, records any) error {
	out := cmd.OutOrStdout()
	if asTable, _ := cmd.Flags().GetBool("table"); asTable {
		width, _ := cmd.Flags().GetInt("max-width")
		return table.FromRows(rows).Render(out, table.RenderOptions{MaxCellWidth: width, Index: true})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func saveIfRequested(cmd *cobra.Command, name string, records any) error {
	if save, _ := cmd.Flags().GetBool("save"); !save {
		return nil
	}
	path, err := newStore().Save(name, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", path)
	return nil
}

func reportFailures(w io.Writer, failures []models.FetchFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "%d record(s) could not be fetched:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

func firmRows(list []models.Firm) []models.Row {
	rows := make([]models.Row, len(list))
	for i, f := range list {
		rows[i] = f
	}
	return rows
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
