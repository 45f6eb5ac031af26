package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/njchilds90/errprop/internal/logger"
	"github.com/njchilds90/errprop/internal/request"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		file       string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a JSON propagation request",
		Long: `Read a propagation request (see 'errprop schema') from a file or stdin,
print the LaTeX derivation of every measurement set and a table of the
per-variable contributions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer closeIn()

			req, err := request.Decode(in)
			if err != nil {
				return err
			}
			eng, err := request.Compile(req)
			if err != nil {
				return err
			}
			resp, err := request.Run(cmd.Context(), eng, req, a.cfg.Format.Precision)
			if err != nil {
				return err
			}
			logger.ComponentLogger("eval").Debugw("request evaluated",
				logger.FieldVariables, req.Variables,
				logger.FieldCount, len(resp.Results))

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			return printResults(out, resp, a.cfg.Format.Precision)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Request file, - for stdin")
	cmd.Flags().Int("precision", 6, "Decimals of the result line")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Print the JSON response instead of LaTeX")
	return cmd
}

func openInput(cmd *cobra.Command, file string) (io.Reader, func(), error) {
	if file == "" || file == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open request file %s", file)
	}
	return f, func() { _ = f.Close() }, nil
}

func printResults(w io.Writer, resp *request.Response, precision int) error {
	for i, res := range resp.Results {
		if len(resp.Results) > 1 {
			fmt.Fprintf(w, "%% measurement set %d\n", i+1)
		}
		fmt.Fprint(w, res.LaTeX)

		data := pterm.TableData{{"Variable", "∂f/∂x", "|∂f/∂x|", "Contribution"}}
		for _, t := range res.Terms {
			data = append(data, []string{
				t.Var,
				t.Derivative,
				formatNumber(t.Magnitude, precision),
				formatNumber(t.Contribution, precision),
			})
		}
		data = append(data, []string{"f", "", "", formatNumber(res.Value, precision)})
		data = append(data, []string{"Δf", "", "", formatNumber(res.Uncertainty, precision)})

		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return errors.Wrap(err, "render contribution table")
		}
		fmt.Fprintln(w, table)
		fmt.Fprintln(w)
	}
	return nil
}

func formatNumber(n request.Number, precision int) string {
	return strconv.FormatFloat(float64(n), 'f', precision, 64)
}
