package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/ngrash/go-libtz/tzif"
)

func newDiffCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff FILE_A FILE_B",
		Short: "Compare the decoded contents of two TZif files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			adata, err := decodeFile(args[0])
			if err != nil {
				return err
			}
			bdata, err := decodeFile(args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if diff := cmp.Diff(adata, bdata, readable); diff != "" {
				a.logger.Debug("files differ", "a", args[0], "b", args[1])
				fmt.Fprintln(w, "files are different: -A +B")
				fmt.Fprintln(w, diff)
			} else {
				fmt.Fprintln(w, "files are identical")
			}
			return nil
		},
	}
}

// readable shows the footer TZ string as text rather than bytes.
var readable = cmp.Transformer("TZString", func(f tzif.Footer) string { return string(f.TZString) })

func decodeFile(path string) (tzif.Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return tzif.Data{}, err
	}
	d, err := tzif.DecodeData(bytes.NewReader(b))
	if err != nil {
		return tzif.Data{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return d, nil
}
