package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go_version"`
	OSArch  string `json:"os_arch"`
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
				Go:      runtime.Version(),
				OSArch:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(),
				"trustpass %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.Commit, info.Built, info.Go, info.OSArch)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}
