package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the DBS expiry scan once and exit",
		Long: `Run the same expiry scan the server performs daily: find certificates
expiring within the horizon or already lapsed, email the admins about any
not yet notified inside the dedup window, and record the sends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the scan result as JSON")

	return cmd
}

func runScan(jsonOutput bool) error {
	logger := newLogger()

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	notifier := buildNotifier(st, logger)
	scanner := buildScanner(st, notifier, logger)

	result, err := scanner.Scan(cmdCtx())
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Expiring soon: %d (email sent: %v)\n", len(result.Expiring), result.ExpiringEmailSent)
	for _, e := range result.Expiring {
		fmt.Printf("  %-16s %s (expires %s)\n", e.EmployeeID, e.FullName, e.DBSExpiryDate.Format("2006-01-02"))
	}
	fmt.Printf("Already expired: %d (email sent: %v)\n", len(result.Expired), result.ExpiredEmailSent)
	for _, e := range result.Expired {
		fmt.Printf("  %-16s %s (expired %s)\n", e.EmployeeID, e.FullName, e.DBSExpiryDate.Format("2006-01-02"))
	}
	return nil
}
