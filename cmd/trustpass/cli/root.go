package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	dataDir    string
	appVersion string // set in Execute, surfaced in the OpenAPI document
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trustpass",
		Short: "Employee verification service with QR badges and DBS tracking",
		Long: `TrustPass keeps an employee roster with DBS clearance status, prints
QR-coded badges that link to a public verification page, and emails the
admins before certificates lapse.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./trustpass.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite database (default: ~/.trustpass)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trustpass")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.trustpass")
	}

	viper.SetEnvPrefix("TRUSTPASS")
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.public_base_url", "http://localhost:8080")
	viper.SetDefault("server.uploads_dir", "uploads")
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("security.private_only", false)
	viper.SetDefault("security.secure_cookies", true)
	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("scanner.horizon_days", 60)
	viper.SetDefault("scanner.dedup_days", 7)
	viper.SetDefault("scanner.interval", "1h")
	viper.SetDefault("rate.login_per_minute", 10)
	viper.SetDefault("rate.verify_per_minute", 60)
}
