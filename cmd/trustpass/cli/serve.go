package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustpass/trustpass/internal/server"
	"github.com/trustpass/trustpass/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TrustPass API server",
		Long:  "Start the HTTP server serving the admin roster API, the public verification endpoint, and the background DBS expiry scanner.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	logger := newLogger()

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		jwtSecret = "trustpass-dev-secret-change-me"
		logger.Warn("auth.jwt_secret not set - using the insecure development default")
	}
	authSvc := service.NewAuthService(st, jwtSecret)

	notifier := buildNotifier(st, logger)
	scanner := buildScanner(st, notifier, logger)

	hasAdmin, err := st.HasAnyAdmin(cmdCtx())
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - POST /api/v1/setup or run: trustpass admin create")
	}

	srvCfg := server.Config{
		Host:                viper.GetString("server.host"),
		Port:                viper.GetInt("server.port"),
		ShutdownTimeout:     30 * time.Second,
		CORSOrigins:         viper.GetStringSlice("server.cors_origins"),
		PublicBaseURL:       viper.GetString("server.public_base_url"),
		UploadsDir:          viper.GetString("server.uploads_dir"),
		PrivateOnly:         viper.GetBool("security.private_only"),
		SecureCookies:       viper.GetBool("security.secure_cookies"),
		LoginRatePerMinute:  viper.GetInt("rate.login_per_minute"),
		VerifyRatePerMinute: viper.GetInt("rate.verify_per_minute"),
		Version:             appVersion,
	}

	srv, err := server.New(srvCfg, st, authSvc, notifier, scanner, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	fmt.Printf("→ TrustPass %s\n", appVersion)
	fmt.Printf("→ Listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ OpenAPI:  %s/openapi.json\n", srvCfg.PublicBaseURL)
	fmt.Printf("→ Health:   %s/healthz\n", srvCfg.PublicBaseURL)
	fmt.Println()

	return srv.ListenAndServe()
}
