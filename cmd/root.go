package cmd

import (
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagConfig string
	flagServer string
	flagDB     string
	flagUser   string
)

var (
	v   = config.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "erpledger",
	Short: "Double-entry ledger with cash book and monthly trial balances",
	Long:  "A double-entry ERP ledger backed by SQLite: journal entries, a cash book with automatic account creation, and approvable monthly trial balance snapshots.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ./erpledger.yaml)")
	pf.StringVar(&flagServer, "server", "http://localhost:8888", "Server address")
	pf.StringVar(&flagDB, "db", "erpledger.db", "SQLite database path")
	pf.StringVar(&flagUser, "user", "", "User id recorded on every change")
	pf.String("log-level", "info", "Log level")
	pf.String("log-format", "text", "Log format: text or json")

	bind(v, "server.url", "server")
	bind(v, "db.path", "db")
	bind(v, "user", "user")
	bind(v, "log.level", "log-level")
	bind(v, "log.format", "log-format")
}

func bind(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// newClient talks to the configured server as the configured user.
func newClient() *client.Client {
	return client.New(cfg.Server.URL, v.GetString("user"))
}

func Execute() error {
	return rootCmd.Execute()
}
