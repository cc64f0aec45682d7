package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/logging"
	"github.com/simonvc/erpledger/internal/server"
	"github.com/simonvc/erpledger/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Long:  "Launch the terminal UI. Without --server it runs its own server on a loopback port against --db.",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := v.GetString("user")
		if user == "" {
			return fmt.Errorf("--user (or ERPLEDGER_USER) is required to record changes")
		}
		serverAddr := cfg.Server.URL

		if !cmd.Flags().Changed("server") {
			// The embedded server must not write logs over the UI.
			log := logging.Discard()
			svc, closer, err := openService(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closer.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			srv := server.New(svc, ln.Addr().String(), log)
			go srv.Serve(ln)
			serverAddr = "http://" + ln.Addr().String()

			c := client.New(serverAddr, user)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			for {
				if err := c.Ping(ctx); err == nil {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("timeout waiting for embedded server")
				}
				time.Sleep(50 * time.Millisecond)
			}
		}

		app := tui.NewApp(client.New(serverAddr, user))
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
