package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vrcbridge/vrcbridge/config"
	"github.com/vrcbridge/vrcbridge/handshake"
	"github.com/vrcbridge/vrcbridge/session"
	"github.com/vrcbridge/vrcbridge/upstream"
)

var loginGateway string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Run the upstream login handshake",
	Long: `Run the interactive login handshake against the upstream, including the
optional two-factor exchange.

By default credentials are read from the terminal. With --gateway the
handshake instead polls the rendezvous endpoints of a running auth-mode
gateway, so an operator can supply credentials through a web form while
this process stays headless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		client, err := upstream.New(cfg.APIBase, cfg.ClientName)
		if err != nil {
			return err
		}
		validator := session.NewValidator(cfg.APIBase, cfg.ClientName)

		var source handshake.Source
		if loginGateway != "" {
			source = handshake.NewRemoteSource(loginGateway)
		} else {
			source = handshake.NewTerminalSource()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hs := handshake.New(client, source, validator.Verify, logger)
		rec, err := hs.Run(ctx)
		if err != nil {
			return fmt.Errorf("login handshake: %w", err)
		}

		store := session.NewStore(newBacking(cfg))
		if !store.Writable() {
			// Distant mode: the remote source of truth is managed
			// externally, so hand the record to the operator instead.
			fmt.Println("Connected. Install this record at the distant source:")
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "    ")
			return enc.Encode(rec)
		}
		saved, err := store.Save(rec)
		if err != nil {
			return fmt.Errorf("persisting session record: %w", err)
		}
		fmt.Printf("Connected as %s (%s). Token stored, created %s.\n",
			saved.DisplayName, saved.UserID, saved.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginGateway, "gateway", "", "Base URL of a running auth-mode gateway to rendezvous with")
}
