package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var statusGateway string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the login status of a running gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(statusGateway + "/webhook/auth/status/short")
		if err != nil {
			return fmt.Errorf("reaching gateway: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned %d", resp.StatusCode)
		}
		_, err = io.Copy(os.Stdout, io.LimitReader(resp.Body, 1<<16))
		fmt.Println()
		return err
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusGateway, "gateway", "http://localhost:8080", "Base URL of the gateway")
}
