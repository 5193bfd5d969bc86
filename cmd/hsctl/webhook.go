package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mstgnz/medusa-hyperswitch/infra/config"
	"github.com/mstgnz/medusa-hyperswitch/provider/hyperswitch"
	"github.com/spf13/cobra"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Sign and replay webhook payloads",
	}

	cmd.PersistentFlags().String("secret", "", "Webhook response hash key; defaults to HYPERSWITCH_WEBHOOK_KEY")

	cmd.AddCommand(webhookSignCmd())
	cmd.AddCommand(webhookSendCmd())
	return cmd
}

func webhookSignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign [file]",
		Short: "Print the signature header value for a payload; reads stdin when file is -",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier, err := newVerifier(cmd)
			if err != nil {
				return err
			}
			body, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), verifier.Sign(body))
			return nil
		},
	}
}

func webhookSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [file]",
		Short: "Sign a payload and deliver it to the webhook endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetString("url")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			verifier, err := newVerifier(cmd)
			if err != nil {
				return err
			}
			body, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, target, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(hyperswitch.SignatureHeader, verifier.Sign(body))

			resp, err := (&http.Client{Timeout: timeout}).Do(req)
			if err != nil {
				return fmt.Errorf("webhook delivery failed: %w", err)
			}
			defer resp.Body.Close()

			respBody, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, string(respBody))
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("webhook rejected with status %d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().String("url", "http://localhost:9000/hyperswitch/hooks", "Webhook endpoint")
	cmd.Flags().Duration("timeout", 30*time.Second, "Request timeout")
	return cmd
}

func newVerifier(cmd *cobra.Command) (*hyperswitch.Verifier, error) {
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = config.GetEnv("HYPERSWITCH_WEBHOOK_KEY", "")
	}
	return hyperswitch.NewVerifier(secret)
}

func readPayload(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
