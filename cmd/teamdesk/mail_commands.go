package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"teamdesk/internal/teamdesk"
)

func newMailCommand(ctx *commandContext) *cobra.Command {
	mailCmd := &cobra.Command{
		Use:   "mail",
		Short: "Send mail through the TeamDesk relay",
	}

	var mail teamdesk.Mail
	var bodyFile string

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(mail.From) == "" || strings.TrimSpace(mail.To) == "" {
				return fmt.Errorf("--from and --to are required")
			}
			if strings.TrimSpace(bodyFile) != "" {
				body, err := readPayload(cmd, "", bodyFile)
				if err != nil {
					return err
				}
				mail.Body = body
			}
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				if err := client.SendMail(callCtx, mail); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %q to %s\n", mail.Subject, mail.To)
				return nil
			})
		},
	}

	sendCmd.Flags().StringVar(&mail.From, "from", "", "Sender address")
	sendCmd.Flags().StringVar(&mail.To, "to", "", "Recipient addresses")
	sendCmd.Flags().StringVar(&mail.CC, "cc", "", "Carbon copy addresses")
	sendCmd.Flags().StringVar(&mail.BCC, "bcc", "", "Blind carbon copy addresses")
	sendCmd.Flags().StringVar(&mail.Subject, "subject", "", "Message subject")
	sendCmd.Flags().StringVar(&mail.Format, "format", "text", "Body format (text or html)")
	sendCmd.Flags().StringVar(&mail.Body, "body", "", "Message body")
	sendCmd.Flags().StringVar(&bodyFile, "body-file", "", "Read the message body from a file (- for stdin)")

	mailCmd.AddCommand(sendCmd)
	return mailCmd
}
