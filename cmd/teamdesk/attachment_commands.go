package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"teamdesk/internal/fileutil"
	"teamdesk/internal/teamdesk"
)

func newAttachmentCommand(ctx *commandContext) *cobra.Command {
	attachmentCmd := &cobra.Command{
		Use:   "attachment",
		Short: "Read and store attachment columns",
	}

	attachmentCmd.AddCommand(newAttachmentGetCommand(ctx))
	attachmentCmd.AddCommand(newAttachmentInfoCommand(ctx))
	attachmentCmd.AddCommand(newAttachmentSetCommand(ctx))

	return attachmentCmd
}

type attachmentTarget struct {
	table  string
	column string
	id     int
}

func parseAttachmentTarget(args []string) (attachmentTarget, error) {
	id, err := parseID(args[2])
	if err != nil {
		return attachmentTarget{}, err
	}
	return attachmentTarget{table: args[0], column: args[1], id: id}, nil
}

func newAttachmentGetCommand(ctx *commandContext) *cobra.Command {
	var revision int
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <table> <column> <id>",
		Short: "Download an attachment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseAttachmentTarget(args)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				attachment, err := client.GetAttachment(callCtx, target.table, target.column, target.id, revision)
				if err != nil {
					return err
				}
				dest := strings.TrimSpace(outPath)
				if dest == "-" {
					_, err := cmd.OutOrStdout().Write(attachment.Data)
					return err
				}
				if dest == "" {
					dest = fileutil.SanitizeFileName(attachment.FileName)
				}
				if dest == "" {
					return fmt.Errorf("attachment has no usable file name; pass --out")
				}
				if err := fileutil.WriteFileVerified(dest, attachment.Data, 0o644); err != nil {
					return fmt.Errorf("write attachment: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, %s, revision %d)\n",
					dest, len(attachment.Data), attachment.MimeType, attachment.Revision)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&revision, "revision", teamdesk.CurrentRevision, "Revision to fetch (0 for the latest)")
	cmd.Flags().StringVar(&outPath, "out", "", "Destination file (default the stored file name, - for stdout)")
	return cmd
}

func newAttachmentInfoCommand(ctx *commandContext) *cobra.Command {
	var revisions int

	cmd := &cobra.Command{
		Use:   "info <table> <column> <id>",
		Short: "List stored revisions of an attachment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseAttachmentTarget(args)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				infos, err := client.GetAttachmentInfo(callCtx, target.table, target.column, target.id, revisions)
				if err != nil {
					return err
				}
				if infos == nil {
					infos = []teamdesk.AttachmentInfo{}
				}
				return ctx.render(cmd, infos, func() string {
					return renderAttachmentInfo(infos)
				})
			})
		},
	}

	cmd.Flags().IntVar(&revisions, "revisions", 0, "Number of revisions to list (passed to the service as is)")
	return cmd
}

func newAttachmentSetCommand(ctx *commandContext) *cobra.Command {
	var mimeType string
	var name string

	cmd := &cobra.Command{
		Use:   "set <table> <column> <id> <file>",
		Short: "Upload a file into an attachment column",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseAttachmentTarget(args)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[3])
			if err != nil {
				return fmt.Errorf("read attachment: %w", err)
			}
			mime := strings.TrimSpace(mimeType)
			if mime == "" {
				mime = mimetype.Detect(raw).String()
			}
			fileName := strings.TrimSpace(name)
			if fileName == "" {
				fileName = filepath.Base(args[3])
			}
			encoded := base64.StdEncoding.EncodeToString(raw)
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				if err := client.SetAttachment(callCtx, target.table, target.column, target.id, fileName, mime, encoded); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d bytes, %s) in %s.%s #%d\n",
					fileName, len(raw), mime, target.table, target.column, target.id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type (detected from content when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Stored file name (default the local file name)")
	return cmd
}

func renderAttachmentInfo(infos []teamdesk.AttachmentInfo) string {
	if len(infos) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		created := info.Created
		if t, ok := info.CreatedAt(); ok {
			created = t.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			strconv.Itoa(info.Revision),
			info.FileName,
			info.MimeType,
			strconv.FormatInt(info.Size, 10),
			created,
			info.Author,
		})
	}
	return renderTable(
		[]string{"Rev", "File", "Type", "Size", "Created", "Author"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}
