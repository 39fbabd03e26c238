package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"teamdesk/internal/teamdesk"
)

type idsResult struct {
	Table string `json:"table" yaml:"table"`
	IDs   []int  `json:"ids" yaml:"ids"`
}

func (r idsResult) table() string {
	if len(r.IDs) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(r.IDs))
	for _, id := range r.IDs {
		rows = append(rows, []string{strconv.Itoa(id)})
	}
	return renderTable([]string{"ID"}, rows, []columnAlignment{alignRight})
}

func newQueryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "query <query>",
		Short: "Run a TeamDesk query and print the matching rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				data, err := client.Query(callCtx, args[0])
				if err != nil {
					return err
				}
				return ctx.renderData(cmd, data)
			})
		},
	}
}

func newRetrieveCommand(ctx *commandContext) *cobra.Command {
	var columns string
	var ids []string

	cmd := &cobra.Command{
		Use:   "retrieve <table>",
		Short: "Fetch columns of specific records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols := splitList(columns)
			if len(cols) == 0 {
				return fmt.Errorf("at least one column is required (--columns)")
			}
			recordIDs, err := parseIDs(ids)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				data, err := client.Retrieve(callCtx, args[0], cols, recordIDs)
				if err != nil {
					return err
				}
				return ctx.renderData(cmd, data)
			})
		},
	}

	cmd.Flags().StringVar(&columns, "columns", "", "Comma separated column names")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Record ids (repeat or comma separate)")
	return cmd
}

func (c *commandContext) renderData(cmd *cobra.Command, data *teamdesk.Data) error {
	if data == nil {
		data = &teamdesk.Data{}
	}
	return c.render(cmd, data, func() string {
		headers := data.Columns()
		if len(headers) == 0 {
			return ""
		}
		rows := make([][]string, 0, len(data.Rows))
		for _, row := range data.Rows {
			values := make([]string, len(headers))
			for i, name := range headers {
				values[i], _ = row.Get(name)
			}
			rows = append(rows, values)
		}
		return renderTable(headers, rows, nil)
	})
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Create, update, and delete records",
	}

	recordCmd.AddCommand(newRecordWriteCommand(ctx, "create", "Create records from an XML payload",
		func(callCtx context.Context, client *teamdesk.Client, table, payload, _ string) ([]int, error) {
			return client.Create(callCtx, table, payload)
		}))
	recordCmd.AddCommand(newRecordWriteCommand(ctx, "update", "Update records from an XML payload",
		func(callCtx context.Context, client *teamdesk.Client, table, payload, _ string) ([]int, error) {
			return client.Update(callCtx, table, payload)
		}))
	recordCmd.AddCommand(newRecordWriteCommand(ctx, "upsert", "Insert or update records matched on a column",
		func(callCtx context.Context, client *teamdesk.Client, table, payload, match string) ([]int, error) {
			return client.Upsert(callCtx, table, payload, match)
		}))
	recordCmd.AddCommand(newRecordDeleteCommand(ctx))
	recordCmd.AddCommand(newRecordChangesCommand(ctx, "deleted", "List records deleted in a time window",
		func(callCtx context.Context, client *teamdesk.Client, table string, start, end time.Time) ([]int, error) {
			return client.GetDeleted(callCtx, table, start, end)
		}))
	recordCmd.AddCommand(newRecordChangesCommand(ctx, "updated", "List records updated in a time window",
		func(callCtx context.Context, client *teamdesk.Client, table string, start, end time.Time) ([]int, error) {
			return client.GetUpdated(callCtx, table, start, end)
		}))

	return recordCmd
}

type recordWriter func(ctx context.Context, client *teamdesk.Client, table, payload, match string) ([]int, error)

func newRecordWriteCommand(ctx *commandContext, use, short string, write recordWriter) *cobra.Command {
	var data string
	var file string
	var match string

	cmd := &cobra.Command{
		Use:   use + " <table>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if use == "upsert" && strings.TrimSpace(match) == "" {
				return fmt.Errorf("upsert requires --match")
			}
			payload, err := readPayload(cmd, data, file)
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				ids, err := write(callCtx, client, args[0], payload, match)
				if err != nil {
					return err
				}
				result := idsResult{Table: args[0], IDs: ids}
				return ctx.render(cmd, result, result.table)
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Inline XML record payload")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the XML record payload from a file (- for stdin)")
	if use == "upsert" {
		cmd.Flags().StringVar(&match, "match", "", "Column used to match existing records")
	}
	return cmd
}

func newRecordDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>...",
		Short: "Delete records by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				if err := client.Delete(callCtx, args[0], ids); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s) from %s: %s\n", len(ids), args[0], joinInts(ids))
				return nil
			})
		},
	}
}

type changeLister func(ctx context.Context, client *teamdesk.Client, table string, start, end time.Time) ([]int, error)

func newRecordChangesCommand(ctx *commandContext, use, short string, list changeLister) *cobra.Command {
	var since string
	var until string

	cmd := &cobra.Command{
		Use:   use + " <table>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			start, err := parseTime(since, now, now.Add(-24*time.Hour))
			if err != nil {
				return err
			}
			end, err := parseTime(until, now, now)
			if err != nil {
				return err
			}
			if end.Before(start) {
				return fmt.Errorf("--until must not be before --since")
			}
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				ids, err := list(callCtx, client, args[0], start, end)
				if err != nil {
					return err
				}
				result := idsResult{Table: args[0], IDs: ids}
				return ctx.render(cmd, result, result.table)
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Window start: RFC3339, YYYY-MM-DD, or a duration ago (default 24h)")
	cmd.Flags().StringVar(&until, "until", "", "Window end: RFC3339, YYYY-MM-DD, or a duration ago (default now)")
	return cmd
}
