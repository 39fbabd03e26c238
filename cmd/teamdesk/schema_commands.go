package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"teamdesk/internal/teamdesk"
)

func newAppCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "app",
		Short: "Describe the application and its tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				app, err := client.DescribeApp(callCtx)
				if err != nil {
					return err
				}
				return ctx.render(cmd, app, func() string {
					return renderTableSummaries(app.Tables)
				})
			})
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user the session belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				info, err := client.GetUserInfo(callCtx)
				if err != nil {
					return err
				}
				return ctx.render(cmd, info, func() string {
					return keyValueTable([][2]string{
						{"ID", strconv.Itoa(info.ID)},
						{"Email", info.Email},
						{"Name", joinName(info.FirstName, info.LastName)},
						{"Culture", info.Culture},
						{"Time zone", info.TimeZone},
					})
				})
			})
		},
	}
}

func newTableCommand(ctx *commandContext) *cobra.Command {
	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect table metadata",
	}

	tableCmd.AddCommand(&cobra.Command{
		Use:   "describe <table>",
		Short: "Describe one table and its columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				desc, err := client.DescribeTable(callCtx, args[0])
				if err != nil {
					return err
				}
				return ctx.render(cmd, desc, func() string {
					return renderColumns(desc.Columns)
				})
			})
		},
	})

	tableCmd.AddCommand(&cobra.Command{
		Use:   "describe-many <table>...",
		Short: "Describe several tables in one call",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(callCtx context.Context, client *teamdesk.Client) error {
				tables, err := client.DescribeTables(callCtx, args)
				if err != nil {
					return err
				}
				return ctx.render(cmd, tables, func() string {
					summaries := make([]teamdesk.TableSummary, 0, len(tables))
					for _, table := range tables {
						summaries = append(summaries, table.TableSummary)
					}
					return renderTableSummaries(summaries)
				})
			})
		},
	})

	return tableCmd
}

func renderTableSummaries(tables []teamdesk.TableSummary) string {
	rows := make([][]string, 0, len(tables))
	for _, table := range tables {
		rows = append(rows, []string{
			strconv.Itoa(table.ID),
			table.RecordName,
			table.SingularName,
			table.PluralName,
			table.Alias,
		})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable(
		[]string{"ID", "Record", "Singular", "Plural", "Alias"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func renderColumns(columns []teamdesk.ColumnDescription) string {
	rows := make([][]string, 0, len(columns))
	for _, column := range columns {
		rows = append(rows, []string{
			column.Name,
			column.Alias,
			column.Type,
			flag(column.Required),
			flag(column.Unique),
			flag(column.ReadOnly),
		})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable([]string{"Name", "Alias", "Type", "Required", "Unique", "Read-only"}, rows, nil)
}

func flag(value bool) string {
	if value {
		return "yes"
	}
	return ""
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
