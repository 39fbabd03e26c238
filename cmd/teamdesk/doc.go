// Package main hosts the teamdesk CLI entrypoint and command graph.
//
// The Cobra-based command tree maps terminal invocations onto the TeamDesk
// client: record CRUD, schema introspection, queries, attachments, user info,
// and mail. It centralizes configuration resolution, client construction, the
// optional call journal, and output formatting (table, JSON, or YAML) so
// subcommands only describe their parameters and results.
//
// Add new functionality to internal/teamdesk first, then surface it here.
package main
