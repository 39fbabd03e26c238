// Package journal keeps a local SQLite record of remote calls made by the
// teamdesk client.
//
// Store implements teamdesk.CallObserver, so wiring it in with
// teamdesk.WithObserver records every dispatched call, the implicit login
// included, with its correlation ID, duration, and outcome. The CLI reads the
// journal back for the history command and prunes entries past the configured
// retention.
package journal
