// Package services defines shared context helpers consumed by the TeamDesk
// client, the CLI, and the logging package.
//
// Callers stamp a correlation identifier, the remote operation name, and the
// target table onto a context; logging.ContextFields turns those values into
// structured log attributes so every line emitted for one remote call can be
// grouped together.
package services
