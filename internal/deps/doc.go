// Package deps checks the external tools and directories vidframes needs,
// backing the `vidframes deps` command.
package deps
