// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content by type. With colors available the content is
// colorized; when NO_COLOR is set or the terminal can't show colors,
// text decorations (backticks, quotes) are used instead.
//
// # Semantic Formatters
//
//	ui.Code.Sprint("lockbox files upload")   // Commands and code
//	ui.Path.Sprint(".lockbox/config.toml")   // File paths
//	ui.Success.Sprint("✓")                   // Success indicators
//	ui.Error.Sprint("✗")                     // Error indicators
//	ui.Warning.Sprint("!")                   // Warnings
//	ui.Info.Sprint("→")                      // Informational hints
//	ui.Highlight.Sprint("alice")             // User values
//	ui.Muted.Sprint("optional")              // De-emphasized text
//
// # Tables
//
// Table aligns rows into columns for listings such as "lockbox files list"
// and "lockbox log --stats".
//
// # Color Behavior
//
// Colors are disabled when:
//   - NO_COLOR environment variable is set (any value)
//   - Terminal doesn't support colors (TERM=dumb, not a TTY)
//
// When colors are disabled, formatters apply text decorations:
//   - Code: `backticks`
//   - Highlight: 'single quotes'
//   - Muted: (parentheses)
//   - Others: no decoration
package ui
