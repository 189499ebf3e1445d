// Package i18n holds the user-facing messages of the panel.
//
// Messages are keyed by stable identifiers and rendered through
// golang.org/x/text/message printers backed by a private catalog. Russian is
// the default locale; English is bundled for operators who prefer it. Unknown
// locales fall back to the closest supported one.
package i18n
