// Package core is the editing service behind the locgrid server.
//
// It owns editor sessions and everything that happens to them: loading a
// selection of localization files, editing cells, machine translation of a
// single cell or the whole grid, and writing the edited files back out. It has
// no HTTP dependencies and is driven by the web package and by tests.
//
// # Sessions
//
// Each browser editor works on one [Session]. Loading a new selection resets
// the session and bumps its generation. Work that suspends (file reads,
// translation calls) captures the generation first and is discarded with
// [ErrStaleSession] when it changed in the meantime, so a reload acts as a
// cancellation of everything in flight.
//
// # Loading
//
// [Service.LoadFiles] rejects oversized files before reading anything, reads
// and parses the rest concurrently, and installs the grid only when every
// file succeeded. Results are placed by input position, not completion order.
//
// # Translation
//
// All translation requests go through one [translate.Queue], which bounds the
// number of concurrent API calls. Whole-grid translation runs as a background
// job whose progress can be streamed with [Service.SubscribeProgress].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with support codes by
// [MapError]. See error_messages.go for the code table.
package core
