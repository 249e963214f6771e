// Package core reconciles a community's household directory with its
// entry code assignments and produces the entries of a DoorKing import.
//
// The package has no knowledge of where tables come from or how the result
// is written. The batch command, the web server and the tests all feed it
// the same three row tables:
//
//   - Directory: one row per household (street, house, directory number,
//     names, phone, device numbers).
//   - Codes: code assignments by address (resident codes) or by name with
//     no address (vendor codes), plus nameless legacy rows.
//   - Deleted: retired codes that may appear in no other table.
//
// # Pipeline
//
// [ParseDeletedCodes] builds the retired set, [BuildCodeBook] partitions the
// code rows, and a [Reconciler] walks the directory in order, draining each
// household's codes from the book:
//
//	deleted, err := core.ParseDeletedCodes(tables.Deleted)
//	book, err := core.BuildCodeBook(tables.Codes, deleted)
//	entries, err := core.NewReconciler("555", levels).Reconcile(tables.Directory, book)
//
// [Reconcile] runs all three steps; [Service] adds run ids, logging and the
// concurrency limit.
//
// # Errors
//
// Every problem in the input tables is reported as a typed error matching
// [ErrInvalidInput]. [MapError] turns them into user-facing messages with a
// reference code:
//
//   - COD001-COD008: code table problems
//   - DIR001-DIR002: directory rows
//   - ENT001-ENT002: entry construction
//   - CFG001-CFG002: account configuration
//   - SRC001-SRC002, FILE001-FILE005: table retrieval and uploads
//   - RUN001-RUN003: run admission and cancellation
//   - RATE001: per-client request rate limit
//
// A run either returns every entry or an error; no partial output is ever
// produced.
package core
