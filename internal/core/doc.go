// Package core holds the domain types and error kinds shared by the importer.
//
// It has no I/O of its own. The sheet, graphql, board and importer packages
// all speak in these types, and the CLI inspects the error kinds to decide the
// process exit code.
//
// # Records
//
// A [UserRecord] is one spreadsheet row that survived extraction: a non-empty
// id and an optional name. Records are never modified after they are built.
//
// # Error Kinds
//
// Four error kinds describe how a run can fail:
//
//   - [ConfigError]: required configuration missing or invalid (fatal)
//   - [FileError]: input missing or cannot be decrypted (fatal)
//   - [ParseError]: input is not readable tabular data (fatal)
//   - [RequestFailed]: an API call exhausted its retries (counted per record)
//
// Fatal kinds abort the run before any upload begins. RequestFailed is caught
// by the importer, counted, and reported, and the run carries on.
//
// # Error Codes
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has a code for support reference:
//
//   - AUTH001: API key rejected
//   - RATE001: rate limit or complexity budget exhausted
//   - API001: remote server or gateway error
//   - BRD001, COL001: board or column problems
//   - NET001-NET003: network failures
//   - FILE001-FILE003: input file problems
//   - CFG001: missing configuration
//   - UPL004, UPL005: cancelled or timed out
package core
