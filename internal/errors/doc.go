// Package errors defines exit codes and the ExitError type used to carry a
// process exit status and a remediation suggestion out of command code.
//
// Call-site wrapping throughout the module uses cockroachdb/errors; this
// package stays on the standard library so ExitError can be matched with
// errors.As anywhere in a chain.
package errors
