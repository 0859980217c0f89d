// Package errors provides standardized error handling for lawgraph components.
//
// # Overview
//
// The package implements a three-class error classification system for the
// ingestion pipeline: Transient (temporary, retryable), Invalid (bad input,
// non-retryable), and Fatal (unrecoverable, stop processing).
//
// Classification lets the polling loop and the store adapters make informed
// retry decisions without string matching on error messages. A failed graph
// commit is transient (the batch is retried next cycle); a malformed document
// is invalid (skipped, never retried); missing configuration is fatal.
//
// # Error Wrapping Pattern
//
// All wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "GraphStore", "Mutate", "commit transaction")
//	errors.WrapInvalid(err, "Extractor", "Extract", "parse citations")
//	errors.WrapFatal(err, "Config", "Load", "read config file")
//
// The generic Wrap() preserves the original error's classification.
//
// # Standard Error Variables
//
// Pre-defined variables cover the common conditions of the pipeline:
// lifecycle (ErrAlreadyStarted, ErrNotStarted), connectivity
// (ErrSourceUnavailable, ErrStoreUnavailable, ErrConnectionTimeout),
// data handling (ErrInvalidDocument, ErrMissingRootField), processing
// (ErrBatchInFlight, ErrCommitFailed, ErrFlagUpdateFailed), and
// configuration (ErrInvalidConfig, ErrMissingConfig).
//
// Context errors (context.DeadlineExceeded, context.Canceled) are classified
// as transient so context-based timeouts retry like network timeouts.
//
// All classification and wrapping operations are thread-safe; the error
// variables are immutable and safe for concurrent use.
package errors
