// Package services defines the shared error taxonomy for pipeline components.
//
// Components tag failures with one of the exported sentinel errors so callers
// can classify them (precondition the operator must fix, missing accelerator,
// per-frame artifact trouble) without parsing messages. Wrap is the single
// constructor; it folds component, operation, and message context into the
// error chain so reports carry enough detail to act on.
package services
