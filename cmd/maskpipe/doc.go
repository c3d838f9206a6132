// Package main hosts the maskpipe CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the mask-propagation pipeline:
// indexing raw frame dumps, editing the click prompt, kicking off full and
// preview propagation passes, and inspecting the run journal. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
