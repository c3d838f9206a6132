// Package config loads and validates maskpipe configuration from TOML.
//
// Every component receives its settings through the Config struct at
// construction; nothing reads the process environment directly, which keeps
// the indexer, propagation engine, and artifact writer independently
// testable. Derived path helpers centralize the on-disk layout convention
// (indexed frames, masks, visualizations, preview, prompt record, run lock)
// so no two packages disagree about where a dataset lives.
package config
