// Package cli provides the journal command-line client.
//
// It wires configuration, the local encrypted store, the optional backend
// services and two front ends over the same App: cobra subcommands for
// one-shot use (journal add, journal list, ...) and an interactive shell
// (journal shell) driven by runREPL.
//
// Key features:
//   - Write, read, edit and delete entries; list and search them
//   - Export a plaintext JSON backup and import it again
//   - Plain settings
//   - Backend login with username and PIN, AI prompts and analyses
//
// See App, NewRootCommand and Execute.
package cli
