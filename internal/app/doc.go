// Package app contains the core application logic. It wires the plan
// loader, action registry, marker store, audit journal, and sequencer into
// one provisioning run, decoupled from any specific entrypoint like a CLI.
package app
