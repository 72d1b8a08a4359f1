// Package dag validates the phase dependency relation of a provisioning
// plan: it builds a directed acyclic graph of phases and rejects unknown
// references, self-references, cycles, and forward references before the
// sequencer runs anything.
package dag
