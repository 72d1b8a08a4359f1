// Package testutil provides the shared fakes used across package tests: a
// deterministic clock, a scripted host command runner, and an in-memory
// marker store.
package testutil
