// Package hcl implements the HCL plan loader: it discovers and parses plan
// files, resolves `variable` blocks into an evaluation context, and
// translates the decoded schema into the format-agnostic config model.
package hcl
