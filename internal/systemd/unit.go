package systemd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
)

// Unit is the rendered form of a service declaration: everything needed to
// write a systemd unit file.
type Unit struct {
	Name             string
	Description      string
	ExecStart        string
	ExecStop         string
	Restart          string
	After            []string
	Requires         []string
	Environment      map[string]string
	WorkingDirectory string
	User             string

	// ConditionPath gates startup on a phase completion marker: systemd
	// skips the unit until the file exists. This keeps the ordering
	// contract on the supervised side, not on the registrar.
	ConditionPath string
}

// FromConfig converts a plan service declaration into a Unit. markerPath
// resolves a phase ID to its completion marker file; it is consulted only
// when the service declares requires_phase.
func FromConfig(svc *config.Service, markerPath func(phaseID string) string) Unit {
	u := Unit{
		Name:             svc.Name,
		Description:      svc.Description,
		ExecStart:        svc.ExecStart,
		ExecStop:         svc.ExecStop,
		Restart:          svc.Restart,
		After:            svc.After,
		Requires:         svc.Requires,
		Environment:      svc.Environment,
		WorkingDirectory: svc.WorkingDirectory,
		User:             svc.User,
	}
	if u.Description == "" {
		u.Description = svc.Name + " (managed by GenAI sandbox provisioner)"
	}
	if svc.RequiresPhase != "" && markerPath != nil {
		u.ConditionPath = markerPath(svc.RequiresPhase)
	}
	return u
}

// UnitName returns the full systemd unit name for u.
func (u Unit) UnitName() string {
	return u.Name + ".service"
}

// Render produces the unit file contents.
func (u Unit) Render() string {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	fmt.Fprintf(&b, "Description=%s\n", u.Description)
	for _, after := range u.After {
		fmt.Fprintf(&b, "After=%s\n", after)
	}
	for _, req := range u.Requires {
		fmt.Fprintf(&b, "Requires=%s\n", req)
	}
	if u.ConditionPath != "" {
		fmt.Fprintf(&b, "ConditionPathExists=%s\n", u.ConditionPath)
	}

	b.WriteString("\n[Service]\n")
	if u.User != "" {
		fmt.Fprintf(&b, "User=%s\n", u.User)
	}
	if u.WorkingDirectory != "" {
		fmt.Fprintf(&b, "WorkingDirectory=%s\n", u.WorkingDirectory)
	}
	keys := make([]string, 0, len(u.Environment))
	for k := range u.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "Environment=%q\n", k+"="+u.Environment[k])
	}
	fmt.Fprintf(&b, "ExecStart=%s\n", u.ExecStart)
	if u.ExecStop != "" {
		fmt.Fprintf(&b, "ExecStop=%s\n", u.ExecStop)
	}
	fmt.Fprintf(&b, "Restart=%s\n", u.Restart)
	b.WriteString("RestartSec=10\n")

	b.WriteString("\n[Install]\n")
	b.WriteString("WantedBy=multi-user.target\n")

	return b.String()
}
