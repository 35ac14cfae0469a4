// Package validate checks configuration invariants that span multiple
// fields of a resolved runner group. Findings are reported, never
// thrown: a single pass surfaces every independent problem, and the
// artifact generator is the one place that turns error-severity
// findings into an abort.
package validate

import (
	"fmt"

	"github.com/meridianops/runnerfleet/pkg/fleet"

	"github.com/samber/lo"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Diagnostic struct {
	Severity Severity
	Message  string
}

type rule struct {
	severity Severity
	check    func(c fleet.RunnerConfig) (string, bool)
}

var rules = []rule{
	{SeverityError, func(c fleet.RunnerConfig) (string, bool) {
		return "key pair configured without matching machine option",
			c.KeyPair != "" && c.Machine.KeypairName == ""
	}},
	{SeverityWarning, func(c fleet.RunnerConfig) (string, bool) {
		return fmt.Sprintf("machine option keypairName %q does not reference key pair %q", c.Machine.KeypairName, c.KeyPair),
			c.KeyPair != "" && c.Machine.KeypairName != "" && c.Machine.KeypairName != c.KeyPair
	}},
	{SeverityError, func(c fleet.RunnerConfig) (string, bool) {
		return "spot instances enabled without a spot price",
			c.Machine.SpotInstance && c.Machine.SpotPrice == nil
	}},
	{SeverityWarning, func(c fleet.RunnerConfig) (string, bool) {
		return "spot price is set but spot instances are disabled",
			!c.Machine.SpotInstance && c.Machine.SpotPrice != nil
	}},
	{SeverityError, func(c fleet.RunnerConfig) (string, bool) {
		return "runner token is empty after resolving every source",
			c.Token == ""
	}},
	{SeverityWarning, func(c fleet.RunnerConfig) (string, bool) {
		return fmt.Sprintf("off-peak idle count %d exceeds regular idle count %d", c.OffPeak.IdleCount, c.Idle.Count),
			c.OffPeak.IdleCount > c.Idle.Count
	}},
}

// Validate evaluates every rule against the configuration and collects
// the findings. It never short-circuits.
func Validate(config fleet.RunnerConfig) []Diagnostic {
	var diagnostics []Diagnostic
	for _, r := range rules {
		if message, triggered := r.check(config); triggered {
			diagnostics = append(diagnostics, Diagnostic{
				Severity: r.severity,
				Message:  message,
			})
		}
	}
	return diagnostics
}

func HasErrors(diagnostics []Diagnostic) bool {
	return lo.SomeBy(diagnostics, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

func Errors(diagnostics []Diagnostic) []Diagnostic {
	return lo.Filter(diagnostics, func(d Diagnostic, _ int) bool {
		return d.Severity == SeverityError
	})
}
