package domain

import "time"

// Issue is a single security finding. Issues are value objects: equality is
// by content and they never mutate after construction.
type Issue struct {
	Title          string
	Description    string
	Severity       Severity
	Category       string
	Details        []string
	Recommendation string
}

// RuleFailure records a rule that could not complete. Failures are a
// diagnostic channel separate from issues and never appear in a Summary.
type RuleFailure struct {
	RuleID string
	Err    error
}

func (f RuleFailure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

const (
	DefaultInactivityThresholdDays = 90
	MinInactivityThresholdDays     = 30
	MaxInactivityThresholdDays     = 3650
)

// RunContext is the run-scoped configuration handed to every rule. It is
// immutable for the duration of one run; CollectedAt is the snapshot instant
// rules compare fact timestamps against, so a run is reproducible.
type RunContext struct {
	InactivityThresholdDays int
	CollectedAt             time.Time
}

func NewRunContext(collectedAt time.Time) RunContext {
	return RunContext{
		InactivityThresholdDays: DefaultInactivityThresholdDays,
		CollectedAt:             collectedAt,
	}
}

// Normalize fills in the default threshold when unset and clamps it into
// its supported range.
func (c RunContext) Normalize() RunContext {
	if c.InactivityThresholdDays == 0 {
		c.InactivityThresholdDays = DefaultInactivityThresholdDays
	}
	if c.InactivityThresholdDays < MinInactivityThresholdDays {
		c.InactivityThresholdDays = MinInactivityThresholdDays
	}
	if c.InactivityThresholdDays > MaxInactivityThresholdDays {
		c.InactivityThresholdDays = MaxInactivityThresholdDays
	}
	return c
}

// LoginInfo is a descriptive roster entry surfaced directly from facts.
type LoginInfo struct {
	Name            string
	Type            string
	Disabled        bool
	DefaultDatabase string
	CreateDate      time.Time
}

// ServerInfo is a best-effort snapshot of the audited server's identity.
// Every field is optional; consumers render placeholders for blanks.
type ServerInfo struct {
	ServerName         string
	MachineName        string
	InstanceName       string
	ProductVersion     string
	ProductLevel       string
	Edition            string
	AuthenticationMode string
	IsClustered        bool
}

// Summary is the aggregate result of one audit run. Severity counts are
// derived from the issue list, never stored redundantly.
type Summary struct {
	CollectedAt time.Time
	Complete    bool
	Issues      []Issue
	Logins      []LoginInfo
	Sysadmins   []string
}

func (s Summary) Count(sev Severity) int {
	n := 0
	for _, i := range s.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

func (s Summary) Counts() map[Severity]int {
	counts := make(map[Severity]int, len(Severities()))
	for _, sev := range Severities() {
		counts[sev] = 0
	}
	for _, i := range s.Issues {
		counts[i.Severity]++
	}
	return counts
}
