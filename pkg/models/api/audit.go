package api

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

type Issue struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Details        []string `json:"details,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

type Login struct {
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Disabled        bool      `json:"disabled"`
	DefaultDatabase string    `json:"default_database,omitempty"`
	CreateDate      time.Time `json:"create_date"`
}

type ServerInfo struct {
	ServerName         string `json:"server_name,omitempty"`
	MachineName        string `json:"machine_name,omitempty"`
	InstanceName       string `json:"instance_name,omitempty"`
	ProductVersion     string `json:"product_version,omitempty"`
	ProductLevel       string `json:"product_level,omitempty"`
	Edition            string `json:"edition,omitempty"`
	AuthenticationMode string `json:"authentication_mode,omitempty"`
	IsClustered        bool   `json:"is_clustered"`
}

type Summary struct {
	CollectedAt time.Time      `json:"collected_at"`
	Complete    bool           `json:"complete"`
	Counts      map[string]int `json:"counts"`
	Issues      []Issue        `json:"issues"`
	Logins      []Login        `json:"logins"`
	Sysadmins   []string       `json:"sysadmins"`
}

type RuleFailure struct {
	RuleID string `json:"rule_id"`
	Error  string `json:"error"`
}

type RunStatus struct {
	ID          string     `json:"id"`
	Profile     string     `json:"profile"`
	State       string     `json:"state"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type StartRunRequest struct {
	Profile                 string `json:"profile"`
	InactivityThresholdDays int    `json:"inactivity_threshold_days,omitempty"`
}

type StartRunResponse struct {
	ID string `json:"id"`
}

type Profile struct {
	Name string `json:"name"`
	Host string `json:"host"`
}
