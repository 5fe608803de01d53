package domain

// Fact identifiers: the fixed set of named metadata queries the provider
// knows how to answer. Rules request facts by these ids; the provider maps
// them to the concrete system-view queries.
const (
	FactServerInfo        = "server_info"
	FactLogins            = "logins"
	FactSysadminMembers   = "sysadmin_members"
	FactServerRoleMembers = "server_role_members"
	FactServerConfig      = "server_config"
	FactDatabases         = "databases"
	FactGuestConnect      = "guest_connect"
	FactWeakPasswords     = "weak_passwords"
	FactLoginActivity     = "login_activity"
	FactLoginDBUsers      = "login_database_users"
	FactLockedLogins      = "locked_logins"
	FactEndpoints         = "endpoints"
	FactLinkedServers     = "linked_servers"
	FactAgentJobs         = "agent_jobs"
	FactStartupProcs      = "startup_procedures"
	FactCertificates      = "certificates"
	FactServerPermissions = "server_permissions"
	FactOrphanedUsers     = "orphaned_users"
	FactForceEncryption   = "force_encryption"
	FactLoginAuditLevel   = "login_audit_level"
)

// Fact is a named result set, immutable once fetched.
type Fact struct {
	ID   string
	Rows []Row
}
