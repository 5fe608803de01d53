package mssql

import (
	"fmt"
	"strings"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// Probe values tried against SQL login password hashes via PWDCOMPARE. The
// comparison happens server-side; the engine only classifies the matches.
var passwordProbes = []string{
	"", "sa", "password", "Password1", "P@ssw0rd", "123456", "sql", "admin", "sqlserver",
}

// queries maps fact ids to the metadata statements that answer them. Column
// aliases are part of the fact contract: rules address columns by these names.
var queries = map[string]string{
	domain.FactServerInfo: `
		SELECT
			@@SERVERNAME AS server_name,
			CONVERT(nvarchar(128), SERVERPROPERTY('MachineName')) AS machine_name,
			CONVERT(nvarchar(128), ISNULL(SERVERPROPERTY('InstanceName'), N'MSSQLSERVER')) AS instance_name,
			CONVERT(nvarchar(128), SERVERPROPERTY('ProductVersion')) AS product_version,
			CONVERT(nvarchar(128), SERVERPROPERTY('ProductLevel')) AS product_level,
			CONVERT(nvarchar(128), SERVERPROPERTY('Edition')) AS edition,
			CONVERT(int, SERVERPROPERTY('IsIntegratedSecurityOnly')) AS windows_auth_only,
			CONVERT(int, SERVERPROPERTY('IsClustered')) AS is_clustered`,

	domain.FactLogins: `
		SELECT
			p.name AS login_name,
			p.type_desc AS login_type,
			CONVERT(int, p.is_disabled) AS is_disabled,
			p.default_database_name AS default_database,
			p.create_date AS create_date,
			CASE WHEN p.sid = 0x01 THEN 1 ELSE 0 END AS is_sa_account,
			CONVERT(int, ISNULL(sl.is_policy_checked, 0)) AS is_policy_checked,
			CONVERT(int, ISNULL(sl.is_expiration_checked, 0)) AS is_expiration_checked
		FROM sys.server_principals p
		LEFT JOIN sys.sql_logins sl ON sl.principal_id = p.principal_id
		WHERE p.type IN ('S', 'U', 'G')
			AND p.name NOT LIKE '##%'
		ORDER BY p.name`,

	domain.FactSysadminMembers: `
		SELECT m.name AS member_name
		FROM sys.server_role_members rm
		JOIN sys.server_principals r ON r.principal_id = rm.role_principal_id
		JOIN sys.server_principals m ON m.principal_id = rm.member_principal_id
		WHERE r.name = 'sysadmin' AND m.is_disabled = 0
		ORDER BY m.name`,

	domain.FactServerRoleMembers: `
		SELECT r.name AS role_name, m.name AS member_name
		FROM sys.server_role_members rm
		JOIN sys.server_principals r ON r.principal_id = rm.role_principal_id
		JOIN sys.server_principals m ON m.principal_id = rm.member_principal_id
		WHERE r.type = 'R' AND m.is_disabled = 0
		ORDER BY r.name, m.name`,

	domain.FactServerConfig: `
		SELECT name, CONVERT(int, value) AS value, CONVERT(int, value_in_use) AS value_in_use
		FROM sys.configurations
		WHERE name IN (
			'xp_cmdshell', 'Ole Automation Procedures', 'clr enabled', 'clr strict security',
			'Ad Hoc Distributed Queries', 'cross db ownership chaining', 'remote access',
			'Database Mail XPs', 'remote admin connections', 'scan for startup procs',
			'default trace enabled'
		)
		ORDER BY name`,

	domain.FactDatabases: `
		SELECT
			d.name AS database_name,
			ISNULL(SUSER_SNAME(d.owner_sid), N'') AS owner_name,
			CONVERT(int, d.is_trustworthy_on) AS is_trustworthy,
			CONVERT(int, d.is_db_chaining_on) AS is_db_chaining,
			CONVERT(int, d.is_encrypted) AS is_encrypted,
			d.state_desc AS state,
			CASE WHEN d.database_id <= 4 THEN 1 ELSE 0 END AS is_system
		FROM sys.databases d
		ORDER BY d.name`,

	domain.FactGuestConnect: `
		DECLARE @guest TABLE (database_name sysname);
		INSERT INTO @guest
		EXEC sp_MSforeachdb N'
			USE [?];
			SELECT DB_NAME()
			FROM sys.database_permissions dp
			JOIN sys.database_principals p ON p.principal_id = dp.grantee_principal_id
			WHERE p.name = ''guest'' AND dp.permission_name = ''CONNECT''
				AND dp.state IN (''G'', ''W'')
				AND DB_NAME() NOT IN (''master'', ''tempdb'', ''msdb'')';
		SELECT database_name FROM @guest ORDER BY database_name`,

	domain.FactLoginActivity: `
		SELECT
			p.name AS login_name,
			p.create_date AS create_date,
			s.last_login AS last_login
		FROM sys.server_principals p
		LEFT JOIN (
			SELECT login_name, MAX(login_time) AS last_login
			FROM sys.dm_exec_sessions
			GROUP BY login_name
		) s ON s.login_name = p.name
		WHERE p.type IN ('S', 'U') AND p.name NOT LIKE '##%'
		ORDER BY p.name`,

	domain.FactLoginDBUsers: `
		DECLARE @map TABLE (login_name sysname, database_name sysname, user_name sysname);
		INSERT INTO @map
		EXEC sp_MSforeachdb N'
			USE [?];
			SELECT sp.name, DB_NAME(), dp.name
			FROM sys.database_principals dp
			JOIN sys.server_principals sp ON sp.sid = dp.sid
			WHERE dp.type IN (''S'', ''U'') AND dp.principal_id > 4';
		SELECT login_name, database_name, user_name FROM @map
		ORDER BY login_name, database_name`,

	domain.FactLockedLogins: `
		SELECT
			name AS login_name,
			CONVERT(datetime, LOGINPROPERTY(name, 'LockoutTime')) AS lockout_time
		FROM sys.sql_logins
		WHERE CONVERT(int, LOGINPROPERTY(name, 'IsLocked')) = 1
		ORDER BY name`,

	domain.FactEndpoints: `
		SELECT
			e.name AS endpoint_name,
			e.protocol_desc AS protocol,
			e.state_desc AS state,
			CASE WHEN e.endpoint_id < 65536 THEN 1 ELSE 0 END AS is_system,
			ISNULL(t.port, 0) AS port
		FROM sys.endpoints e
		LEFT JOIN sys.tcp_endpoints t ON t.endpoint_id = e.endpoint_id
		ORDER BY e.name`,

	domain.FactLinkedServers: `
		SELECT
			s.name AS server_name,
			ISNULL(s.product, N'') AS product,
			CONVERT(int, ISNULL(ll.uses_self_credential, 0)) AS uses_self_mapping,
			ISNULL(ll.remote_name, N'') AS remote_login
		FROM sys.servers s
		LEFT JOIN sys.linked_logins ll ON ll.server_id = s.server_id
		WHERE s.is_linked = 1
		ORDER BY s.name`,

	domain.FactAgentJobs: `
		SELECT
			j.name AS job_name,
			ISNULL(SUSER_SNAME(j.owner_sid), N'') AS owner_name,
			CONVERT(int, j.enabled) AS enabled,
			s.step_name AS step_name,
			s.subsystem AS subsystem
		FROM msdb.dbo.sysjobs j
		LEFT JOIN msdb.dbo.sysjobsteps s ON s.job_id = j.job_id
		ORDER BY j.name, s.step_id`,

	domain.FactStartupProcs: `
		SELECT SCHEMA_NAME(p.schema_id) + N'.' + p.name AS procedure_name
		FROM master.sys.procedures p
		WHERE OBJECTPROPERTY(p.object_id, 'ExecIsStartup') = 1
		ORDER BY p.name`,

	domain.FactCertificates: `
		SELECT
			c.name AS certificate_name,
			ISNULL(c.subject, N'') AS subject,
			c.expiry_date AS expiry_date,
			c.key_length AS key_length,
			c.pvt_key_encryption_type_desc AS key_encryption
		FROM master.sys.certificates c
		WHERE c.name NOT LIKE '##%'
		ORDER BY c.name`,

	domain.FactServerPermissions: `
		SELECT
			pr.name AS grantee,
			pr.type_desc AS grantee_type,
			pe.permission_name AS permission,
			pe.state_desc AS state,
			CASE WHEN pe.class = 101 THEN ISNULL(SUSER_NAME(pe.major_id), N'') ELSE N'' END AS target_login
		FROM sys.server_permissions pe
		JOIN sys.server_principals pr ON pr.principal_id = pe.grantee_principal_id
		WHERE pe.state IN ('G', 'W')
		ORDER BY pr.name, pe.permission_name`,

	domain.FactOrphanedUsers: `
		DECLARE @orphans TABLE (database_name sysname, user_name sysname);
		INSERT INTO @orphans
		EXEC sp_MSforeachdb N'
			USE [?];
			SELECT DB_NAME(), dp.name
			FROM sys.database_principals dp
			LEFT JOIN sys.server_principals sp ON sp.sid = dp.sid
			WHERE dp.type IN (''S'', ''U'') AND dp.principal_id > 4
				AND dp.authentication_type <> 0 AND sp.sid IS NULL';
		SELECT database_name, user_name FROM @orphans
		ORDER BY database_name, user_name`,

	domain.FactForceEncryption: `
		SELECT CONVERT(int, value_data) AS force_encryption
		FROM sys.dm_server_registry
		WHERE registry_key LIKE N'%SuperSocketNetLib' AND value_name = N'ForceEncryption'`,

	domain.FactLoginAuditLevel: `
		SELECT CONVERT(int, value_data) AS audit_level
		FROM sys.dm_server_registry
		WHERE value_name = N'AuditLevel'`,
}

func init() {
	queries[domain.FactWeakPasswords] = weakPasswordQuery(passwordProbes)
}

// weakPasswordQuery probes SQL login hashes against the fixed value list and
// against the login's own name. PWDCOMPARE runs on the server; no hashes
// leave it.
func weakPasswordQuery(probes []string) string {
	rows := make([]string, 0, len(probes))
	for _, p := range probes {
		rows = append(rows, fmt.Sprintf("(N'%s')", strings.ReplaceAll(p, "'", "''")))
	}
	return fmt.Sprintf(`
		SELECT l.name AS login_name, p.probe AS matched_probe
		FROM sys.sql_logins l
		CROSS JOIN (VALUES %s) AS p(probe)
		WHERE PWDCOMPARE(p.probe, l.password_hash) = 1
		UNION
		SELECT l.name AS login_name, N'<login name>' AS matched_probe
		FROM sys.sql_logins l
		WHERE PWDCOMPARE(l.name, l.password_hash) = 1
		ORDER BY login_name`, strings.Join(rows, ", "))
}
