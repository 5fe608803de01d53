package audit

// Catalog returns the fixed, ordered rule set. Declaration order is the
// tie-break for issues of equal severity, so the order here is part of the
// output contract.
func Catalog() []Rule {
	return []Rule{
		// Authentication
		saAccountEnabledRule(),
		saAccountNotRenamedRule(),
		mixedModeAuthenticationRule(),
		weakPasswordsRule(),
		passwordPolicyDisabledRule(),
		passwordExpirationDisabledRule(),
		lockedAccountsRule(),
		inactiveLoginsRule(),
		loginAuditingDisabledRule(),

		// Privileges
		tooManySysadminsRule(),
		controlServerGrantsRule(),
		securityadminMembersRule(),
		operationalRoleMembersRule(),
		publicServerPermissionsRule(),
		guestConnectRule(),
		trustworthyEscalationRule(),
		trustworthyDatabasesRule(),
		impersonationGrantsRule(),
		nonStandardDatabaseOwnerRule(),
		orphanedUsersRule(),
		databaseChainingRule(),

		// Surface area
		xpCmdshellRule(),
		oleAutomationRule(),
		clrEnabledRule(),
		adHocQueriesRule(),
		crossDBChainingRule(),
		remoteAccessRule(),
		databaseMailRule(),
		remoteAdminConnectionsRule(),
		scanForStartupProcsRule(),
		defaultTraceDisabledRule(),
		startupProceduresRule(),
		nonDefaultEndpointsRule(),
		linkedServersRule(),
		sampleDatabasesRule(),

		// Encryption
		unencryptedDatabasesRule(),
		forceEncryptionDisabledRule(),
		expiredCertificatesRule(),
		weakCertificateKeysRule(),

		// SQL Agent
		osCommandJobStepsRule(),
		personalJobOwnersRule(),

		// Server
		unsupportedVersionRule(),
		defaultPortRule(),
	}
}
