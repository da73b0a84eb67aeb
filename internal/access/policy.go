package access

// AuthorizeAdminBootstrap decides whether a signup may create an admin.
// Non-admin signups are always allowed. The first admin in the system may be
// created by anyone; after that only an admin principal may create admins.
func AuthorizeAdminBootstrap(requestedAdmin, adminExists bool, current *Principal) bool {
	if !requestedAdmin {
		return true
	}
	if !adminExists {
		return true
	}
	return current != nil && current.Admin
}

// AuthorizeResourceAccess allows admins and the resource owner.
func AuthorizeResourceAccess(p *Principal, ownerID uint) bool {
	if p == nil {
		return false
	}
	return p.Admin || p.ID == ownerID
}

// RequireAdmin is the strict admin gate with no ownership fallback.
func RequireAdmin(p *Principal) bool {
	return p != nil && p.Admin
}
