package property

// Capability is the viewer's relationship to a listing, resolved once at
// the API boundary and applied as an explicit projection.
type Capability int

const (
	// ViewerAnonymous carries no session.
	ViewerAnonymous Capability = iota
	// ViewerAuthenticated is a signed-in user with no tie to the listing.
	ViewerAuthenticated
	// ViewerAgent is the agent associated with the listing.
	ViewerAgent
	// ViewerOwner is the listing's owner.
	ViewerOwner
	// ViewerAdmin is an admin.
	ViewerAdmin
)

// Viewer identifies the caller of a read operation.
type Viewer struct {
	UserID     string
	Capability Capability
}

// ResolveViewer classifies a caller against a listing. userID and agentID
// come from the session; empty userID means anonymous.
func ResolveViewer(p *Property, userID string, isAdmin bool, agentID string) Viewer {
	switch {
	case userID == "":
		return Viewer{Capability: ViewerAnonymous}
	case isAdmin:
		return Viewer{UserID: userID, Capability: ViewerAdmin}
	case p.OwnerID == userID:
		return Viewer{UserID: userID, Capability: ViewerOwner}
	case agentID != "" && p.AgentID == agentID:
		return Viewer{UserID: userID, Capability: ViewerAgent}
	default:
		return Viewer{UserID: userID, Capability: ViewerAuthenticated}
	}
}

// CanSeeContactDetails reports whether the viewer receives the contact
// phone/email subfields. Anonymous callers never do. Restricted listings
// are agent-mediated: ordinary authenticated viewers are withheld too.
func (v Viewer) CanSeeContactDetails(p *Property) bool {
	switch v.Capability {
	case ViewerOwner, ViewerAdmin, ViewerAgent:
		return true
	case ViewerAuthenticated:
		return !p.ContactDetails.IsRestricted
	default:
		return false
	}
}

// CanSeeListing reports whether the viewer may observe the listing at all.
// Non-approved listings exist only for their owner and admins; everyone
// else gets not-found, not forbidden.
func (v Viewer) CanSeeListing(p *Property) bool {
	if PubliclyVisible(p.Status) {
		return true
	}
	return v.Capability == ViewerOwner || v.Capability == ViewerAdmin
}

// Redact returns a copy of p projected for the viewer. Contact subfields
// are cleared when the viewer is not entitled to them.
func Redact(p *Property, v Viewer) *Property {
	out := *p
	if !v.CanSeeContactDetails(p) {
		out.ContactDetails.Phone = ""
		out.ContactDetails.Email = ""
	}
	return &out
}
