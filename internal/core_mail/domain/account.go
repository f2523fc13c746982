package domain

import "strings"

// AuthRole is the authorization role assigned by the account-approval workflow.
type AuthRole string

const (
	AuthRoleAdmin  AuthRole = "admin"
	AuthRoleViewer AuthRole = "viewer"
)

// Role type labels subject to the adult-mixing safety rule. Any other label
// (or an absent one) is non-adult.
const (
	RoleTypeParent      = "Parent"
	RoleTypeAdultLeader = "Adult Leader"
	RoleTypeScout       = "Scout" // default when absent
)

// AccountRecord holds identity and eligibility facts for one account. It is owned by
// the account-approval collaborator; this pipeline only reads it.
type AccountRecord struct {
	UID         string   `json:"uid"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	DisplayName string   `json:"display_name"`
	AuthRole    AuthRole `json:"auth_role"`
	RoleType    string   `json:"role_type"`
}

// IsApproved reports whether the account may send or receive through the pipeline.
func (a *AccountRecord) IsApproved() bool {
	return a != nil && (a.AuthRole == AuthRoleAdmin || a.AuthRole == AuthRoleViewer)
}

// IsAdultRole classifies a roleType label as adult.
func IsAdultRole(roleType string) bool {
	return roleType == RoleTypeParent || roleType == RoleTypeAdultLeader
}

// ResolvedSender is the sender identity after directory resolution.
type ResolvedSender struct {
	UID      string
	Email    string
	Name     string // display identity for the Reply-To header
	RoleType string
	IsAdult  bool
}

// EligibleRecipient is a resolved, approved, non-self account with a usable
// email address, surviving recipient filtering.
type EligibleRecipient struct {
	UID      string
	Email    string
	RoleType string
	FullName string
}

// IsAdult reports whether the recipient counts toward the adult quota.
func (r EligibleRecipient) IsAdult() bool {
	return IsAdultRole(r.RoleType)
}

// SenderName picks the human-readable sender identity the way the directory
// records it: full name, then display name, then email, then the uid.
func SenderName(rec *AccountRecord) string {
	for _, candidate := range []string{rec.FullName, rec.DisplayName, rec.Email, rec.UID} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return rec.UID
}
