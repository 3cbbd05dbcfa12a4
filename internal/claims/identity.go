package claims

import "strings"

// IdentitySet is the bundle of optional identifiers accompanying one
// redemption request. Every field may be empty; UserAgent is informational
// only and never participates in matching.
type IdentitySet struct {
	Email       string
	DeviceUUID  string
	CookieID    string
	Fingerprint string
	IPAddress   string
	UserAgent   string
}

// Normalized returns a copy with the email lower-cased and every identifier
// trimmed of surrounding whitespace.
func (s IdentitySet) Normalized() IdentitySet {
	return IdentitySet{
		Email:       NormalizeEmail(s.Email),
		DeviceUUID:  strings.TrimSpace(s.DeviceUUID),
		CookieID:    strings.TrimSpace(s.CookieID),
		Fingerprint: strings.TrimSpace(s.Fingerprint),
		IPAddress:   strings.TrimSpace(s.IPAddress),
		UserAgent:   strings.TrimSpace(s.UserAgent),
	}
}

// IsEmpty reports whether the set carries no matchable identifier.
func (s IdentitySet) IsEmpty() bool {
	return s.Email == "" && s.DeviceUUID == "" && s.CookieID == "" &&
		s.Fingerprint == "" && s.IPAddress == ""
}

// WithoutIP returns a copy with the IP address cleared. Used when IP-based
// matching is disabled by policy (shared NAT addresses would otherwise block
// unrelated users).
func (s IdentitySet) WithoutIP() IdentitySet {
	s.IPAddress = ""
	return s
}

// NormalizeEmail lower-cases and trims an email address so that lookups and
// the uniqueness constraint agree on a canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ClientIP picks the requester address from a forwarded-for chain, falling
// back to the transport peer address. Only the first (client-most) entry of
// the chain is trusted.
func ClientIP(forwardedFor, peer string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(peer)
}
