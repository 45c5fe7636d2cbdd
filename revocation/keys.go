package revocation

import "strconv"

// Keys builds the durable key layout:
//
//	<prefix>jti-liveness:<jti>             -> subject name, TTL = token validity
//	<prefix>refresh-usage:<jti>            -> exchange count, TTL = refresh validity
//	<prefix>user-access-sessions:<userID>  -> set of live access jtis
//	<prefix>user-refresh-sessions:<userID> -> set of live refresh jtis
type Keys struct {
	Prefix string
}

const (
	livenessNS        = "jti-liveness:"
	usageNS           = "refresh-usage:"
	accessSessionsNS  = "user-access-sessions:"
	refreshSessionsNS = "user-refresh-sessions:"
)

func (k Keys) Liveness(jti string) string {
	return k.Prefix + livenessNS + jti
}

func (k Keys) Usage(jti string) string {
	return k.Prefix + usageNS + jti
}

func (k Keys) AccessSessions(userID int64) string {
	return k.Prefix + accessSessionsNS + strconv.FormatInt(userID, 10)
}

func (k Keys) RefreshSessions(userID int64) string {
	return k.Prefix + refreshSessionsNS + strconv.FormatInt(userID, 10)
}

// SessionSetPatterns returns SCAN patterns matching every session set
func (k Keys) SessionSetPatterns() []string {
	return []string{
		k.Prefix + accessSessionsNS + "*",
		k.Prefix + refreshSessionsNS + "*",
	}
}
