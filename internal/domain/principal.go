package domain

// Principal is the authenticated caller, resolved once per request and passed
// explicitly into every service call that needs it.
type Principal struct {
	UserID int64
	Role   UserRole
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

func (p Principal) Is(userID int64) bool { return p.UserID != 0 && p.UserID == userID }
