package domain

// Identity is the authenticated user the storefront is acting for.
// It is owned by the session layer; cart and checkout only observe it.
type Identity struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    string `json:"rol"`
	Token  string `json:"token,omitempty"`
}

// SameUser reports whether a and b refer to the same user. Two nil identities are
// the same (logged out).
func SameUser(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
