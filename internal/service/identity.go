package service

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	ID       uint64
	UserName string
	Email    string
	Phone    string
	Role     string
}

func (i Identity) Authenticated() bool { return i.ID != 0 }
