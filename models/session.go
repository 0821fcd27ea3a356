package models

// Session identifies the shopper a cart belongs to. It is resolved from the
// storefront's session token on every request.
type Session struct {
	ID        string
	Wholesale bool
	CSRFToken string
	// Token is the raw bearer token, forwarded upstream in remote mode.
	Token string
}

func (s Session) CustomerType() string {
	if s.Wholesale {
		return "wholesale"
	}
	return "retail"
}
