package auth

// Session is the outcome of exchanging a request token
type Session struct {
	UserID      string
	AccessToken string
	PublicToken string
	LoginTime   string
}
