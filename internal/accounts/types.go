package accounts

// Credential is one row of the account list
type Credential struct {
	UserID     string
	Password   string
	TOTPSecret string
}

// column aliases accepted in the account list header, in lookup order
var (
	userIDColumns   = []string{"user_id", "userid", "user"}
	passwordColumns = []string{"password"}
	totpColumns     = []string{"totp_secret", "totp", "secret"}
)
