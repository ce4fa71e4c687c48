package qbo

import (
	"fmt"

	"golang.org/x/oauth2"
)

// Token is the result of an authorization code exchange: the OAuth2
// token set and the realm id of the QuickBooks company the user
// authorized.
type Token struct {
	*oauth2.Token
	RealmID string `json:"realm_id"`
}

// String represents Token for printing
func (t *Token) String() string {
	tpl := `
realm_id       %s
access_token   %s
expiry         %s
refresh_token  %s
`
	if t == nil || t.Token == nil {
		return fmt.Sprintf(tpl, "", "", "", "")
	}
	return fmt.Sprintf(
		tpl,
		t.RealmID,
		t.AccessToken,
		t.Expiry,
		t.RefreshToken,
	)
}
