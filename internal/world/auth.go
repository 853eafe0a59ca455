package world

import (
	"context"
	"errors"
	"strings"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/text"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)

// Profile is what an authenticator knows about an account. Position is nil
// for a player who has never logged out.
type Profile struct {
	Account    component.Account
	Social     component.Social
	Position   *component.Position
	Appearance *component.Appearance
	Skills     *component.Skills
}

// Authenticator checks credentials and loads the account behind them.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Profile, error)
}

// ProfileSaver persists what a player changed while logged in.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, name string, p *Profile) error
}

// OpenAuthenticator accepts any valid name with a non-empty password. Every
// account is a regular member.
type OpenAuthenticator struct{}

func (OpenAuthenticator) Authenticate(_ context.Context, username, password string) (*Profile, error) {
	if !ValidName(username) || password == "" {
		return nil, ErrInvalidCredentials
	}
	return &Profile{Account: component.Account{Name: NormalizeName(username), Member: true}}, nil
}

// ValidName reports whether a username is 1-12 characters of letters,
// digits, spaces and underscores.
func ValidName(name string) bool {
	if name == "" || len(name) > 12 {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == ' ', c == '_':
		default:
			return false
		}
	}
	return strings.Trim(name, " _") != ""
}

// NormalizeName returns the canonical stored form of a username.
func NormalizeName(name string) string {
	decoded, err := text.DecodeBase37(text.EncodeBase37(name))
	if err != nil {
		return strings.ToLower(name)
	}
	return decoded
}
