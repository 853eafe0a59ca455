package persist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/world"
)

// AccountStore is the part of AccountRepo the authenticator needs.
type AccountStore interface {
	Load(ctx context.Context, name string) (*AccountRow, error)
	Create(ctx context.Context, name, rawPassword string) (*AccountRow, error)
	UpdateLastActive(ctx context.Context, name string) error
}

// ProfileStore is the part of ProfileRepo the authenticator needs.
type ProfileStore interface {
	Load(ctx context.Context, name string) (*ProfileRow, error)
	Save(ctx context.Context, row *ProfileRow) error
}

// Accounts authenticates players against the accounts table and keeps their
// profiles between logins. It serves both world.Authenticator and
// world.ProfileSaver.
type Accounts struct {
	accounts   AccountStore
	profiles   ProfileStore
	autoCreate bool
	log        *zap.Logger
}

// NewAccounts builds the database authenticator. With autoCreate an unknown
// name is registered with the password it first logs in with.
func NewAccounts(accounts AccountStore, profiles ProfileStore, autoCreate bool, log *zap.Logger) *Accounts {
	return &Accounts{accounts: accounts, profiles: profiles, autoCreate: autoCreate, log: log}
}

func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*world.Profile, error) {
	if !world.ValidName(username) || password == "" {
		return nil, world.ErrInvalidCredentials
	}
	name := world.NormalizeName(username)

	row, err := a.accounts.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", name, err)
	}
	switch {
	case row == nil && !a.autoCreate:
		return nil, world.ErrInvalidCredentials
	case row == nil:
		if row, err = a.accounts.Create(ctx, name, password); err != nil {
			return nil, fmt.Errorf("create account %s: %w", name, err)
		}
		a.log.Info("account created", zap.String("account", name))
	case !ValidatePassword(row.PasswordHash, password):
		return nil, world.ErrInvalidCredentials
	}
	if row.Banned {
		return nil, world.ErrAccountDisabled
	}

	profile := &world.Profile{Account: component.Account{
		Name:    name,
		Rights:  byte(row.Rights),
		Member:  row.Member,
		Flagged: row.Flagged,
	}}
	saved, err := a.profiles.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", name, err)
	}
	if saved != nil {
		saved.Apply(profile)
	}
	if err := a.accounts.UpdateLastActive(ctx, name); err != nil {
		a.log.Warn("update last active failed", zap.String("account", name), zap.Error(err))
	}
	return profile, nil
}

func (a *Accounts) SaveProfile(ctx context.Context, name string, p *world.Profile) error {
	return a.profiles.Save(ctx, ProfileToRow(name, p))
}
