package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/text"
	"github.com/oldscape/server/internal/world"
)

type memAccounts struct {
	rows    map[string]*AccountRow
	touched []string
}

func (m *memAccounts) Load(_ context.Context, name string) (*AccountRow, error) {
	return m.rows[name], nil
}

func (m *memAccounts) Create(_ context.Context, name, raw string) (*AccountRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	row := &AccountRow{Name: name, PasswordHash: string(hash), Member: true}
	m.rows[name] = row
	return row, nil
}

func (m *memAccounts) UpdateLastActive(_ context.Context, name string) error {
	m.touched = append(m.touched, name)
	return nil
}

type memProfiles map[string]*ProfileRow

func (m memProfiles) Load(_ context.Context, name string) (*ProfileRow, error) {
	return m[name], nil
}

func (m memProfiles) Save(_ context.Context, row *ProfileRow) error {
	m[row.AccountName] = row
	return nil
}

func newAccounts(t *testing.T, autoCreate bool) (*Accounts, *memAccounts, memProfiles) {
	t.Helper()
	store := &memAccounts{rows: map[string]*AccountRow{}}
	profiles := memProfiles{}
	return NewAccounts(store, profiles, autoCreate, zap.NewNop()), store, profiles
}

func TestAuthenticateCreatesAccount(t *testing.T) {
	accts, store, _ := newAccounts(t, true)
	ctx := context.Background()

	p, err := accts.Authenticate(ctx, "Zezima", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, component.Account{Name: "zezima", Member: true}, p.Account)
	assert.Nil(t, p.Position)
	require.Contains(t, store.rows, "zezima")

	_, err = accts.Authenticate(ctx, "zezima", "wrong")
	assert.ErrorIs(t, err, world.ErrInvalidCredentials)
	_, err = accts.Authenticate(ctx, "ZEZIMA", "hunter2")
	assert.NoError(t, err)
	assert.Equal(t, []string{"zezima", "zezima"}, store.touched)
}

func TestAuthenticateRejects(t *testing.T) {
	accts, store, _ := newAccounts(t, false)
	ctx := context.Background()

	_, err := accts.Authenticate(ctx, "zezima", "hunter2")
	assert.ErrorIs(t, err, world.ErrInvalidCredentials)
	assert.Empty(t, store.rows)

	_, err = accts.Authenticate(ctx, "no-dashes!", "hunter2")
	assert.ErrorIs(t, err, world.ErrInvalidCredentials)
	_, err = accts.Authenticate(ctx, "zezima", "")
	assert.ErrorIs(t, err, world.ErrInvalidCredentials)

	_, err = store.Create(ctx, "durial", "pw")
	require.NoError(t, err)
	store.rows["durial"].Banned = true
	_, err = accts.Authenticate(ctx, "durial", "pw")
	assert.ErrorIs(t, err, world.ErrAccountDisabled)
}

func TestProfileSurvivesLogout(t *testing.T) {
	accts, store, profiles := newAccounts(t, true)
	ctx := context.Background()
	_, err := store.Create(ctx, "zezima", "hunter2")
	require.NoError(t, err)
	store.rows["zezima"].Rights = 2

	skills := world.DefaultSkills()
	skills.Levels[0] = 99
	app := world.DefaultAppearance()
	app.Gender = 1
	friend := text.EncodeBase37("durial")
	require.NoError(t, accts.SaveProfile(ctx, "zezima", &world.Profile{
		Social:     component.Social{Friends: []uint64{friend}, Private: 1},
		Position:   &component.Position{X: 3093, Y: 3244, Plane: 1},
		Appearance: &app,
		Skills:     &skills,
	}))
	assert.Equal(t, []int64{int64(friend)}, profiles["zezima"].Friends)

	p, err := accts.Authenticate(ctx, "zezima", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, byte(2), p.Account.Rights)
	assert.Equal(t, &component.Position{X: 3093, Y: 3244, Plane: 1}, p.Position)
	assert.Equal(t, byte(1), p.Appearance.Gender)
	assert.Equal(t, byte(99), p.Skills.Levels[0])
	assert.Equal(t, []uint64{friend}, p.Social.Friends)
	assert.Nil(t, p.Social.Ignores)
	assert.Equal(t, byte(1), p.Social.Private)
}

func TestProfileToRowDefaults(t *testing.T) {
	row := ProfileToRow("zezima", &world.Profile{})
	assert.Equal(t, int32(world.Spawn.X), row.X)
	assert.Equal(t, int32(world.Spawn.Y), row.Y)
	assert.Equal(t, world.DefaultSkills().Levels, row.Skills.Levels)
	assert.Empty(t, row.Friends)
	assert.NotNil(t, row.Friends)
}
