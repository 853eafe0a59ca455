package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/world"
)

// ProfileRow is one player_profiles row. Appearance and skills are JSONB.
type ProfileRow struct {
	AccountName string
	X, Y        int32
	Plane       int16
	Appearance  AppearanceRow
	Skills      SkillsRow
	Friends     []int64
	Ignores     []int64
	PublicChat  int16
	PrivateChat int16
	Trade       int16
}

// AppearanceRow is the JSONB form of a player's look.
type AppearanceRow struct {
	Gender   byte    `json:"gender"`
	HeadIcon byte    `json:"head_icon"`
	Styles   [7]byte `json:"styles"`
	Colors   [5]byte `json:"colors"`
	Combat   byte    `json:"combat_level"`
}

// SkillsRow is the JSONB form of a player's skills.
type SkillsRow struct {
	Levels     [component.SkillCount]byte   `json:"levels"`
	Experience [component.SkillCount]uint32 `json:"experience"`
}

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Load returns nil, nil for an account that has never been saved.
func (r *ProfileRepo) Load(ctx context.Context, name string) (*ProfileRow, error) {
	row := &ProfileRow{}
	var app, skills []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT account_name, x, y, plane, appearance, skills,
		        friends, ignores, public_chat, private_chat, trade
		 FROM player_profiles WHERE account_name = $1`, name,
	).Scan(
		&row.AccountName, &row.X, &row.Y, &row.Plane, &app, &skills,
		&row.Friends, &row.Ignores, &row.PublicChat, &row.PrivateChat, &row.Trade,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(app, &row.Appearance); err != nil {
		return nil, fmt.Errorf("decode appearance of %s: %w", name, err)
	}
	if err := json.Unmarshal(skills, &row.Skills); err != nil {
		return nil, fmt.Errorf("decode skills of %s: %w", name, err)
	}
	return row, nil
}

// Save upserts the profile and touches the account in one transaction.
func (r *ProfileRepo) Save(ctx context.Context, row *ProfileRow) error {
	app, err := json.Marshal(row.Appearance)
	if err != nil {
		return err
	}
	skills, err := json.Marshal(row.Skills)
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("profile begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO player_profiles (
			account_name, x, y, plane, appearance, skills,
			friends, ignores, public_chat, private_chat, trade, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
		ON CONFLICT (account_name) DO UPDATE SET
			x = EXCLUDED.x, y = EXCLUDED.y, plane = EXCLUDED.plane,
			appearance = EXCLUDED.appearance, skills = EXCLUDED.skills,
			friends = EXCLUDED.friends, ignores = EXCLUDED.ignores,
			public_chat = EXCLUDED.public_chat, private_chat = EXCLUDED.private_chat,
			trade = EXCLUDED.trade, updated_at = NOW()`,
		row.AccountName, row.X, row.Y, row.Plane, app, skills,
		row.Friends, row.Ignores, row.PublicChat, row.PrivateChat, row.Trade,
	); err != nil {
		return fmt.Errorf("profile upsert: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET last_active = NOW() WHERE name = $1`, row.AccountName,
	); err != nil {
		return fmt.Errorf("profile touch account: %w", err)
	}
	return tx.Commit(ctx)
}

// ProfileToRow flattens a world profile for storage.
func ProfileToRow(name string, p *world.Profile) *ProfileRow {
	row := &ProfileRow{
		AccountName: name,
		Friends:     hashesToRow(p.Social.Friends),
		Ignores:     hashesToRow(p.Social.Ignores),
		PublicChat:  int16(p.Social.Public),
		PrivateChat: int16(p.Social.Private),
		Trade:       int16(p.Social.Trade),
	}
	if p.Position != nil {
		row.X, row.Y, row.Plane = int32(p.Position.X), int32(p.Position.Y), int16(p.Position.Plane)
	} else {
		row.X, row.Y = int32(world.Spawn.X), int32(world.Spawn.Y)
	}
	app := world.DefaultAppearance()
	if p.Appearance != nil {
		app = *p.Appearance
	}
	row.Appearance = AppearanceRow{
		Gender:   app.Gender,
		HeadIcon: app.HeadIcon,
		Styles:   app.Styles,
		Colors:   app.Colors,
		Combat:   app.CombatLevel,
	}
	skills := world.DefaultSkills()
	if p.Skills != nil {
		skills = *p.Skills
	}
	row.Skills = SkillsRow{Levels: skills.Levels, Experience: skills.Experience}
	return row
}

// Apply fills the saved parts of a profile from the row.
func (row *ProfileRow) Apply(p *world.Profile) {
	p.Position = &component.Position{X: int(row.X), Y: int(row.Y), Plane: int(row.Plane)}
	p.Appearance = &component.Appearance{
		Gender:      row.Appearance.Gender,
		HeadIcon:    row.Appearance.HeadIcon,
		Styles:      row.Appearance.Styles,
		Colors:      row.Appearance.Colors,
		CombatLevel: row.Appearance.Combat,
	}
	p.Skills = &component.Skills{Levels: row.Skills.Levels, Experience: row.Skills.Experience}
	p.Social = component.Social{
		Friends: hashesFromRow(row.Friends),
		Ignores: hashesFromRow(row.Ignores),
		Public:  byte(row.PublicChat),
		Private: byte(row.PrivateChat),
		Trade:   byte(row.Trade),
	}
}

// Name hashes are below 37^12 and fit a BIGINT.
func hashesToRow(hashes []uint64) []int64 {
	out := make([]int64, len(hashes))
	for i, h := range hashes {
		out[i] = int64(h)
	}
	return out
}

func hashesFromRow(hashes []int64) []uint64 {
	if len(hashes) == 0 {
		return nil
	}
	out := make([]uint64, len(hashes))
	for i, h := range hashes {
		out[i] = uint64(h)
	}
	return out
}
