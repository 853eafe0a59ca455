package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(t.TempDir(), "Testscape", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestMissingHooksAreNoOps(t *testing.T) {
	e := newEngine(t)
	assert.Nil(t, e.OnLogin(LoginContext{Name: "zezima"}))
	assert.False(t, e.OnCommand(CommandContext{Command: "pos"}).Handled)
}

func TestOnLoginLines(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.LoadString(`
function on_login(p)
  return { "Welcome to " .. SERVER_NAME .. ", " .. format_name(p.name) .. ".", "online " .. p.online }
end`))
	assert.Equal(t, []string{"Welcome to Testscape, Zezima Two.", "online 3"},
		e.OnLogin(LoginContext{Name: "zezima_two", Online: 3}))
}

func TestOnCommandResults(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.LoadString(`
function on_command(p)
  if p.command == "say" then return p.args[1] .. p.args[2] end
  if p.command == "jump" then return { messages = { "up" }, teleport = { x = p.x + 1, y = p.y, plane = 1 } } end
  if p.command == "quiet" then return true end
  if p.command == "boom" then error("kaboom") end
  return nil
end`))

	assert.Equal(t, CommandResult{Handled: true, Messages: []string{"ab"}},
		e.OnCommand(CommandContext{Command: "say", Args: []string{"a", "b"}}))

	jump := e.OnCommand(CommandContext{Command: "jump", X: 10, Y: 20})
	assert.True(t, jump.Handled)
	assert.Equal(t, []string{"up"}, jump.Messages)
	assert.Equal(t, &Location{X: 11, Y: 20, Plane: 1}, jump.Teleport)

	assert.Equal(t, CommandResult{Handled: true}, e.OnCommand(CommandContext{Command: "quiet"}))
	assert.False(t, e.OnCommand(CommandContext{Command: "boom"}).Handled)
	assert.False(t, e.OnCommand(CommandContext{Command: "unknown"}).Handled)
}

func TestLoadsScriptDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "login.lua"),
		[]byte(`function on_login(p) return "hi " .. p.name end`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "notes.txt"), []byte("not lua"), 0o644))

	e, err := NewEngine(dir, "x", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, []string{"hi bob"}, e.OnLogin(LoginContext{Name: "bob"}))
}

func TestBundledScripts(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), "Oldscape", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	greeting := e.OnLogin(LoginContext{Name: "zezima", Online: 1, NewUser: true})
	assert.Equal(t, []string{
		"Welcome to Oldscape.",
		"Type ::help for a list of commands.",
		"You are the only player online.",
	}, greeting)

	home := e.OnCommand(CommandContext{Command: "home"})
	assert.Equal(t, &Location{X: 3222, Y: 3218}, home.Teleport)

	assert.False(t, e.OnCommand(CommandContext{Command: "tele", Args: []string{"1", "2"}}).Handled)
	tele := e.OnCommand(CommandContext{Command: "tele", Rights: 2, Args: []string{"3200", "3200"}, Plane: 1})
	assert.Equal(t, &Location{X: 3200, Y: 3200, Plane: 1}, tele.Teleport)

	unknown := e.OnCommand(CommandContext{Command: "goto", Args: []string{"mars"}})
	assert.True(t, unknown.Handled)
	assert.Len(t, unknown.Messages, 1)
}
