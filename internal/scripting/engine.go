package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/oldscape/server/internal/text"
)

// Engine wraps a single gopher-lua VM for login greetings and chat commands.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under the core and
// commands subdirectories of scriptsDir, core first.
func NewEngine(scriptsDir, serverName string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("SERVER_NAME", lua.LString(serverName))
	vm.SetGlobal("format_name", vm.NewFunction(luaFormatName))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"core", "commands"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source. Used for inline scripts and tests.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

func luaFormatName(L *lua.LState) int {
	L.Push(lua.LString(text.FormatName(L.CheckString(1))))
	return 1
}

// LoginContext describes a player who just entered the world.
type LoginContext struct {
	Name    string
	Rights  int
	Member  bool
	Online  int // players in the world, this one included
	NewUser bool
}

// OnLogin calls on_login and returns the greeting lines it produced.
func (e *Engine) OnLogin(ctx LoginContext) []string {
	fn := e.vm.GetGlobal("on_login")
	if fn == lua.LNil {
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ctx.Name))
	t.RawSetString("rights", lua.LNumber(ctx.Rights))
	t.RawSetString("member", lua.LBool(ctx.Member))
	t.RawSetString("online", lua.LNumber(ctx.Online))
	t.RawSetString("new_user", lua.LBool(ctx.NewUser))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua on_login error", zap.Error(err))
		return nil
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lines(result)
}

// CommandContext describes a ::command typed by a player.
type CommandContext struct {
	Name    string
	Rights  int
	Command string
	Args    []string
	X, Y    int
	Plane   int
}

// CommandResult is what on_command asked the server to do.
type CommandResult struct {
	Handled  bool
	Messages []string
	Teleport *Location
}

// Location is a tile a script asked to move the player to.
type Location struct {
	X, Y, Plane int
}

// OnCommand calls on_command. A nil or false return means no script
// handled the command.
func (e *Engine) OnCommand(ctx CommandContext) CommandResult {
	fn := e.vm.GetGlobal("on_command")
	if fn == lua.LNil {
		return CommandResult{}
	}

	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ctx.Name))
	t.RawSetString("rights", lua.LNumber(ctx.Rights))
	t.RawSetString("command", lua.LString(ctx.Command))
	args := e.vm.NewTable()
	for _, a := range ctx.Args {
		args.Append(lua.LString(a))
	}
	t.RawSetString("args", args)
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("plane", lua.LNumber(ctx.Plane))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua on_command error", zap.String("command", ctx.Command), zap.Error(err))
		return CommandResult{}
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	switch v := result.(type) {
	case *lua.LTable:
		res := CommandResult{Handled: true, Messages: lines(v.RawGetString("messages"))}
		if tp, ok := v.RawGetString("teleport").(*lua.LTable); ok {
			res.Teleport = &Location{X: lInt(tp, "x"), Y: lInt(tp, "y"), Plane: lInt(tp, "plane")}
		}
		return res
	case lua.LString:
		return CommandResult{Handled: true, Messages: []string{string(v)}}
	case lua.LBool:
		return CommandResult{Handled: bool(v)}
	}
	return CommandResult{}
}

// --- Lua helpers ---

// lines flattens a string or an array of strings.
func lines(v lua.LValue) []string {
	switch v := v.(type) {
	case lua.LString:
		return []string{string(v)}
	case *lua.LTable:
		out := make([]string, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			out = append(out, lua.LVAsString(v.RawGetInt(i)))
		}
		return out
	}
	return nil
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
