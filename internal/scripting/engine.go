package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for agent scripting.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under scriptsDir/agent.
// A missing directory is not an error; the engine then has no functions and
// every call falls back.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "agent")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load agent scripts: %w", err)
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

// LoadString runs a chunk of Lua source in the engine's VM.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// Has reports whether a global Lua function with the given name exists.
func (e *Engine) Has(name string) bool {
	return e.vm.GetGlobal(name).Type() == lua.LTFunction
}

// AgentLineContext is handed to the Lua agent_line function.
type AgentLineContext struct {
	Cue   string   // "spotted", "lost" or "wander"
	Mode  string   // mode after the transition
	Last  string   // previous utterance, may be empty
	Lines []string // candidate lines from the data table
	Roll  float64  // uniform [0,1) supplied by the caller
}

// AgentLine calls agent_line(ctx). ok is false when the function is missing,
// fails, or returns nil; an empty string with ok true means stay silent.
func (e *Engine) AgentLine(ctx AgentLineContext) (line string, ok bool) {
	fn := e.vm.GetGlobal("agent_line")
	if fn == lua.LNil {
		return "", false
	}

	t := e.vm.NewTable()
	t.RawSetString("cue", lua.LString(ctx.Cue))
	t.RawSetString("mode", lua.LString(ctx.Mode))
	t.RawSetString("last", lua.LString(ctx.Last))
	t.RawSetString("roll", lua.LNumber(ctx.Roll))
	lines := e.vm.NewTable()
	for _, l := range ctx.Lines {
		lines.Append(lua.LString(l))
	}
	t.RawSetString("lines", lines)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua agent_line error", zap.Error(err))
		return "", false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	switch v := result.(type) {
	case lua.LString:
		return string(v), true
	case *lua.LNilType:
		return "", false
	default:
		e.log.Warn("lua agent_line returned non-string", zap.String("type", result.Type().String()))
		return "", false
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
