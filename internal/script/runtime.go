package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/jobboard/tracker/internal/controller"
	"github.com/jobboard/tracker/internal/tracker"
	"github.com/jobboard/tracker/internal/view"
)

type Result struct {
	Output string
	Final  view.Page
}

// Runtime drives a controller from Lua. Each Execute gets a fresh state.
type Runtime struct {
	ctrl *controller.Controller
}

func NewRuntime(ctrl *controller.Controller) *Runtime {
	return &Runtime{ctrl: ctrl}
}

func (r *Runtime) Execute(ctx context.Context, code string, timeout time.Duration) (*Result, error) {
	L := lua.NewState()
	defer L.Close()

	// Capture stdout
	var output strings.Builder
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			if i > 1 {
				output.WriteString("\t")
			}
			output.WriteString(L.ToStringMeta(L.Get(i)).String())
		}
		output.WriteString("\n")
		return 0
	}))

	L.SetGlobal("filter", L.NewFunction(r.luaFilter))
	L.SetGlobal("toggle", L.NewFunction(r.luaToggle))
	L.SetGlobal("delete", L.NewFunction(r.luaDelete))
	L.SetGlobal("view", L.NewFunction(r.luaView))

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	L.SetContext(ctx)

	if err := L.DoString(code); err != nil {
		return nil, err
	}

	// Get return value if any
	ret := L.Get(-1)
	if ret != lua.LNil {
		output.WriteString(luaToString(ret))
	}

	final, err := r.ctrl.View()
	if err != nil {
		return nil, fmt.Errorf("final view: %w", err)
	}
	return &Result{Output: output.String(), Final: final}, nil
}

func (r *Runtime) luaFilter(L *lua.LState) int {
	f, err := tracker.ParseFilter(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	page, err := r.ctrl.SelectTab(f)
	return r.pushView(L, page, err)
}

func (r *Runtime) luaToggle(L *lua.LState) int {
	id := L.CheckInt(1)
	status, err := tracker.ParseToggle(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
		return 0
	}
	page, err := r.ctrl.Toggle(id, status)
	return r.pushView(L, page, err)
}

func (r *Runtime) luaDelete(L *lua.LState) int {
	page, err := r.ctrl.Delete(L.CheckInt(1))
	return r.pushView(L, page, err)
}

func (r *Runtime) luaView(L *lua.LState) int {
	page, err := r.ctrl.View()
	return r.pushView(L, page, err)
}

func (r *Runtime) pushView(L *lua.LState, page view.Page, err error) int {
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(pageToTable(L, page))
	return 1
}

// pageToTable exposes the counters and the visible ids in display order.
func pageToTable(L *lua.LState, page view.Page) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "total", lua.LNumber(page.Dashboard.Total))
	L.SetField(t, "interviewing", lua.LNumber(page.Dashboard.Interviewing))
	L.SetField(t, "rejected", lua.LNumber(page.Dashboard.Rejected))
	L.SetField(t, "shown", lua.LNumber(page.TabCount))
	L.SetField(t, "filter", lua.LString(page.Filter))

	ids := L.NewTable()
	for _, c := range page.Cards {
		ids.Append(lua.LNumber(c.ID))
	}
	L.SetField(t, "ids", ids)
	return t
}

func luaToString(v lua.LValue) string {
	switch val := v.(type) {
	case lua.LNumber:
		n := float64(val)
		if n == float64(int(n)) {
			return fmt.Sprintf("%d", int(n))
		}
		return fmt.Sprintf("%g", n)
	case lua.LString:
		return string(val)
	case lua.LBool:
		return fmt.Sprintf("%t", bool(val))
	case *lua.LTable:
		b, _ := json.Marshal(luaToGo(val))
		return string(b)
	default:
		return ""
	}
}

// luaToGo turns sequences into slices so ids survive as JSON arrays.
func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		if n := val.Len(); n > 0 {
			s := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				s = append(s, luaToGo(val.RawGetInt(i)))
			}
			return s
		}
		m := make(map[string]any)
		val.ForEach(func(k, v lua.LValue) {
			m[k.String()] = luaToGo(v)
		})
		return m
	default:
		return nil
	}
}
