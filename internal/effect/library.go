package effect

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// effectTypeName names the metatable of effect userdata.
const effectTypeName = "fx.effect"

// registerLibrary installs the fx table of effect constructors.
func registerLibrary(L *lua.LState) {
	mt := L.NewTypeMetatable(effectTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString("effect"))
		return 1
	}))

	fx := L.NewTable()
	L.SetFuncs(fx, map[string]lua.LGFunction{
		"fade_from_fg": luaFadeFromFg,
		"fade_to_fg":   luaFadeToFg,
		"fade_from":    luaFadeFrom,
		"fade_to":      luaFadeTo,
		"sweep_in":     luaSweepIn,
		"sweep_out":    luaSweepOut,
		"slide_in":     luaSlideIn,
		"dissolve":     luaDissolve,
		"coalesce":     luaCoalesce,
		"hsl_shift":    luaHSLShift,
		"sleep":        luaSleep,
		"sequence":     luaSequence,
		"parallel":     luaParallel,
		"repeat":       luaRepeat,
		"delay":        luaDelay,
	})
	L.SetGlobal("fx", fx)
}

func pushEffect(L *lua.LState, e Effect) int {
	ud := L.NewUserData()
	ud.Value = e
	L.SetMetatable(ud, L.GetTypeMetatable(effectTypeName))
	L.Push(ud)
	return 1
}

func checkEffect(L *lua.LState, n int) Effect {
	ud := L.CheckUserData(n)
	e, ok := ud.Value.(Effect)
	if !ok {
		L.ArgError(n, "effect expected")
		return nil
	}
	return e
}

// checkTimer accepts a duration in milliseconds or {ms, "interpolation"}.
func checkTimer(L *lua.LState, n int) Timer {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		if v < 0 {
			L.ArgError(n, "duration must not be negative")
		}
		return NewTimer(time.Duration(float64(v)*float64(time.Millisecond)), Linear)
	case *lua.LTable:
		ms, ok := v.RawGetInt(1).(lua.LNumber)
		if !ok || ms < 0 {
			L.ArgError(n, "timer table needs a non-negative duration")
		}
		interp := Interpolation(Linear)
		if name, ok := v.RawGetInt(2).(lua.LString); ok {
			fn, err := LookupInterpolation(string(name))
			if err != nil {
				L.ArgError(n, err.Error())
			}
			interp = fn
		}
		return NewTimer(time.Duration(float64(ms)*float64(time.Millisecond)), interp)
	default:
		L.ArgError(n, "timer expected (milliseconds or {ms, interpolation})")
		return Timer{}
	}
}

// checkColor accepts "#rrggbb", a color name, or a packed 0xRRGGBB number.
func checkColor(L *lua.LState, n int) core.Color {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		if v < 0 || v > 0xFFFFFF {
			L.ArgError(n, "packed color out of range")
		}
		return core.ColorFromPacked(uint32(v))
	case lua.LString:
		c, err := core.ParseColor(string(v))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return c
	default:
		L.ArgError(n, "color expected")
		return core.Color{}
	}
}

func checkDirection(L *lua.LState, n int) Direction {
	d, err := ParseDirection(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return d
}

// checkHSL accepts {h, s, l} or {h=, s=, l=}.
func checkHSL(L *lua.LState, n int) HSL {
	t := L.CheckTable(n)
	field := func(name string, idx int) float64 {
		v := t.RawGetString(name)
		if v == lua.LNil {
			v = t.RawGetInt(idx)
		}
		if num, ok := v.(lua.LNumber); ok {
			return float64(num)
		}
		return 0
	}
	return HSL{H: field("h", 1), S: field("s", 2), L: field("l", 3)}
}

func checkEffects(L *lua.LState) []Effect {
	top := L.GetTop()
	effects := make([]Effect, 0, top)
	for i := 1; i <= top; i++ {
		effects = append(effects, checkEffect(L, i))
	}
	return effects
}

func luaFadeFromFg(L *lua.LState) int {
	return pushEffect(L, FadeFromFg(checkColor(L, 1), checkTimer(L, 2)))
}

func luaFadeToFg(L *lua.LState) int {
	return pushEffect(L, FadeToFg(checkColor(L, 1), checkTimer(L, 2)))
}

func luaFadeFrom(L *lua.LState) int {
	return pushEffect(L, FadeFrom(checkColor(L, 1), checkColor(L, 2), checkTimer(L, 3)))
}

func luaFadeTo(L *lua.LState) int {
	return pushEffect(L, FadeTo(checkColor(L, 1), checkColor(L, 2), checkTimer(L, 3)))
}

func luaSweepIn(L *lua.LState) int {
	return pushEffect(L, SweepIn(checkDirection(L, 1), L.CheckInt(2), checkColor(L, 3), checkTimer(L, 4)))
}

func luaSweepOut(L *lua.LState) int {
	return pushEffect(L, SweepOut(checkDirection(L, 1), L.CheckInt(2), checkColor(L, 3), checkTimer(L, 4)))
}

func luaSlideIn(L *lua.LState) int {
	return pushEffect(L, SlideIn(checkDirection(L, 1), checkColor(L, 2), checkTimer(L, 3)))
}

func luaDissolve(L *lua.LState) int {
	return pushEffect(L, Dissolve(uint32(L.OptInt(2, 0)), checkTimer(L, 1)))
}

func luaCoalesce(L *lua.LState) int {
	return pushEffect(L, Coalesce(uint32(L.OptInt(2, 0)), checkTimer(L, 1)))
}

// luaHSLShift takes (fg, timer) or (fg, bg, timer).
func luaHSLShift(L *lua.LState) int {
	if L.GetTop() >= 3 {
		var bg HSL
		if L.Get(2) != lua.LNil {
			bg = checkHSL(L, 2)
		}
		return pushEffect(L, HSLShift(checkHSL(L, 1), bg, checkTimer(L, 3)))
	}
	return pushEffect(L, HSLShift(checkHSL(L, 1), HSL{}, checkTimer(L, 2)))
}

func luaSleep(L *lua.LState) int {
	return pushEffect(L, Sleep(checkTimer(L, 1)))
}

func luaSequence(L *lua.LState) int {
	return pushEffect(L, Sequence(checkEffects(L)...))
}

func luaParallel(L *lua.LState) int {
	return pushEffect(L, Parallel(checkEffects(L)...))
}

// luaRepeat takes (effect) to loop forever or (effect, times).
func luaRepeat(L *lua.LState) int {
	return pushEffect(L, Repeat(checkEffect(L, 1), L.OptInt(2, 0)))
}

func luaDelay(L *lua.LState) int {
	t := checkTimer(L, 1)
	return pushEffect(L, Delay(t.Duration(), checkEffect(L, 2)))
}
