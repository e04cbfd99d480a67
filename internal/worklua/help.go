package worklua

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// stringify renders a Lua value for the log; table keys come out sorted.
func stringify(v lua.LValue) string {
	return format(v, make(map[*lua.LTable]bool))
}

func format(value lua.LValue, visited map[*lua.LTable]bool) string {
	switch v := value.(type) {
	case *lua.LNilType:
		return "nil"
	case lua.LBool, lua.LNumber:
		return v.String()
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return "?nested"
		}
		visited[v] = true
		var xs []string
		v.ForEach(func(key, value lua.LValue) {
			xs = append(xs, fmt.Sprintf("%s=%s", format(key, visited), format(value, visited)))
		})
		sort.Strings(xs)
		return "{" + strings.Join(xs, " ") + "}"
	default:
		return value.Type().String()
	}
}
