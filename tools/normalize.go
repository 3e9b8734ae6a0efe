package tools

import (
	"sync"

	"github.com/BaSui01/contextbench/store"
)

// shippingArgForms maps shipping argument names to the key form the
// shipping store looks them up by.
var shippingArgForms = map[string]func(string) string{
	"order_id": store.NormalizeOrderID,
	"email":    store.NormalizeEmail,
	"carrier":  store.NormalizeCarrier,
	"date":     store.ResolveDate,
}

var shippingToolNames = sync.OnceValue(func() map[string]bool {
	names := make(map[string]bool)
	for _, register := range []func(*Registry){registerShipping, registerShippingConsolidated} {
		r := NewRegistry(nil)
		register(r)
		for _, n := range r.Names() {
			names[n] = true
		}
	}
	return names
})

// NormalizeArg returns the value a tool actually resolves an argument to,
// so spellings the tool treats alike compare equal: "#23456" and "23456"
// name the same order and "today" is the fixture date. Arguments of other
// tools are returned unchanged. It satisfies trajectory.ArgNormalizer.
func NormalizeArg(tool, key string, v any) any {
	s, ok := v.(string)
	if !ok || !shippingToolNames()[tool] {
		return v
	}
	if form, ok := shippingArgForms[key]; ok {
		return form(s)
	}
	return v
}
