package store

// Today is the frozen calendar date every scenario runs against.
const Today = "2025-12-15"

// ResolveDate maps the "today" alias to Today and returns other values unchanged.
func ResolveDate(date string) string {
	if date == "" || date == "today" {
		return Today
	}
	return date
}

// Stores bundles the three namespaces for one process.
type Stores struct {
	Shipping *Shipping
	Research *Research
	Finance  *Finance
}

// New builds all stores with the given filler seed.
func New(seed int64) *Stores {
	return &Stores{
		Shipping: NewShipping(seed),
		Research: NewResearch(),
		Finance:  NewFinance(),
	}
}
