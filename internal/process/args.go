package process

// Args are the validated, defaulted algorithm arguments of a run.
// Accessors return the zero value for a missing or mistyped name; the
// algorithm registry guarantees every declared parameter is present.
type Args map[string]any

func (a Args) Int(name string) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (a Args) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}
