package registry

// Args holds validated arguments keyed by declared field name.
// Values are normalized: numbers are float64, string arrays are []string.
type Args map[string]any

func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	value, _ := a[name].(string)
	return value
}

func (a Args) Number(name string) float64 {
	value, _ := a[name].(float64)
	return value
}

func (a Args) Bool(name string) bool {
	value, _ := a[name].(bool)
	return value
}

func (a Args) Strings(name string) []string {
	value, _ := a[name].([]string)
	return value
}

func (a Args) Object(name string) map[string]any {
	value, _ := a[name].(map[string]any)
	return value
}
