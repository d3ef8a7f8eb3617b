package args

// Values maps argument names to decoded values. Keys are the names exactly as
// declared in the schema.
type Values map[string]any

// Has reports whether name holds a non-nil value.
func (v Values) Has(name string) bool {
	x, ok := v[name]
	return ok && x != nil
}

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) int {
	n, _ := v[name].(int)
	return n
}

func (v Values) Float(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

func (v Values) Byte(name string) uint8 {
	b, _ := v[name].(uint8)
	return b
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) Enum(name string) EnumValue {
	e, _ := v[name].(EnumValue)
	return e
}

// Entity returns a resolved reference, or nil.
func (v Values) Entity(name string) Entity {
	e, _ := v[name].(Entity)
	return e
}

// Entities returns a resolved reference list.
func (v Values) Entities(name string) []Entity {
	e, _ := v[name].([]Entity)
	return e
}

// List returns a decoded non-reference list.
func (v Values) List(name string) []any {
	l, _ := v[name].([]any)
	return l
}
