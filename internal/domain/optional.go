package domain

// Optional distinguishes a field that was omitted from a request from one that
// was sent, including sent as empty or null.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}
