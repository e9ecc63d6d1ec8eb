package dto

// MapAll applies fn to every item. The result is never nil, so empty
// collections encode as [] rather than null.
func MapAll[T, D any](items []T, fn func(T) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
