package utils

func Clone[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}

	return append(S(nil), s...)
}

func FilterNonNil[T comparable](item T, _ int) bool {
	var empty T
	return item != empty
}
