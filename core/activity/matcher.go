package activity

// Matches reports whether an attempted pictogram sequence reproduces the
// solution. The comparison is positional and walks the solution's length only:
// every solution position must be present and equal in the attempt, while
// trailing extra elements in the attempt are ignored. Shape validation
// (bounds, positivity, uniqueness) happens before this runs; the matcher
// itself asserts nothing about the attempt's length.
func Matches(attempt, solution []int) bool {
	for i, want := range solution {
		if i >= len(attempt) || attempt[i] != want {
			return false
		}
	}
	return true
}
