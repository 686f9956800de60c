package exactode

import "errors"

// ErrNotExact reports a pair that was expected to be exact but whose g'(y)
// still depends on x.
var ErrNotExact = errors.New("equation is not exact")
