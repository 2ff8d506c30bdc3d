// Package transition provides the qualitative transition engine:
// ternary condition evaluation, effect application, branch generation
// over partial knowledge, and dependency enforcement.
package transition

// Truth is a three-valued logic outcome. A condition over a snapshot
// with candidate sets is unknown when some candidates satisfy it and
// others do not.
type Truth string

// Truth values.
const (
	True    Truth = "true"
	False   Truth = "false"
	Unknown Truth = "unknown"
)

// And is Kleene conjunction.
func (t Truth) And(o Truth) Truth {
	switch {
	case t == False || o == False:
		return False
	case t == True && o == True:
		return True
	default:
		return Unknown
	}
}

// Or is Kleene disjunction.
func (t Truth) Or(o Truth) Truth {
	switch {
	case t == True || o == True:
		return True
	case t == False && o == False:
		return False
	default:
		return Unknown
	}
}

// Not is Kleene negation.
func (t Truth) Not() Truth {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// String returns the string representation of the truth value.
func (t Truth) String() string {
	return string(t)
}
