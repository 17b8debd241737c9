package vm

// Fragment is a value produced by output-construction instructions: a
// string, an integer margin marker (0 = newline, nonzero = margin delta),
// or a nested list of fragments. render.Render flattens these into text.
type Fragment interface {
	isFragment()
}

// Str is a literal or captured text fragment.
type Str string

func (Str) isFragment() {}

// Marker is an indentation directive fragment: 0 means newline, a
// positive value increases the margin, a negative value decreases it.
type Marker int

func (Marker) isFragment() {}

// List is a nested sequence of fragments, produced when an output list
// could not be consolidated into a single Str (i.e. it held a Marker or
// a nested List alongside, or instead of, plain strings).
type List []Fragment

func (List) isFragment() {}

// consolidate folds an output list into a single RETVAL fragment: if
// every element is a Str, they're joined into one Str; otherwise the list
// survives as a List, verbatim.
func consolidate(output []Fragment) Fragment {
	allStr := true
	for _, f := range output {
		if _, ok := f.(Str); !ok {
			allStr = false
			break
		}
	}
	if !allStr {
		out := make(List, len(output))
		copy(out, output)
		return out
	}
	var s Str
	for _, f := range output {
		s += f.(Str)
	}
	return s
}
