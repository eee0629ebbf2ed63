package index

// IDSet is a plain set of identifiers.
type IDSet map[string]struct{}

// NewIDSet returns an empty set.
func NewIDSet() IDSet { return make(IDSet) }

func (s IDSet) Add(id string)           { s[id] = struct{}{} }
func (s IDSet) Contains(id string) bool { _, ok := s[id]; return ok }
func (s IDSet) Len() int                { return len(s) }

// Take removes id and reports whether it was present.
func (s IDSet) Take(id string) bool {
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	return true
}
