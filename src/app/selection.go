package app

// SelectionLimit is the number of images compared side by side.
const SelectionLimit = 2

// Selection is the ordered set of picked image ids. The first id is shown on
// the left of the comparison slider, the second on the right.
type Selection struct {
	ids []string
}

// Toggle removes id when it is already selected, appends it when there is
// room, and otherwise leaves the selection untouched.
func (s *Selection) Toggle(id string) []string {
	if i := s.position(id); i >= 0 {
		s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
		return s.IDs()
	}
	if len(s.ids) >= SelectionLimit {
		return s.IDs()
	}
	s.ids = append(s.ids, id)
	return s.IDs()
}

func (s *Selection) Clear() []string {
	s.ids = nil
	return s.IDs()
}

// Drop removes id if present. Used when the image itself is deleted.
func (s *Selection) Drop(id string) bool {
	i := s.position(id)
	if i < 0 {
		return false
	}
	s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
	return true
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Index returns the 1-based display position of id, or 0 when unselected.
func (s *Selection) Index(id string) int {
	return s.position(id) + 1
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// Ready reports whether the comparison pair is complete.
func (s *Selection) Ready() bool {
	return len(s.ids) == SelectionLimit
}

// Saturated reports whether further adds would be rejected.
func (s *Selection) Saturated() bool {
	return len(s.ids) >= SelectionLimit
}

func (s *Selection) position(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}
