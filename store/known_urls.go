package store

// KnownUrlSet is the run scoped set of normalized urls already stored. It is
// loaded once when a run starts and grows as the run ingests new items.
type KnownUrlSet struct {
	urls map[string]struct{}
}

func NewKnownUrlSet(urls ...string) *KnownUrlSet {
	s := &KnownUrlSet{urls: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

func (s *KnownUrlSet) Contains(url string) bool {
	_, ok := s.urls[url]
	return ok
}

func (s *KnownUrlSet) Add(url string) {
	s.urls[url] = struct{}{}
}

func (s *KnownUrlSet) Len() int {
	return len(s.urls)
}
