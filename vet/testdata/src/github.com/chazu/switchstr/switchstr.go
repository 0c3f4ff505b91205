package switchstr

func On(subject string, cases ...string) string { return subject }

type Site struct{ cases []string }

func NewSite(cases ...string) *Site { return &Site{cases: cases} }

func (s *Site) Resolve(subject string) int { return len(s.cases) }
