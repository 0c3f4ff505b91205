package switchstr

import (
	"errors"
	"sync"
	"testing"
)

var hl7Cases = []string{"ERR", "MSH", "OBR", "PID"}

func TestSiteResolveListed(t *testing.T) {
	s := NewSite(hl7Cases...)
	for k, c := range hl7Cases {
		if got := s.Resolve(c); got != k {
			t.Errorf("Resolve(%q) = %d, want %d", c, got, k)
		}
	}
}

func TestSiteResolveUnlisted(t *testing.T) {
	s := NewSite(hl7Cases...)
	tests := []string{"PV1", "", "msh", "MSH ", "ERRX"}
	for _, subject := range tests {
		t.Run(subject, func(t *testing.T) {
			if got := s.Resolve(subject); got != s.Sentinel() {
				t.Errorf("Resolve(%q) = %d, want sentinel %d", subject, got, s.Sentinel())
			}
			if _, ok := s.Lookup(subject); ok {
				t.Errorf("Lookup(%q) matched", subject)
			}
		})
	}
	if s.Sentinel() != 4 {
		t.Errorf("Sentinel() = %d, want 4", s.Sentinel())
	}
}

func TestSiteEmptyCaseSet(t *testing.T) {
	s := NewSite()
	if got := s.Resolve(""); got != 0 {
		t.Errorf("Resolve on empty set = %d, want 0", got)
	}
	if s.Registry().Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Registry().Len())
	}
}

func TestSiteBuildsOnce(t *testing.T) {
	s := NewSite(hl7Cases...)
	if s.Builds() != 0 {
		t.Fatalf("Builds before first use = %d, want 0", s.Builds())
	}

	first := s.Resolve("MSH")
	if s.Builds() != 1 {
		t.Fatalf("Builds after first use = %d, want 1", s.Builds())
	}
	second := s.Resolve("MSH")
	if first != second {
		t.Errorf("Resolve not stable: %d then %d", first, second)
	}
	s.Lookup("PID")
	s.Resolve("nope")
	if s.Builds() != 1 {
		t.Errorf("Builds after reuse = %d, want 1", s.Builds())
	}
}

func TestSiteConcurrentFirstUse(t *testing.T) {
	s := NewSite(hl7Cases...)

	const workers = 32
	var wg sync.WaitGroup
	results := make([]int, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = s.Resolve(hl7Cases[i%len(hl7Cases)])
		}(i)
	}
	close(start)
	wg.Wait()

	for i, got := range results {
		if want := i % len(hl7Cases); got != want {
			t.Errorf("worker %d: Resolve = %d, want %d", i, got, want)
		}
	}
	if s.Builds() != 1 {
		t.Errorf("Builds = %d, want 1", s.Builds())
	}
}

func TestSiteCase(t *testing.T) {
	s := NewSite(hl7Cases...)
	if got := s.Case("OBR"); got != 2 {
		t.Errorf("Case(OBR) = %d, want 2", got)
	}
	// Case validates against the registry, it never builds the map.
	if s.Builds() != 0 {
		t.Errorf("Case built the lookup map")
	}
}

func TestSiteCaseUnlistedPanics(t *testing.T) {
	s := NewSite(hl7Cases...)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("recovered %v, want error", r)
		}
		if !errors.Is(err, ErrUnlistedCase) {
			t.Errorf("error %v is not ErrUnlistedCase", err)
		}
		if err.Error() != `unlisted case "PV1"` {
			t.Errorf("message = %q", err.Error())
		}
	}()
	s.Case("PV1")
}

func TestNewSiteRepetitivePanics(t *testing.T) {
	defer func() {
		r := recover()
		var ce *CaseError
		err, _ := r.(error)
		if !errors.As(err, &ce) {
			t.Fatalf("recovered %v, want *CaseError", r)
		}
		if !errors.Is(err, ErrRepetitiveCase) {
			t.Errorf("error %v is not ErrRepetitiveCase", err)
		}
		if ce.Label != "PID" || ce.Previous != 1 || ce.Position != 3 {
			t.Errorf("CaseError = %+v", ce)
		}
	}()
	NewSite("ERR", "PID", "OBR", "PID")
}

func TestCaseSentinelNeverMatchesCase(t *testing.T) {
	s := NewSite(hl7Cases...)
	for _, c := range hl7Cases {
		if s.Case(c) == s.Sentinel() {
			t.Errorf("Case(%q) equals the sentinel", c)
		}
	}
}

func BenchmarkSiteResolve(b *testing.B) {
	s := NewSite(hl7Cases...)
	s.Resolve("")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Resolve(hl7Cases[i%len(hl7Cases)])
	}
}
