package health

// ReadyChecker reports whether a dependency can serve requests.
type ReadyChecker interface {
	Ready() bool
}

// ConfiguredChecker reports whether a dependency has its credentials.
type ConfiguredChecker interface {
	Configured() bool
}

// Status is the body of the health endpoint.
type Status struct {
	OK                   bool `json:"ok"`
	TaggerReady          bool `json:"tagger_ready"`
	SummarizerConfigured bool `json:"summarizer_configured"`
}

// Service encapsulates health-related checks.
type Service struct {
	tagger     ReadyChecker
	summarizer ConfiguredChecker
}

// NewService constructs a new health service. Either checker may be nil.
func NewService(tagger ReadyChecker, summarizer ConfiguredChecker) *Service {
	return &Service{tagger: tagger, summarizer: summarizer}
}

// Status reports liveness plus the state of the inference dependencies.
func (s *Service) Status() Status {
	st := Status{OK: true}
	if s == nil {
		return st
	}
	if s.tagger != nil {
		st.TaggerReady = s.tagger.Ready()
	}
	if s.summarizer != nil {
		st.SummarizerConfigured = s.summarizer.Configured()
	}
	return st
}
