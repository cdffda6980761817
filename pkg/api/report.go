package api

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/idna"

	"github.com/gokaycavdar/go-urlguard/pkg/geoip"
	"github.com/gokaycavdar/go-urlguard/pkg/models"
	"github.com/gokaycavdar/go-urlguard/pkg/parser"
)

// TimeLayout is the format of Report.GeneratedAt.
const TimeLayout = "2006-01-02 15:04:05"

// ErrEmptyURL is returned when the submitted URL is blank.
var ErrEmptyURL = errors.New("url must not be empty")

// Report is the presentation of one scan: the engine result plus case
// bookkeeping and optional host enrichment.
type Report struct {
	CaseID         string         `json:"case_id"`
	GeneratedAt    string         `json:"generated_at"`
	URL            string         `json:"url"`
	DisplayHost    string         `json:"display_host,omitempty"`
	Score          int            `json:"score"`
	Probability    int            `json:"probability"`
	Verdict        models.Verdict `json:"verdict"`
	VerdictLabel   string         `json:"verdict_label"`
	Class          string         `json:"class"`
	Signals        []SignalHit    `json:"signals"`
	Unparsable     bool           `json:"unparsable,omitempty"`
	ParseError     string         `json:"parse_error,omitempty"`
	HostGeo        *geoip.HostGeo `json:"host_geo,omitempty"`
	Cached         bool           `json:"cached"`
	CatalogVersion string         `json:"catalog_version,omitempty"`
}

// SignalHit is one triggered signal in a Report.
type SignalHit struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Reason string `json:"reason"`
}

// Locator resolves IP hosts to geographic data. *geoip.Service satisfies it.
type Locator interface {
	Lookup(host string) (*geoip.HostGeo, error)
}

// Scan evaluates raw and builds a Report. Surrounding whitespace is
// trimmed and the default scheme, if configured, is prepended to input
// without one (see parser.HasScheme).
func (s *Server) Scan(raw string) (*Report, error) {
	target := s.normalize(raw)
	if target == "" {
		return nil, ErrEmptyURL
	}

	result, cached := s.cache.Get(target)
	if !cached {
		result = s.guard.Evaluate(target)
		if err := s.cache.Put(target, result); err != nil {
			s.logger.Warn("cache put failed", "error", err)
		}
	}
	s.metrics.Observe(result, cached)

	report := &Report{
		CaseID:         newCaseID(),
		GeneratedAt:    s.now().Format(TimeLayout),
		URL:            target,
		Score:          result.Score,
		Probability:    result.Probability,
		Verdict:        result.Verdict,
		VerdictLabel:   result.Verdict.Label(),
		Class:          result.Verdict.Class(),
		Signals:        make([]SignalHit, 0, len(result.Violations)),
		Unparsable:     result.Unparsable,
		ParseError:     result.ParseError,
		Cached:         cached,
		CatalogVersion: s.guard.CatalogVersion(),
	}
	for _, v := range result.Violations {
		report.Signals = append(report.Signals, SignalHit{Name: v.RuleName, Weight: v.RiskScore, Reason: v.Reason})
	}

	if !result.Unparsable {
		s.enrichHost(report, target)
	}
	return report, nil
}

func (s *Server) normalize(raw string) string {
	target := strings.TrimSpace(raw)
	if target == "" || s.defaultScheme == "" || parser.HasScheme(target) {
		return target
	}
	if strings.HasPrefix(target, "//") {
		return s.defaultScheme + ":" + target
	}
	return s.defaultScheme + "://" + target
}

func (s *Server) enrichHost(report *Report, target string) {
	parsed, err := parser.Parse(target)
	if err != nil || parsed.Host == "" {
		return
	}

	if strings.Contains(parsed.Host, "xn--") {
		if display, err := idna.Display.ToUnicode(parsed.Host); err == nil {
			report.DisplayHost = display
		}
	}

	if s.geo == nil {
		return
	}
	geo, err := s.geo.Lookup(parsed.Host)
	if err != nil {
		if !errors.Is(err, geoip.ErrNotIP) {
			s.logger.Debug("geoip lookup failed", "host", parsed.Host, "error", err)
		}
		return
	}
	report.HostGeo = geo
}

// newCaseID returns 12 upper-case hex characters taken from a random UUID.
func newCaseID() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}
