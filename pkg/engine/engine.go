package engine

import (
	"log/slog"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
	"github.com/gokaycavdar/go-urlguard/pkg/parser"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
)

// ParseFailureScore is the fixed score assigned to input that cannot be
// parsed. Unparsable input is treated as highly suspicious rather than
// surfaced as an error.
const ParseFailureScore = 95

// MaxScore is the ceiling applied to the summed signal weights.
const MaxScore = 100

// URLGuard is the URL risk-scoring engine.
//
// Architecture Principles:
//   - Engine is rule-agnostic: no type-switching on concrete rule types
//   - Pure: the result depends only on the input string and the rule set
//   - Explainable: each triggered rule contributes an itemized Violation
//   - Extensible: custom rules implement Rule or TieredRule
//
// The engine detects TieredRule via type assertion and reports the band
// name instead of the rule name, so mutually exclusive tiers never
// double-count.
//
// A URLGuard holds no mutable state after construction. Evaluate is safe
// for concurrent use as long as AddRule is not called concurrently.
//
// Usage:
//
//	guard := engine.New(engine.WithCatalog(rules.Default()))
//	result := guard.Evaluate("http://192.168.1.1/malware/payload.exe")
type URLGuard struct {
	rules   []rules.Rule
	version string
	logger  *slog.Logger
}

// Option configures a URLGuard.
type Option func(*URLGuard)

// WithCatalog loads the ordered rule list of c, replacing any rules added
// so far.
func WithCatalog(c *rules.Catalog) Option {
	return func(g *URLGuard) {
		g.rules = c.Rules()
		g.version = c.Version
	}
}

// WithLogger sets the logger used for parse-failure diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *URLGuard) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates an engine. Without options it evaluates no rules; use
// NewDefault for the built-in catalog.
func New(opts ...Option) *URLGuard {
	g := &URLGuard{
		rules:  make([]rules.Rule, 0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewDefault creates an engine with the built-in catalog.
func NewDefault(opts ...Option) *URLGuard {
	return New(append([]Option{WithCatalog(rules.Default())}, opts...)...)
}

// AddRule appends a rule. Rules are evaluated in the order they are added.
func (g *URLGuard) AddRule(r rules.Rule) {
	g.rules = append(g.rules, r)
}

// Rules returns the rules in evaluation order.
func (g *URLGuard) Rules() []rules.Rule {
	out := make([]rules.Rule, len(g.rules))
	copy(out, g.rules)
	return out
}

// CatalogVersion returns the version of the catalog the engine was built
// from, or "" for hand-assembled rule sets.
func (g *URLGuard) CatalogVersion() string {
	return g.version
}

// Evaluate scores raw. It never fails: unparsable input yields the
// ParseFailureScore sentinel result with Unparsable set.
func (g *URLGuard) Evaluate(raw string) models.ScoreResult {
	parsed, err := parser.Parse(raw)
	if err != nil {
		return g.parseFailure(raw, err)
	}

	in := rules.Input{Raw: raw, URL: parsed}
	result := models.ScoreResult{
		TriggeredSignals: make([]string, 0),
		Violations:       make([]models.Violation, 0),
	}

	// Every rule runs; no short-circuit.
	total := 0
	for _, rule := range g.rules {
		name, score := rule.Name(), rule.Weight()

		if tiered, ok := rule.(rules.TieredRule); ok {
			band, hit := tiered.ValidateTier(in)
			if !hit {
				continue
			}
			name, score = band.Name, band.Score
		} else if !rule.Triggered(in) {
			continue
		}

		total += score
		result.TriggeredSignals = append(result.TriggeredSignals, name)
		result.Violations = append(result.Violations, models.Violation{
			RuleName:  name,
			RiskScore: score,
			Reason:    rule.Description(),
		})
	}

	result.Score = clamp(total)
	result.Probability, result.Verdict = Classify(result.Score)
	return result
}

func (g *URLGuard) parseFailure(raw string, err error) models.ScoreResult {
	g.logger.Debug("url could not be parsed", "url", raw, "error", err)

	probability, verdict := Classify(ParseFailureScore)
	return models.ScoreResult{
		Score:            ParseFailureScore,
		Probability:      probability,
		Verdict:          verdict,
		TriggeredSignals: []string{models.ParseFailureSignal},
		Violations: []models.Violation{{
			RuleName:  models.ParseFailureSignal,
			RiskScore: ParseFailureScore,
			Reason:    "URL could not be parsed: " + err.Error(),
		}},
		Unparsable: true,
		ParseError: err.Error(),
	}
}

func clamp(score int) int {
	return min(max(score, 0), MaxScore)
}
