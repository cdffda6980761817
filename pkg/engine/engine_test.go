package engine_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokaycavdar/go-urlguard/pkg/engine"
	"github.com/gokaycavdar/go-urlguard/pkg/models"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
)

func TestEvaluate_Scenarios(t *testing.T) {
	guard := engine.NewDefault()

	tests := []struct {
		name        string
		url         string
		score       int
		probability int
		verdict     models.Verdict
		signals     []string
	}{
		{
			name:    "clean https link",
			url:     "https://example.com/",
			verdict: models.Safe,
			signals: []string{},
		},
		{
			name:        "shortener",
			url:         "https://bit.ly/xYz123",
			score:       20,
			probability: 18,
			verdict:     models.Safe,
			signals:     []string{rules.SignalKnownShortener},
		},
		{
			name:        "executable on raw ip over http",
			url:         "http://192.168.1.1/malware/payload.exe",
			score:       95,
			probability: 88,
			verdict:     models.HighDanger,
			signals: []string{
				rules.SignalInsecureScheme,
				rules.SignalRawIPHost,
				rules.SignalMaliciousPathKeyword,
				rules.SignalBadFileExtension,
			},
		},
		{
			name:        "long benign link",
			url:         "https://example.com/" + strings.Repeat("a", 180),
			score:       12,
			probability: 11,
			verdict:     models.Safe,
			signals:     []string{rules.SignalExcessiveLengthSevere},
		},
		{
			name:        "moderate length band only",
			url:         "https://example.com/" + strings.Repeat("a", 110),
			score:       7,
			probability: 6,
			verdict:     models.Safe,
			signals:     []string{rules.SignalExcessiveLengthModerate},
		},
		{
			name:        "insecure shortener on suspicious port",
			url:         "http://bit.ly:8080/x",
			score:       50,
			probability: 46,
			verdict:     models.Suspicious,
			signals: []string{
				rules.SignalInsecureScheme,
				rules.SignalSuspiciousPort,
				rules.SignalKnownShortener,
			},
		},
		{
			name:        "credentials in query",
			url:         "https://example.com/login?session=abc&email=a",
			score:       18,
			probability: 16,
			verdict:     models.Safe,
			signals:     []string{rules.SignalSuspiciousQueryParam},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := guard.Evaluate(tt.url)
			assert.False(t, r.Unparsable)
			assert.Equal(t, tt.score, r.Score)
			assert.Equal(t, tt.probability, r.Probability)
			assert.Equal(t, tt.verdict, r.Verdict)
			assert.Equal(t, tt.signals, r.TriggeredSignals)
			require.Len(t, r.Violations, len(tt.signals))
		})
	}
}

func TestEvaluate_ViolationsMatchSignals(t *testing.T) {
	r := engine.NewDefault().Evaluate("http://192.168.1.1/malware/payload.exe")

	total := 0
	for i, v := range r.Violations {
		assert.Equal(t, r.TriggeredSignals[i], v.RuleName)
		assert.NotEmpty(t, v.Reason)
		total += v.RiskScore
	}
	assert.Equal(t, r.Score, total)
}

func TestEvaluate_ScoreIsClamped(t *testing.T) {
	// InsecureScheme + TestMalwareToken + RareTld + SuspiciousPort +
	// MaliciousPathKeyword + BadFileExtension = 139.
	r := engine.NewDefault().Evaluate("http://eicar.tk:8080/malware.exe")

	assert.Equal(t, engine.MaxScore, r.Score)
	assert.Equal(t, 93, r.Probability)
	assert.Equal(t, models.HighDanger, r.Verdict)
	assert.Contains(t, r.TriggeredSignals, rules.SignalTestMalwareToken)
	assert.Contains(t, r.TriggeredSignals, rules.SignalRareTLD)
}

func TestEvaluate_ParseFailure(t *testing.T) {
	r := engine.NewDefault().Evaluate("http://[::1/bad")

	assert.True(t, r.Unparsable)
	assert.Equal(t, engine.ParseFailureScore, r.Score)
	assert.Equal(t, 88, r.Probability)
	assert.Equal(t, models.HighDanger, r.Verdict)
	assert.Equal(t, []string{models.ParseFailureSignal}, r.TriggeredSignals)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, engine.ParseFailureScore, r.Violations[0].RiskScore)
	assert.NotEmpty(t, r.ParseError)
	assert.Contains(t, r.Violations[0].Reason, r.ParseError)
}

func TestEvaluate_TiersAreExclusive(t *testing.T) {
	guard := engine.NewDefault()

	for _, n := range []int{121, 150, 180, 181, 500} {
		url := "https://example.com/" + strings.Repeat("a", n-len("https://example.com/"))
		r := guard.Evaluate(url)

		hits := 0
		for _, s := range r.TriggeredSignals {
			if s == rules.SignalExcessiveLengthSevere || s == rules.SignalExcessiveLengthModerate {
				hits++
			}
		}
		assert.Equal(t, 1, hits, "length %d", n)
	}
}

func TestEvaluate_Bounds(t *testing.T) {
	guard := engine.NewDefault()

	inputs := []string{
		"",
		"   ",
		"://",
		"http://",
		"%%%",
		"\x00\x01",
		"javascript:alert(1)",
		"http://[",
		"http://a:99999",
		"https://xn--80ak6aa92e.com/",
		"http://user@pаypal.tk:8888/download/setup.exe?redirect=%2520&token=x#../..",
		strings.Repeat("@%41..\\", 200),
	}

	for _, raw := range inputs {
		r := guard.Evaluate(raw)
		assert.GreaterOrEqual(t, r.Score, 0, "%q", raw)
		assert.LessOrEqual(t, r.Score, engine.MaxScore, "%q", raw)
		assert.LessOrEqual(t, r.Probability, r.Score, "%q", raw)
		assert.Equal(t, r.Score*93/100, r.Probability, "%q", raw)
		assert.Equal(t, models.VerdictFromScore(r.Score), r.Verdict, "%q", raw)
		assert.Len(t, r.Violations, len(r.TriggeredSignals), "%q", raw)
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	guard := engine.NewDefault()

	pairs := []struct {
		base, extended string
	}{
		{"https://example.com/", "https://user@example.com/"},
		{"https://example.com/a", "http://example.com/a"},
		{"https://example.com/file", "https://example.com/file.exe"},
		{"https://example.com/", "https://example.com:8080/"},
		{"https://example.com/?q=1", "https://example.com/?q=1&token=abc"},
	}

	for _, p := range pairs {
		base := guard.Evaluate(p.base)
		ext := guard.Evaluate(p.extended)
		assert.Greater(t, ext.Score, base.Score, "%s -> %s", p.base, p.extended)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	guard := engine.NewDefault()
	urls := []string{
		"https://example.com/",
		"http://192.168.1.1/malware/payload.exe",
		"https://pаypal.com/login?session=abc",
		"http://[::1/bad",
	}

	want := make([]models.ScoreResult, len(urls))
	for i, u := range urls {
		want[i] = guard.Evaluate(u)
	}

	var wg sync.WaitGroup
	results := make([][]models.ScoreResult, 8)
	for w := range results {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, u := range urls {
				results[w] = append(results[w], guard.Evaluate(u))
			}
		}(w)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestEvaluate_ZeroWeightSignalIsReported(t *testing.T) {
	c := rules.Default()
	c.Weights[rules.SignalKnownShortener] = 0

	r := engine.New(engine.WithCatalog(c)).Evaluate("https://bit.ly/xYz123")
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, models.Safe, r.Verdict)
	assert.Equal(t, []string{rules.SignalKnownShortener}, r.TriggeredSignals)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, 0, r.Violations[0].RiskScore)
}

func TestEvaluate_CaseSensitiveMarkers(t *testing.T) {
	guard := engine.NewDefault()

	tests := []struct {
		url     string
		score   int
		signals []string
	}{
		{"http://example.com/", 15, []string{rules.SignalInsecureScheme}},
		{"HTTP://example.com/", 0, []string{}},
		{"javascript:alert(1)", 16, []string{rules.SignalEmbeddedScript}},
		{"JAVASCRIPT:ALERT(1)", 0, []string{}},
		{"https://example.com/setup.EXE", 30, []string{rules.SignalBadFileExtension}},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := guard.Evaluate(tt.url)
			assert.Equal(t, tt.score, r.Score)
			assert.Equal(t, tt.signals, r.TriggeredSignals)
		})
	}
}

func TestEvaluate_AuthorityParseFailures(t *testing.T) {
	guard := engine.NewDefault()

	for _, raw := range []string{
		"http://a／b.com/",
		"http://evil.com＃@good.com/",
		"http://[bad]@host/",
	} {
		r := guard.Evaluate(raw)
		assert.True(t, r.Unparsable, raw)
		assert.Equal(t, engine.ParseFailureScore, r.Score, raw)
		assert.Equal(t, []string{models.ParseFailureSignal}, r.TriggeredSignals, raw)
	}

	r := guard.Evaluate("http://a[::1]/")
	assert.False(t, r.Unparsable)
	assert.NotContains(t, r.TriggeredSignals, models.ParseFailureSignal)
	assert.Contains(t, r.TriggeredSignals, rules.SignalInsecureScheme)
}

type staticRule struct {
	name  string
	score int
	hit   bool
}

func (r staticRule) Name() string                  { return r.name }
func (r staticRule) Description() string           { return "static test rule" }
func (r staticRule) Weight() int                   { return r.score }
func (r staticRule) Triggered(in rules.Input) bool { return r.hit }

func TestAddRule_CustomRulesInOrder(t *testing.T) {
	guard := engine.New()
	assert.Empty(t, guard.Rules())
	assert.Empty(t, guard.CatalogVersion())

	guard.AddRule(staticRule{name: "Second", score: 30, hit: true})
	guard.AddRule(staticRule{name: "First", score: 45, hit: true})
	guard.AddRule(staticRule{name: "Silent", score: 50})
	guard.AddRule(staticRule{name: "Weightless", hit: true})

	r := guard.Evaluate("https://example.com/")
	assert.Equal(t, []string{"Second", "First", "Weightless"}, r.TriggeredSignals)
	assert.Equal(t, 75, r.Score)
	assert.Equal(t, models.Risky, r.Verdict)
}

func TestRules_ReturnsCopy(t *testing.T) {
	guard := engine.NewDefault()
	rs := guard.Rules()
	rs[0] = staticRule{name: "Replaced", score: 100}

	assert.Equal(t, rules.SignalInsecureScheme, guard.Rules()[0].Name())
	assert.Equal(t, rules.DefaultVersion, guard.CatalogVersion())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score       int
		probability int
		verdict     models.Verdict
	}{
		{-5, 0, models.Safe},
		{0, 0, models.Safe},
		{1, 0, models.Safe},
		{12, 11, models.Safe},
		{20, 18, models.Safe},
		{21, 19, models.LowRisk},
		{40, 37, models.LowRisk},
		{41, 38, models.Suspicious},
		{60, 55, models.Suspicious},
		{61, 56, models.Risky},
		{80, 74, models.Risky},
		{81, 75, models.HighDanger},
		{95, 88, models.HighDanger},
		{100, 93, models.HighDanger},
		{150, 93, models.HighDanger},
	}

	for _, tt := range tests {
		probability, verdict := engine.Classify(tt.score)
		assert.Equal(t, tt.probability, probability, "score %d", tt.score)
		assert.Equal(t, tt.verdict, verdict, "score %d", tt.score)
	}
}
