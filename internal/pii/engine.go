package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
)

// Placeholders and digests produced by earlier passes must never be
// re-matched, so re-running the engine on anonymized text is a no-op.
var builtinPreservePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[A-Z_]+\]`),
	regexp.MustCompile(`\b[a-f0-9]{64}\b`),
}

// Engine detects and anonymizes PII spans according to an immutable
// policy. Deterministic for a given (text, policy) pair and safe for
// concurrent use.
type Engine struct {
	policy      Policy
	recognizers []*recognizer
	preserve    []*regexp.Regexp
	audit       zerolog.Logger
	logger      zerolog.Logger
}

// NewEngine compiles the policy into a ready engine. The audit logger
// receives one event per accepted finding when log_pii_findings is set.
func NewEngine(policy Policy, audit zerolog.Logger, logger zerolog.Logger) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	preserve := append([]*regexp.Regexp{}, builtinPreservePatterns...)
	if policy.PreserveStructure {
		for _, pattern := range policy.PreservePatterns {
			compiled, err := regexp.Compile(pattern)
			if err != nil {
				return nil, apperrors.NewConfigurationError("invalid preserve pattern "+pattern, err)
			}
			preserve = append(preserve, compiled)
		}
	}

	return &Engine{
		policy:      policy,
		recognizers: buildRecognizers(policy.EnabledEntities()),
		preserve:    preserve,
		audit:       audit,
		logger:      logger,
	}, nil
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Anonymize produces the anonymized text plus the accepted findings.
// A failing recognizer is skipped with a warning; the returned error is
// non-nil only when detection failed for the whole text, in which case
// the original text is returned untouched.
func (e *Engine) Anonymize(text string) (string, []Finding, error) {
	if !e.policy.Enabled || text == "" {
		return text, nil, nil
	}

	findings := e.detect(text)
	if len(findings) == 0 {
		return text, nil, nil
	}

	preserved := e.preservedSpans(text)
	accepted := resolveOverlaps(filterPreserved(findings, preserved))

	if e.policy.LogPIIFindings {
		for _, f := range accepted {
			e.audit.Info().
				Str("entity_category", f.Entity).
				Float64("confidence", f.Confidence).
				Msg("pii finding")
		}
	}

	return e.apply(text, accepted), accepted, nil
}

// detect runs every enabled recognizer, dropping findings below the
// confidence threshold. A recognizer failure skips only that
// recognizer's spans.
func (e *Engine) detect(text string) []Finding {
	var findings []Finding
	for _, r := range e.recognizers {
		matches, err := e.safeFindAll(r, text)
		if err != nil {
			e.logger.Warn().Err(err).Str("entity", r.entity).Msg("recognizer failed, skipping span detection")
			continue
		}
		for _, f := range matches {
			if f.Confidence >= e.policy.MinConfidence {
				findings = append(findings, f)
			}
		}
	}
	return findings
}

func (e *Engine) safeFindAll(r *recognizer, text string) (findings []Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			findings = nil
			err = apperrors.NewDetectionError(fmt.Sprintf("recognizer %s panicked", r.entity), fmt.Errorf("%v", rec))
		}
	}()
	return r.findAll(text), nil
}

func (e *Engine) preservedSpans(text string) []Finding {
	var spans []Finding
	for _, pattern := range e.preserve {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			spans = append(spans, Finding{Start: loc[0], End: loc[1]})
		}
	}
	return spans
}

// filterPreserved drops findings overlapping any preserved span. The
// preservation rule takes precedence over every category match.
func filterPreserved(findings, preserved []Finding) []Finding {
	if len(preserved) == 0 {
		return findings
	}
	kept := findings[:0]
	for _, f := range findings {
		blocked := false
		for _, p := range preserved {
			if f.overlaps(p) {
				blocked = true
				break
			}
		}
		if !blocked {
			kept = append(kept, f)
		}
	}
	return kept
}

// resolveOverlaps keeps the highest-confidence finding among overlaps,
// breaking ties by longer span, then earlier start. Losers are dropped
// silently.
func resolveOverlaps(findings []Finding) []Finding {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Confidence != findings[j].Confidence {
			return findings[i].Confidence > findings[j].Confidence
		}
		if findings[i].length() != findings[j].length() {
			return findings[i].length() > findings[j].length()
		}
		return findings[i].Start < findings[j].Start
	})

	var accepted []Finding
	for _, f := range findings {
		conflict := false
		for _, a := range accepted {
			if f.overlaps(a) {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, f)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}

// apply rewrites the accepted spans back-to-front so earlier offsets
// stay valid.
func (e *Engine) apply(text string, accepted []Finding) string {
	result := text
	for i := len(accepted) - 1; i >= 0; i-- {
		f := accepted[i]
		replacement := e.transform(result[f.Start:f.End], e.policy.StrategyFor(f.Entity))
		result = result[:f.Start] + replacement + result[f.End:]
	}
	return result
}

func (e *Engine) transform(value string, strategy StrategyConfig) string {
	switch strategy.Strategy {
	case StrategyMask:
		return maskValue(value, strategy)
	case StrategyHash:
		return hashValue(value)
	default:
		return strategy.Replacement
	}
}

// maskValue replaces chars_to_mask characters from the configured end
// of the span, leaving the remainder visible.
func maskValue(value string, strategy StrategyConfig) string {
	maskChar := strategy.MaskingChar
	if maskChar == "" {
		maskChar = "*"
	}
	runes := []rune(value)
	n := strategy.CharsToMask
	if n > len(runes) {
		n = len(runes)
	}
	mask := strings.Repeat(maskChar, n)
	if strategy.FromEnd {
		return string(runes[:len(runes)-n]) + mask
	}
	return mask + string(runes[n:])
}

// hashValue returns the sha256 digest of the normalized value, so the
// same raw value anonymizes identically across the whole corpus.
func hashValue(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
