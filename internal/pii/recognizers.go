package pii

import (
	"regexp"
	"strings"
)

// Finding is a detected span. Produced and consumed within a single
// anonymization pass; never persisted.
type Finding struct {
	Entity     string
	Confidence float64
	Start      int
	End        int
}

func (f Finding) length() int { return f.End - f.Start }

func (f Finding) overlaps(other Finding) bool {
	return f.Start < other.End && other.Start < f.End
}

// recognizer detects spans of one entity category. Validate, when set,
// can adjust the base confidence per match (returning 0 drops it).
// group selects a capture group as the reported span; 0 means the whole
// match.
type recognizer struct {
	entity     string
	pattern    *regexp.Regexp
	confidence float64
	group      int
	validate   func(match string) float64
}

func (r *recognizer) findAll(text string) []Finding {
	var findings []Finding
	for _, loc := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2*r.group], loc[2*r.group+1]
		if start < 0 || end <= start {
			continue
		}
		confidence := r.confidence
		if r.validate != nil {
			confidence = r.validate(text[start:end])
		}
		if confidence <= 0 {
			continue
		}
		findings = append(findings, Finding{
			Entity:     r.entity,
			Confidence: confidence,
			Start:      start,
			End:        end,
		})
	}
	return findings
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	phonePattern = regexp.MustCompile(`\+?\d{0,2}[\s.\-]?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)

	creditCardPattern = regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`)

	ssnPattern = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	ipPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

	// Honorific-prefixed names: "Dr. Jane Doe", "Mr Smith".
	honorificNamePattern = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)

	// Names following a reporting cue: "reported by John Smith",
	// "caller Jane Doe". The cue itself is not part of the span.
	cuedNamePattern = regexp.MustCompile(`(?:reported by|contacted by|assigned to|caller|user|customer|from user)\s+([A-Z][a-z]+\s+[A-Z][a-z]+)`)

	streetPattern = regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`)

	orgPattern = regexp.MustCompile(`\b[A-Z][A-Za-z&\-]+(?:\s+[A-Z][A-Za-z&\-]+)*\s+(?:Inc|LLC|Ltd|Corp|GmbH)\.?`)

	driverLicensePattern = regexp.MustCompile(`\b[A-Z]\d{7,8}\b`)

	dateTimePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[ T]\d{2}:\d{2}(?::\d{2})?)?\b|\b\d{1,2}/\d{1,2}/\d{4}\b`)

	urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

	ibanPattern = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`)

	nrpPattern = regexp.MustCompile(`\b(?:American|British|French|German|Chinese|Indian|Nigerian|Catholic|Muslim|Jewish|Hindu|Democrat|Republican)\b`)
)

// validateIPv4 drops matches with out-of-range octets.
func validateIPv4(match string) float64 {
	for _, octet := range strings.Split(match, ".") {
		if len(octet) > 1 && octet[0] == '0' {
			return 0
		}
		value := 0
		for _, c := range octet {
			value = value*10 + int(c-'0')
		}
		if value > 255 {
			return 0
		}
	}
	return 0.9
}

// luhnValid reports whether the digit string passes the Luhn checksum.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func validateCreditCard(match string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, match)
	if len(digits) < 13 || len(digits) > 16 {
		return 0
	}
	if luhnValid(digits) {
		return 0.95
	}
	return 0.3
}

func validatePhone(match string) float64 {
	digits := 0
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 10 || digits > 12 {
		return 0
	}
	return 0.7
}

// buildRecognizers returns the recognizer set for the given enabled
// entity categories.
func buildRecognizers(enabled []string) []*recognizer {
	all := map[string][]*recognizer{
		EntityEmailAddress: {
			{entity: EntityEmailAddress, pattern: emailPattern, confidence: 0.9},
		},
		EntityPhoneNumber: {
			{entity: EntityPhoneNumber, pattern: phonePattern, confidence: 0.7, validate: validatePhone},
		},
		EntityCreditCard: {
			{entity: EntityCreditCard, pattern: creditCardPattern, confidence: 0.5, validate: validateCreditCard},
		},
		EntityUSSSN: {
			{entity: EntityUSSSN, pattern: ssnPattern, confidence: 0.85},
		},
		EntityIPAddress: {
			{entity: EntityIPAddress, pattern: ipPattern, confidence: 0.9, validate: validateIPv4},
		},
		EntityPerson: {
			{entity: EntityPerson, pattern: honorificNamePattern, confidence: 0.85},
			{entity: EntityPerson, pattern: cuedNamePattern, confidence: 0.7, group: 1},
		},
		EntityLocation: {
			{entity: EntityLocation, pattern: streetPattern, confidence: 0.7},
		},
		EntityOrganization: {
			{entity: EntityOrganization, pattern: orgPattern, confidence: 0.7},
		},
		EntityUSDriverLicense: {
			{entity: EntityUSDriverLicense, pattern: driverLicensePattern, confidence: 0.65},
		},
		EntityDateTime: {
			{entity: EntityDateTime, pattern: dateTimePattern, confidence: 0.6},
		},
		EntityURL: {
			{entity: EntityURL, pattern: urlPattern, confidence: 0.85},
		},
		EntityIBANCode: {
			{entity: EntityIBANCode, pattern: ibanPattern, confidence: 0.6},
		},
		EntityNRP: {
			{entity: EntityNRP, pattern: nrpPattern, confidence: 0.6},
		},
	}

	var recognizers []*recognizer
	for _, entity := range enabled {
		recognizers = append(recognizers, all[entity]...)
	}
	return recognizers
}
