package pii

import (
	"encoding/json"
	"os"
	"strings"

	apperrors "github.com/opsdeck/incident-assistant/pkg/errors"
)

// Entity categories the detection engine knows about.
const (
	EntityPerson          = "PERSON"
	EntityEmailAddress    = "EMAIL_ADDRESS"
	EntityPhoneNumber     = "PHONE_NUMBER"
	EntityCreditCard      = "CREDIT_CARD"
	EntityUSSSN           = "US_SSN"
	EntityIPAddress       = "IP_ADDRESS"
	EntityLocation        = "LOCATION"
	EntityOrganization    = "ORGANIZATION"
	EntityUSDriverLicense = "US_DRIVER_LICENSE"
	EntityDateTime        = "DATE_TIME"
	EntityURL             = "URL"
	EntityIBANCode        = "IBAN_CODE"
	EntityNRP             = "NRP"
)

// Anonymization strategy names.
const (
	StrategyReplace = "replace"
	StrategyMask    = "mask"
	StrategyHash    = "hash"
)

// StrategyConfig describes how one entity category is anonymized.
type StrategyConfig struct {
	Strategy    string `json:"strategy"`
	Replacement string `json:"replacement,omitempty"`
	MaskingChar string `json:"masking_char,omitempty"`
	CharsToMask int    `json:"chars_to_mask,omitempty"`
	FromEnd     bool   `json:"from_end,omitempty"`
	HashType    string `json:"hash_type,omitempty"`
}

// Policy is the immutable anonymization policy. Loaded once at startup
// and passed explicitly to the engine constructor.
type Policy struct {
	Enabled                 bool                      `json:"enabled"`
	LogPIIFindings          bool                      `json:"log_pii_findings"`
	MinConfidence           float64                   `json:"min_confidence"`
	Entities                []string                  `json:"entities"`
	OptionalEntities        []string                  `json:"optional_entities"`
	ExcludedEntities        []string                  `json:"excluded_entities"`
	IncludeOptionalEntities bool                      `json:"include_optional_entities"`
	PreserveStructure       bool                      `json:"preserve_incident_structure"`
	PreserveFields          []string                  `json:"preserve_fields"`
	PreservePatterns        []string                  `json:"preserve_patterns"`
	Strategies              map[string]StrategyConfig `json:"strategies"`
}

// DefaultPolicy returns the built-in policy for incident corpora:
// replace every detected entity with a bracketed category token, keep
// incident timeline data, and never touch ticket identifiers.
func DefaultPolicy() Policy {
	return Policy{
		Enabled:        true,
		LogPIIFindings: true,
		MinConfidence:  0.6,
		Entities: []string{
			EntityPerson,
			EntityEmailAddress,
			EntityPhoneNumber,
			EntityCreditCard,
			EntityUSSSN,
			EntityIPAddress,
			EntityLocation,
			EntityOrganization,
			EntityUSDriverLicense,
		},
		OptionalEntities: []string{
			EntityDateTime,
			EntityOrganization,
			EntityURL,
			EntityIBANCode,
			EntityNRP,
		},
		// Incident timestamps are operational data, not PII.
		ExcludedEntities:        []string{EntityDateTime},
		IncludeOptionalEntities: false,
		PreserveStructure:       true,
		PreserveFields: []string{
			"incident_number",
			"category",
			"subcategory",
			"priority",
			"state",
			"assignment_group",
		},
		PreservePatterns: []string{
			`INC\d+`,
			`CHG\d+`,
			`PRB\d+`,
			`TASK\d+`,
		},
		Strategies: map[string]StrategyConfig{
			EntityPerson:          {Strategy: StrategyReplace, Replacement: "[PERSON]"},
			EntityEmailAddress:    {Strategy: StrategyReplace, Replacement: "[EMAIL]"},
			EntityPhoneNumber:     {Strategy: StrategyReplace, Replacement: "[PHONE]"},
			EntityCreditCard:      {Strategy: StrategyReplace, Replacement: "[CREDIT_CARD]"},
			EntityUSSSN:           {Strategy: StrategyReplace, Replacement: "[SSN]"},
			EntityIPAddress:       {Strategy: StrategyReplace, Replacement: "[IP_ADDRESS]"},
			EntityLocation:        {Strategy: StrategyReplace, Replacement: "[LOCATION]"},
			EntityOrganization:    {Strategy: StrategyReplace, Replacement: "[ORGANIZATION]"},
			EntityUSDriverLicense: {Strategy: StrategyReplace, Replacement: "[DRIVER_LICENSE]"},
			EntityDateTime:        {Strategy: StrategyReplace, Replacement: "[DATETIME]"},
			EntityURL:             {Strategy: StrategyReplace, Replacement: "[URL]"},
			EntityIBANCode:        {Strategy: StrategyReplace, Replacement: "[IBAN]"},
			EntityNRP:             {Strategy: StrategyReplace, Replacement: "[NRP]"},
		},
	}
}

// LoadPolicy reads a policy from a JSON file. Missing strategy fields
// fall back to the defaults so operators only override what they need.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, apperrors.NewConfigurationError("failed to read pii policy file", err)
	}

	policy := DefaultPolicy()
	if err := json.Unmarshal(data, &policy); err != nil {
		return Policy{}, apperrors.NewConfigurationError("failed to parse pii policy file", err)
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks the policy for malformed strategy entries.
func (p Policy) Validate() error {
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return apperrors.NewConfigurationError("min_confidence must be in [0,1]", nil)
	}
	for entity, strategy := range p.Strategies {
		switch strategy.Strategy {
		case StrategyReplace:
			if strategy.Replacement == "" {
				return apperrors.NewConfigurationError("replace strategy for "+entity+" needs a replacement token", nil)
			}
		case StrategyMask:
			if strategy.CharsToMask <= 0 {
				return apperrors.NewConfigurationError("mask strategy for "+entity+" needs chars_to_mask > 0", nil)
			}
		case StrategyHash:
			if strategy.HashType != "" && strategy.HashType != "sha256" {
				return apperrors.NewConfigurationError("unsupported hash type for "+entity+": "+strategy.HashType, nil)
			}
		default:
			return apperrors.NewConfigurationError("unknown anonymization strategy for "+entity+": "+strategy.Strategy, nil)
		}
	}
	return nil
}

// EnabledEntities computes the active detection set: the configured
// entities, minus exclusions, with optional entities only when the
// include flag is set.
func (p Policy) EnabledEntities() []string {
	excluded := make(map[string]struct{}, len(p.ExcludedEntities))
	for _, e := range p.ExcludedEntities {
		excluded[strings.ToUpper(e)] = struct{}{}
	}
	optional := make(map[string]struct{}, len(p.OptionalEntities))
	for _, e := range p.OptionalEntities {
		optional[strings.ToUpper(e)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var enabled []string
	add := func(entity string) {
		entity = strings.ToUpper(entity)
		if _, dup := seen[entity]; dup {
			return
		}
		if _, skip := excluded[entity]; skip {
			return
		}
		seen[entity] = struct{}{}
		enabled = append(enabled, entity)
	}

	for _, e := range p.Entities {
		if _, opt := optional[strings.ToUpper(e)]; opt && !p.IncludeOptionalEntities {
			continue
		}
		add(e)
	}
	if p.IncludeOptionalEntities {
		for _, e := range p.OptionalEntities {
			add(e)
		}
	}
	return enabled
}

// StrategyFor returns the configured strategy for an entity, defaulting
// to replace-with-bracketed-category when none is configured.
func (p Policy) StrategyFor(entity string) StrategyConfig {
	if s, ok := p.Strategies[entity]; ok {
		return s
	}
	return StrategyConfig{Strategy: StrategyReplace, Replacement: "[" + entity + "]"}
}
