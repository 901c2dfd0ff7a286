package reactor

import "fmt"

// EffectiveConfig is the resolved config property of a statement.
type EffectiveConfig uint8

const (
	configUnknown EffectiveConfig = iota
	// EffectiveConfigUndetermined applies inside reusable definitions.
	EffectiveConfigUndetermined
	EffectiveConfigTrue
	EffectiveConfigFalse
	// EffectiveConfigIgnored applies where config has no meaning.
	EffectiveConfigIgnored
)

func (c EffectiveConfig) String() string {
	switch c {
	case configUnknown:
		return "unknown"
	case EffectiveConfigUndetermined:
		return "undetermined"
	case EffectiveConfigTrue:
		return "true"
	case EffectiveConfigFalse:
		return "false"
	case EffectiveConfigIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("EffectiveConfig(%d)", uint8(c))
	}
}

// ConfigKeyword is the keyword whose boolean argument sets config.
const ConfigKeyword = "config"

func computeConfig(n Ctx) EffectiveConfig {
	switch n.Support().ConfigMode() {
	case IgnoreConfig:
		return EffectiveConfigIgnored
	case UndeterminedConfig:
		return EffectiveConfigUndetermined
	}
	parent := n.Parent()
	inherited := EffectiveConfigTrue
	if parent != nil {
		inherited = parent.EffectiveConfig()
	}
	if inherited == EffectiveConfigIgnored {
		return EffectiveConfigIgnored
	}
	if v, ok := n.FindSubstatementArgument(ConfigKeyword); ok {
		if b, ok := v.(bool); ok {
			if b {
				return EffectiveConfigTrue
			}
			return EffectiveConfigFalse
		}
	}
	return inherited
}

// FeatureSet lists supported features as "module:feature". A nil set
// supports every feature.
type FeatureSet map[string]struct{}

// NewFeatureSet builds a set from "module:feature" names.
func NewFeatureSet(names ...string) FeatureSet {
	s := make(FeatureSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Supports reports whether feature of module is enabled.
func (s FeatureSet) Supports(module, feature string) bool {
	if s == nil {
		return true
	}
	_, ok := s[module+":"+feature]
	return ok
}
