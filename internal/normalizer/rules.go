package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Rule rewrites vendor key into matchable form.
type Rule interface {
	Apply(key string) string
}

// RuleFunc is function implementing Rule.
type RuleFunc func(key string) string

// Apply calls f.
func (f RuleFunc) Apply(key string) string {
	return f(key)
}

// Rule kinds accepted in vendor profiles.
const (
	KindTrimSpace         = "trim_space"
	KindUpper             = "upper"
	KindStripLeadingZeros = "strip_leading_zeros"
	KindTrimPrefix        = "trim_prefix"
	KindTrimSuffix        = "trim_suffix"
	KindStripPrefixChars  = "strip_prefix_chars"
	KindReplace           = "replace"
	KindRewriteDigits     = "rewrite_digits"
)

// RuleConfig is serializable rule definition.
type RuleConfig struct {
	Kind     string `yaml:"kind"`
	Value    string `yaml:"value,omitempty"`
	Old      string `yaml:"old,omitempty"`
	New      string `yaml:"new,omitempty"`
	Pattern  string `yaml:"pattern,omitempty"`
	Template string `yaml:"template,omitempty"`
}

// CompileRules builds rules in configured order.
func CompileRules(configs []RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(configs))
	for ix, cfg := range configs {
		rule, err := compileRule(cfg)
		if err != nil {
			return nil, fmt.Errorf("can't compile rule %d (%s): %w", ix, cfg.Kind, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// NormalizeKey applies rules to key in order.
func NormalizeKey(key string, rules []Rule) string {
	for _, rule := range rules {
		key = rule.Apply(key)
	}
	return key
}

func compileRule(cfg RuleConfig) (Rule, error) {
	switch cfg.Kind {
	case KindTrimSpace:
		return RuleFunc(strings.TrimSpace), nil
	case KindUpper:
		return RuleFunc(strings.ToUpper), nil
	case KindStripLeadingZeros:
		return RuleFunc(stripLeadingZeros), nil
	case KindTrimPrefix:
		if cfg.Value == "" {
			return nil, fmt.Errorf("value is required")
		}
		return RuleFunc(func(key string) string { return strings.TrimPrefix(key, cfg.Value) }), nil
	case KindTrimSuffix:
		if cfg.Value == "" {
			return nil, fmt.Errorf("value is required")
		}
		return RuleFunc(func(key string) string { return strings.TrimSuffix(key, cfg.Value) }), nil
	case KindStripPrefixChars:
		return stripPrefixChars(cfg.Value)
	case KindReplace:
		if cfg.Old == "" {
			return nil, fmt.Errorf("old is required")
		}
		return RuleFunc(func(key string) string { return strings.ReplaceAll(key, cfg.Old, cfg.New) }), nil
	case KindRewriteDigits:
		return rewriteDigits(cfg.Pattern, cfg.Template)
	default:
		return nil, fmt.Errorf("unknown rule kind %q", cfg.Kind)
	}
}

// stripLeadingZeros drops leading zeros, keeping a single zero for all-zero keys.
func stripLeadingZeros(key string) string {
	trimmed := strings.TrimLeft(key, "0")
	if trimmed == "" && key != "" {
		return "0"
	}
	return trimmed
}

func stripPrefixChars(class string) (Rule, error) {
	var isClass func(rune) bool
	switch class {
	case "digits":
		isClass = unicode.IsDigit
	case "letters":
		isClass = unicode.IsLetter
	default:
		return nil, fmt.Errorf("value must be digits or letters, got %q", class)
	}

	return RuleFunc(func(key string) string {
		return strings.TrimLeftFunc(key, isClass)
	}), nil
}

// rewriteDigits rewrites key with template only when pattern matches it.
func rewriteDigits(pattern, template string) (Rule, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	return RuleFunc(func(key string) string {
		if !re.MatchString(key) {
			return key
		}
		return re.ReplaceAllString(key, template)
	}), nil
}
