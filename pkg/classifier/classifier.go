// Package classifier maps file extensions to category names.
//
// Rules are evaluated in their configured order and the first rule that
// claims an extension wins, so overlapping rules are allowed and the
// earlier one always takes precedence. Everything here is pure: no I/O,
// no clock, no shared state.
package classifier

import (
	"path/filepath"
	"strings"

	"github.com/0xmhha/kaizen/pkg/config"
)

// Rule is a single normalized category rule.
type Rule struct {
	// Category name, also the destination directory name
	Name string

	// Normalized extensions in configured order (lowercase, leading dot)
	Extensions []string

	set map[string]struct{}
}

// Has reports whether the rule claims the normalized extension ext.
func (r Rule) Has(ext string) bool {
	_, ok := r.set[ext]
	return ok
}

// Rules is an ordered, immutable rule set.
type Rules struct {
	rules []Rule
}

// NewRules normalizes the configured categories into a rule set.
//
// Extensions are trimmed, lowercased, given a leading dot and
// deduplicated within a rule. Categories with a blank name are dropped.
func NewRules(categories []config.Category) Rules {
	rules := make([]Rule, 0, len(categories))

	for _, cat := range categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			continue
		}

		rule := Rule{
			Name: name,
			set:  make(map[string]struct{}, len(cat.Extensions)),
		}
		for _, ext := range cat.Extensions {
			ext = Normalize(ext)
			if ext == "" {
				continue
			}
			if _, dup := rule.set[ext]; dup {
				continue
			}
			rule.set[ext] = struct{}{}
			rule.Extensions = append(rule.Extensions, ext)
		}

		rules = append(rules, rule)
	}

	return Rules{rules: rules}
}

// Len returns the number of rules.
func (r Rules) Len() int {
	return len(r.rules)
}

// All returns the rules in evaluation order.
func (r Rules) All() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Classify returns the first category whose rule holds ext.
//
// Comparison is case-insensitive and a missing leading dot is tolerated.
// ok is false when no rule matches.
func (r Rules) Classify(ext string) (category string, ok bool) {
	ext = Normalize(ext)
	if ext == "" {
		return "", false
	}

	for _, rule := range r.rules {
		if rule.Has(ext) {
			return rule.Name, true
		}
	}

	return "", false
}

// ClassifyPath classifies a file by its base name.
//
// Both the compound extension ("archive.tar.gz" -> ".tar.gz") and the
// simple one (".gz") are candidates; the first rule holding either wins.
func (r Rules) ClassifyPath(path string) (category string, ok bool) {
	candidates := Extensions(filepath.Base(path))
	if len(candidates) == 0 {
		return "", false
	}

	for _, rule := range r.rules {
		for _, ext := range candidates {
			if rule.Has(ext) {
				return rule.Name, true
			}
		}
	}

	return "", false
}

// Classify is the functional form of Rules.Classify.
func Classify(ext string, categories []config.Category) (string, bool) {
	return NewRules(categories).Classify(ext)
}

// Extensions returns the candidate extensions of a base name, compound
// first. A leading dot marks a hidden file, not an extension.
//
//	"photo.PNG"      -> [".png"]
//	"backup.tar.gz"  -> [".tar.gz", ".gz"]
//	".bashrc"        -> []
//	".cache.json"    -> [".json"]
func Extensions(name string) []string {
	name = strings.ToLower(strings.TrimLeft(name, "."))

	last := strings.LastIndexByte(name, '.')
	if last <= 0 || last == len(name)-1 {
		return nil
	}

	simple := name[last:]
	prev := strings.LastIndexByte(name[:last], '.')
	if prev <= 0 || prev == last-1 {
		return []string{simple}
	}

	return []string{name[prev:], simple}
}

// Normalize lowercases ext and ensures a single leading dot.
// Returns "" for a blank extension.
func Normalize(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}
