// Package transform implements pure functions over event lists: sorting,
// flooding, merging, chunking, filtering, period algebra, and
// categorize/tag classification. None of these functions touch the
// store; they operate purely on the []models.Event slices they're given.
package transform

import "regexp"

// Matcher decides whether an event's data matches a classification rule.
// It is a small interface rather than a tagged enum so new matcher kinds
// can be added without touching categorize/tag's callers.
type Matcher interface {
	Matches(data map[string]any) bool
}

// noneMatcher never matches; used for disabled rules.
type noneMatcher struct{}

func (noneMatcher) Matches(map[string]any) bool { return false }

// NoneMatcher returns a Matcher that never matches.
func NoneMatcher() Matcher { return noneMatcher{} }

// regexMatcher matches if any string-valued field in data matches the
// compiled pattern.
type regexMatcher struct {
	re *regexp.Regexp
}

// NewRegexMatcher compiles pattern (optionally case-insensitively) into a
// Matcher. Compile failures are returned so callers can surface a
// regex-compile error to the caller building the rule.
func NewRegexMatcher(pattern string, ignoreCase bool) (Matcher, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return regexMatcher{re: re}, nil
}

func (m regexMatcher) Matches(data map[string]any) bool {
	for _, v := range data {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if m.re.MatchString(s) {
			return true
		}
	}
	return false
}
