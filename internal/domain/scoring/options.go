package scoring

import (
	"fmt"
	"regexp"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithTopic restricts in-scope records to titles matching re.
func WithTopic(re *regexp.Regexp) Option {
	return func(a *Aggregator) {
		a.topic = re
	}
}

// CompileTopic compiles a case-insensitive topic filter. An empty pattern
// yields nil, meaning every record with offenders is in scope.
func CompileTopic(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil //nolint:nilnil // nil filter is a valid result
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile topic filter %q: %w", pattern, err)
	}
	return re, nil
}
