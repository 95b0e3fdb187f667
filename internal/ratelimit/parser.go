// Package ratelimit classifies model CLI failures and computes retry backoff.
package ratelimit

import "regexp"

var (
	// rateLimitPattern matches the transient capacity errors printed by the
	// model CLIs and their upstream APIs.
	rateLimitPattern = regexp.MustCompile(`(?i)429|rate.?limit|too many requests|quota.?exceeded|resource.?exhausted|overloaded|capacity`)

	modelNotFoundPattern = regexp.MustCompile(`(?i)model_not_found|model is not supported|not found`)
)

// Class is the failure class of a non-zero CLI exit.
type Class int

const (
	// ClassOther is any failure that is neither retried nor absorbed.
	ClassOther Class = iota
	// ClassRateLimit is retried with backoff.
	ClassRateLimit
	// ClassModelNotFound moves a fallback chain to its next model.
	ClassModelNotFound
)

func (c Class) String() string {
	switch c {
	case ClassRateLimit:
		return "rate_limit"
	case ClassModelNotFound:
		return "model_not_found"
	default:
		return "other"
	}
}

// IsRateLimited reports whether output carries a rate-limit signature.
func IsRateLimited(output string) bool {
	return rateLimitPattern.MatchString(output)
}

// IsModelNotFound reports whether output says the requested model is unknown.
func IsModelNotFound(output string) bool {
	return modelNotFoundPattern.MatchString(output)
}

// Classify inspects the combined stderr+stdout of a failed run. A missing
// model takes precedence over a rate limit, since retrying an unknown model
// can never succeed.
func Classify(output string) Class {
	switch {
	case IsModelNotFound(output):
		return ClassModelNotFound
	case IsRateLimited(output):
		return ClassRateLimit
	default:
		return ClassOther
	}
}
