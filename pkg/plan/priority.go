package plan

import (
	"strconv"
	"strings"
)

const (
	PriorityEssential  = 0
	PriorityStrong     = 1
	PriorityExcellence = 2
)

var priorityWords = map[string]int{
	"essential":  PriorityEssential,
	"critical":   PriorityEssential,
	"required":   PriorityEssential,
	"high":       PriorityEssential,
	"core":       PriorityEssential,
	"must":       PriorityEssential,
	"strong":     PriorityStrong,
	"medium":     PriorityStrong,
	"important":  PriorityStrong,
	"should":     PriorityStrong,
	"excellence": PriorityExcellence,
	"excellent":  PriorityExcellence,
	"bonus":      PriorityExcellence,
	"advanced":   PriorityExcellence,
	"optional":   PriorityExcellence,
	"stretch":    PriorityExcellence,
	"low":        PriorityExcellence,
}

// keyword search order for longer phrases such as "Essential (Red)"
var priorityKeywords = []string{
	"essential", "critical", "required", "excellence", "excellent",
	"bonus", "advanced", "optional", "stretch", "strong", "important",
}

// ParsePriority normalizes an integer or descriptive priority. nil stays nil
// and anything unrecognized is medium.
func ParsePriority(v interface{}) *int {
	p := func(i int) *int { return &i }

	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return p(x)
	case int32:
		return p(int(x))
	case int64:
		return p(int(x))
	case float32:
		return p(int(x))
	case float64:
		return p(int(x))
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if s == "" {
			return nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return p(n)
		}
		if n, ok := priorityWords[s]; ok {
			return p(n)
		}
		for _, kw := range priorityKeywords {
			if strings.Contains(s, kw) {
				return p(priorityWords[kw])
			}
		}
		return p(PriorityStrong)
	default:
		return p(PriorityStrong)
	}
}
