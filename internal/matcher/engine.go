// Package matcher maps free-text queries to pre-authored knowledge
// documents. Matching is deterministic, case-insensitive substring
// containment over an ordered rule table: the first rule (in declaration
// order) with any pattern contained in the query wins.
//
// The scan is linear over rules and patterns, which is the right trade at
// the current scale of tens of patterns. A catalog orders of magnitude
// larger would swap in a precomputed multi-pattern automaton (Aho-Corasick)
// behind the same first-rule-wins contract.
package matcher

import (
	"fmt"
	"slices"
	"strings"

	"fgactx/internal/logging"
)

// Rule binds a list of trigger patterns to one backing knowledge document.
// Rules are immutable after engine construction.
type Rule struct {
	// Patterns are lower-cased phrases tested for substring containment in
	// the normalized query. Order within a rule does not affect the
	// outcome; any hit claims the whole rule.
	Patterns []string `yaml:"patterns"`
	// DocumentRef is the file name of the backing document, relative to
	// the docs directory. Resolved lazily at match time.
	DocumentRef string `yaml:"document"`
	// Description is a human-readable label; it plays no part in matching.
	Description string `yaml:"description"`
}

// ResolvedContext is the per-query result of ContextForQuery. It is not
// persisted and carries no state between calls.
type ResolvedContext struct {
	Rule       *Rule
	Content    string
	MatchFound bool
}

// DocumentLoader resolves a rule's document reference to its text content.
// *docstore.Store satisfies this.
type DocumentLoader interface {
	Load(ref string) (string, error)
}

// Engine holds the rule table and resolves matched rules to document
// content. It carries no mutable state after construction, so concurrent
// use needs no locking.
type Engine struct {
	rules  []Rule
	docs   DocumentLoader
	logger *logging.AppLogger
}

// NewEngine builds an engine over an explicit rule table. The table is
// copied and validated: every rule must declare at least one pattern and a
// document reference. Rule order is the match precedence: authors must put
// more specific rules before more general ones when patterns overlap.
func NewEngine(rules []Rule, docs DocumentLoader, logger *logging.AppLogger) (*Engine, error) {
	if docs == nil {
		return nil, fmt.Errorf("document loader is required")
	}

	owned := make([]Rule, len(rules))
	for i, rule := range rules {
		if len(rule.Patterns) == 0 {
			return nil, fmt.Errorf("rule %d (%q) has no patterns", i, rule.Description)
		}
		if strings.TrimSpace(rule.DocumentRef) == "" {
			return nil, fmt.Errorf("rule %d (%q) has no document reference", i, rule.Description)
		}
		owned[i] = copyRule(rule)
	}

	logger.Debug("Matcher engine initialized", "ruleCount", len(owned))

	return &Engine{
		rules:  owned,
		docs:   docs,
		logger: logger,
	}, nil
}

// FindBestMatch returns the first rule whose pattern list contains the
// query as a case-insensitive substring, or nil when nothing matches.
// Empty and whitespace-only queries are valid and simply fail to match.
func (e *Engine) FindBestMatch(query string) *Rule {
	normalized := strings.ToLower(query)

	for i := range e.rules {
		rule := &e.rules[i]
		for _, pattern := range rule.Patterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(pattern)) {
				e.logger.Debug("Query matched rule",
					"rule", rule.Description,
					"pattern", pattern,
				)
				// Hand out a copy so callers cannot reach the live table.
				matched := copyRule(*rule)
				return &matched
			}
		}
	}

	e.logger.Debug("Query matched no rule", "queryLength", len(query))
	return nil
}

// ContextForQuery finds the best matching rule and loads its document. A
// query matching no rule is a normal negative result with a nil error; a
// matched rule whose document cannot be read propagates the load error
// (a *docstore.DocumentNotFoundError in practice) so callers never confuse
// "no pattern matched" with "backing content is missing".
func (e *Engine) ContextForQuery(query string) (ResolvedContext, error) {
	rule := e.FindBestMatch(query)
	if rule == nil {
		return ResolvedContext{}, nil
	}

	content, err := e.docs.Load(rule.DocumentRef)
	if err != nil {
		return ResolvedContext{}, err
	}

	return ResolvedContext{
		Rule:       rule,
		Content:    content,
		MatchFound: true,
	}, nil
}

// Rules returns a defensive copy of the rule table in declaration order.
// Mutating the returned slice or its pattern lists has no effect on the
// engine.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, rule := range e.rules {
		out[i] = copyRule(rule)
	}
	return out
}

func copyRule(rule Rule) Rule {
	return Rule{
		Patterns:    slices.Clone(rule.Patterns),
		DocumentRef: rule.DocumentRef,
		Description: rule.Description,
	}
}
