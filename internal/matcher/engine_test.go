package matcher

import (
	"errors"
	"fmt"
	"testing"

	"fgactx/internal/docstore"
	"fgactx/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader serves documents from a map, returning a DocumentNotFoundError
// for anything absent, the same failure shape as the real store.
type fakeLoader map[string]string

func (f fakeLoader) Load(ref string) (string, error) {
	content, ok := f[ref]
	if !ok {
		return "", &docstore.DocumentNotFoundError{
			Ref:  ref,
			Path: "/docs/" + ref,
			Err:  fmt.Errorf("no such file"),
		}
	}
	return content, nil
}

func newTestEngine(t *testing.T, rules []Rule, docs fakeLoader) *Engine {
	t.Helper()

	logger, _ := logging.NewTestLogger()
	engine, err := NewEngine(rules, docs, logger)
	require.NoError(t, err)
	return engine
}

func defaultTestEngine(t *testing.T) *Engine {
	t.Helper()

	docs := fakeLoader{
		"authoring-authorization-models.md": "# Authoring Authorization Models with OpenFGA\n\nFull document text.",
		"querying-authorization-data.md":    "# Querying Relationships\n\nQuery guide text.",
		"integrating-sdks.md":               "# Integrating SDKs\n\nSDK guide text.",
	}
	return newTestEngine(t, DefaultRules(), docs)
}

func TestNewEngineValidation(t *testing.T) {
	logger, _ := logging.NewTestLogger()

	t.Run("rejects nil document loader", func(t *testing.T) {
		_, err := NewEngine(DefaultRules(), nil, logger)
		assert.Error(t, err)
	})

	t.Run("rejects rule without patterns", func(t *testing.T) {
		rules := []Rule{{Description: "empty", DocumentRef: "a.md"}}
		_, err := NewEngine(rules, fakeLoader{}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no patterns")
	})

	t.Run("rejects rule without document reference", func(t *testing.T) {
		rules := []Rule{{Description: "no doc", Patterns: []string{"x"}}}
		_, err := NewEngine(rules, fakeLoader{}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no document reference")
	})

	t.Run("empty rule set is valid and never matches", func(t *testing.T) {
		engine, err := NewEngine(nil, fakeLoader{}, logger)
		require.NoError(t, err)
		assert.Nil(t, engine.FindBestMatch("anything at all"))
	})
}

func TestFindBestMatch(t *testing.T) {
	engine := defaultTestEngine(t)

	tests := []struct {
		name     string
		query    string
		wantDesc string // empty means no match expected
	}{
		{
			name:     "openfga authoring question",
			query:    "How do I create an OpenFGA authorization model?",
			wantDesc: "Author authorization models with OpenFGA",
		},
		{
			name:     "rbac acronym as case-insensitive substring",
			query:    "RBAC vs ABAC",
			wantDesc: "Author authorization models with OpenFGA",
		},
		{
			name:     "uppercase query still matches",
			query:    "TELL ME ABOUT ZANZIBAR",
			wantDesc: "Author authorization models with OpenFGA",
		},
		{
			name:     "unrelated query",
			query:    "What's the weather today?",
			wantDesc: "",
		},
		{
			name:     "empty query",
			query:    "",
			wantDesc: "",
		},
		{
			name:     "whitespace-only query",
			query:    "   \t\n",
			wantDesc: "",
		},
		{
			name:     "later rule matches when earlier rules do not",
			query:    "how do I call the check api from my service",
			wantDesc: "Query relationships and run authorization checks with OpenFGA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := engine.FindBestMatch(tt.query)
			if tt.wantDesc == "" {
				assert.Nil(t, rule)
				return
			}
			require.NotNil(t, rule)
			assert.Equal(t, tt.wantDesc, rule.Description)
		})
	}
}

func TestFindBestMatchPrecedence(t *testing.T) {
	// Two rules share the substring "deploy"; the earlier rule must shadow
	// the later one, and only declaration order decides.
	rules := []Rule{
		{Description: "first", DocumentRef: "first.md", Patterns: []string{"deploy"}},
		{Description: "second", DocumentRef: "second.md", Patterns: []string{"deploy", "release"}},
	}
	docs := fakeLoader{"first.md": "first doc", "second.md": "second doc"}
	engine := newTestEngine(t, rules, docs)

	rule := engine.FindBestMatch("how do I deploy this release?")
	require.NotNil(t, rule)
	assert.Equal(t, "first", rule.Description, "earlier rule must win on a shared substring")

	// A pattern unique to the later rule still reaches it.
	rule = engine.FindBestMatch("cutting a release today")
	require.NotNil(t, rule)
	assert.Equal(t, "second", rule.Description)
}

func TestFindBestMatchDeterministic(t *testing.T) {
	engine := defaultTestEngine(t)

	first := engine.FindBestMatch("openfga modeling")
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := engine.FindBestMatch("openfga modeling")
		require.NotNil(t, again)
		assert.Equal(t, first.Description, again.Description)
	}
}

func TestContextForQuery(t *testing.T) {
	docs := fakeLoader{
		"authoring-authorization-models.md": "# Authoring Authorization Models with OpenFGA\n\nFull document text.",
	}
	rules := []Rule{
		{
			Description: "Author authorization models with OpenFGA",
			DocumentRef: "authoring-authorization-models.md",
			Patterns:    []string{"authorization model", "openfga", "rbac"},
		},
	}
	engine := newTestEngine(t, rules, docs)

	t.Run("match returns rule and full content", func(t *testing.T) {
		resolved, err := engine.ContextForQuery("How do I create an OpenFGA authorization model?")
		require.NoError(t, err)
		assert.True(t, resolved.MatchFound)
		require.NotNil(t, resolved.Rule)
		assert.Equal(t, "Author authorization models with OpenFGA", resolved.Rule.Description)
		assert.Equal(t, docs["authoring-authorization-models.md"], resolved.Content)
	})

	t.Run("no match is a negative result, not an error", func(t *testing.T) {
		resolved, err := engine.ContextForQuery("What's the weather today?")
		require.NoError(t, err)
		assert.False(t, resolved.MatchFound)
		assert.Nil(t, resolved.Rule)
		assert.Empty(t, resolved.Content)
	})

	t.Run("empty query is a negative result", func(t *testing.T) {
		resolved, err := engine.ContextForQuery("")
		require.NoError(t, err)
		assert.False(t, resolved.MatchFound)
	})

	t.Run("idempotent for a fixed rule set and store", func(t *testing.T) {
		a, err := engine.ContextForQuery("rbac roles")
		require.NoError(t, err)
		b, err := engine.ContextForQuery("rbac roles")
		require.NoError(t, err)
		assert.Equal(t, a.Rule.Description, b.Rule.Description)
		assert.Equal(t, a.Content, b.Content)
	})

	t.Run("missing document surfaces as DocumentNotFound, not silence", func(t *testing.T) {
		broken := []Rule{
			{Description: "broken", DocumentRef: "gone.md", Patterns: []string{"broken"}},
		}
		engine := newTestEngine(t, broken, fakeLoader{})

		resolved, err := engine.ContextForQuery("this is broken")
		require.Error(t, err)
		assert.False(t, resolved.MatchFound)

		var dnf *docstore.DocumentNotFoundError
		require.True(t, errors.As(err, &dnf))
		assert.Equal(t, "gone.md", dnf.Ref)
		assert.NotEmpty(t, dnf.Path)
	})
}

func TestRulesDefensiveCopy(t *testing.T) {
	engine := defaultTestEngine(t)

	rules := engine.Rules()
	require.Len(t, rules, len(DefaultRules()))
	assert.Equal(t, "Author authorization models with OpenFGA", rules[0].Description)

	// Mutating the returned slice and its pattern lists must not change
	// subsequent engine behavior.
	rules[0].Patterns[0] = "mutated-away"
	rules[0].Description = "mutated"
	rules[0].DocumentRef = "mutated.md"

	rule := engine.FindBestMatch("tell me about the authorization model")
	require.NotNil(t, rule)
	assert.Equal(t, "Author authorization models with OpenFGA", rule.Description)

	again := engine.Rules()
	assert.Equal(t, "authorization model", again[0].Patterns[0])
}

func TestFindBestMatchReturnsCopy(t *testing.T) {
	engine := defaultTestEngine(t)

	rule := engine.FindBestMatch("openfga")
	require.NotNil(t, rule)
	rule.Patterns[0] = "clobbered"
	rule.Description = "clobbered"

	fresh := engine.FindBestMatch("openfga")
	require.NotNil(t, fresh)
	assert.Equal(t, "Author authorization models with OpenFGA", fresh.Description)
	assert.NotEqual(t, "clobbered", fresh.Patterns[0])
}
