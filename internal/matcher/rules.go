package matcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRules returns the built-in rule catalog in match-precedence order.
//
// Order matters: the authoring rule comes first and deliberately shadows
// the later rules on shared vocabulary (e.g. "tuples"), so queries about
// modeling land on the modeling guide rather than the query guide. Adding a
// context type means depositing a document in the docs directory and
// appending a rule here, placed to avoid unwanted shadowing.
func DefaultRules() []Rule {
	return []Rule{
		{
			Description: "Author authorization models with OpenFGA",
			DocumentRef: "authoring-authorization-models.md",
			Patterns: []string{
				"authorization model",
				"openfga",
				"fine-grained authorization",
				"fine grained authorization",
				"relationship-based access control",
				"relationship based access control",
				"rebac",
				"rbac",
				"abac",
				"role-based access control",
				"role based access control",
				"attribute-based access control",
				"attribute based access control",
				"access control",
				"authorization schema",
				"permissions model",
				"permission model",
				"type definition",
				"type definitions",
				"usersets",
				"userset",
				"type restrictions",
				"modular model",
				"modeling language",
				"authorization dsl",
				"zanzibar",
				"authz model",
				"entitlements",
				"conditions",
				"contextual tuples",
				"schema 1.1",
			},
		},
		{
			Description: "Query relationships and run authorization checks with OpenFGA",
			DocumentRef: "querying-authorization-data.md",
			Patterns: []string{
				"check api",
				"check request",
				"batch check",
				"batchcheck",
				"list objects",
				"listobjects",
				"list users",
				"listusers",
				"expand api",
				"relationship query",
				"tuple query",
				"read tuples",
				"write tuples",
			},
		},
		{
			Description: "Integrate OpenFGA SDKs and APIs into applications",
			DocumentRef: "integrating-sdks.md",
			Patterns: []string{
				"sdk",
				"client library",
				"go client",
				"api token",
				"grpc endpoint",
				"http endpoint",
				"store id",
				"api url",
				"client credentials",
				"middleware integration",
			},
		},
	}
}

// rulesFile is the on-disk shape of an external rule catalog.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads an external rule catalog from a YAML file. The file's
// declaration order becomes the match precedence, same as the built-in
// catalog. Structural validation (non-empty patterns, document refs)
// happens in NewEngine.
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()

	var file rulesFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s declares no rules", path)
	}

	return file.Rules, nil
}
