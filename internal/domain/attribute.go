package domain

import "strings"

// SourceAttribute is one upstream attribute as supplied by a storefront:
// a free-form name and its option list.
type SourceAttribute struct {
	Name    string
	Options []string
}

// attributeRule maps one normalized upstream attribute name to its
// canonical key. AllOptions keeps the full option list instead of the
// first option.
type attributeRule struct {
	Key        string
	AllOptions bool
}

var attributeRules = map[string]attributeRule{
	"gender":       {Key: "gender"},
	"genderage":    {Key: "gender"},
	"season":       {Key: "season"},
	"type":         {Key: "type"},
	"jerseytype":   {Key: "type"},
	"version":      {Key: "version"},
	"style":        {Key: "version"},
	"sleeve":       {Key: "sleeve"},
	"sleevelength": {Key: "sleeve"},
	"team":         {Key: "team"},
	"event":        {Key: "events", AllOptions: true},
	"events":       {Key: "events", AllOptions: true},
}

// RemapAttributes folds upstream attributes into the canonical vocabulary.
// Names are lowercased and space-stripped before the table lookup;
// unmatched names are dropped. Returns nil when nothing matched.
func RemapAttributes(attrs []SourceAttribute) map[string]any {
	var out map[string]any

	for _, a := range attrs {
		name := strings.ReplaceAll(strings.ToLower(a.Name), " ", "")
		rule, ok := attributeRules[name]
		if !ok {
			continue
		}

		if out == nil {
			out = make(map[string]any)
		}

		if rule.AllOptions {
			options := a.Options
			if options == nil {
				options = []string{}
			}
			out[rule.Key] = options
			continue
		}

		value := ""
		if len(a.Options) > 0 {
			value = a.Options[0]
		}
		out[rule.Key] = value
	}

	return out
}
