// internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	result := c.ValidateAll()
	if len(result.Errors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("configuration validation failed:\n  - %s",
		strings.Join(messages, "\n  - "))
}

// ValidateAll runs every check and returns the full result, including
// warnings that do not block a run.
func (c *Config) ValidateAll() *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	if len(c.Sources) == 0 {
		result.addError("sources", "[]", "at least one source must be configured")
	}

	seen := make(map[string]bool)
	for i := range c.Sources {
		src := &c.Sources[i]
		prefix := fmt.Sprintf("sources[%d]", i)

		if src.ID == "" {
			result.addError(prefix+".id", "", "source ID is required")
		} else if seen[src.ID] {
			result.addError(prefix+".id", src.ID, fmt.Sprintf("duplicate source ID: %s", src.ID))
		}
		seen[src.ID] = true

		src.validate(prefix, result)
	}

	if c.Output.Database != nil {
		switch c.Output.Database.Driver {
		case "sqlite3", "postgres", "mysql":
		default:
			result.addError("output.database.driver", c.Output.Database.Driver,
				"driver must be one of sqlite3, postgres, mysql")
		}
		if c.Output.Database.DSN == "" {
			result.addError("output.database.dsn", "", "database DSN is required")
		}
	}

	if c.Output.MongoDB != nil {
		if c.Output.MongoDB.URI == "" {
			result.addError("output.mongodb.uri", "", "MongoDB URI is required")
		}
		if c.Output.MongoDB.Database == "" {
			result.addError("output.mongodb.database", "", "MongoDB database name is required")
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (s *SourceConfig) validate(prefix string, result *ValidationResult) {
	if s.Name == "" {
		result.addError(prefix+".name", "", "source name is required")
	}

	if s.BaseURL == "" {
		result.addError(prefix+".base_url", "", "base URL is required")
	} else if parsed, err := url.Parse(s.BaseURL); err != nil {
		result.addError(prefix+".base_url", s.BaseURL,
			fmt.Sprintf("invalid URL format: %s", err.Error()))
	} else {
		if parsed.Scheme == "" || parsed.Host == "" {
			result.addError(prefix+".base_url", s.BaseURL,
				"URL must include protocol and hostname")
		}
		if parsed.Scheme == "http" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: source %s uses plain HTTP", prefix, s.ID))
		}
	}

	if s.Tier != "" && s.Tier != TierPrimary && s.Tier != TierAggregator {
		result.addError(prefix+".tier", s.Tier,
			"tier must be primary or aggregator")
	}

	if s.Priority < 0 {
		result.addError(prefix+".priority", fmt.Sprintf("%d", s.Priority),
			"priority must not be negative")
	}

	if s.RequestsPerSecond < 0 {
		result.addError(prefix+".requests_per_second", fmt.Sprintf("%g", s.RequestsPerSecond),
			"request rate must not be negative")
	}

	s.Navigator.validate(prefix+".navigator", result)
	s.Parser.validate(prefix+".parser", result)
}

func (n *NavigatorConfig) validate(prefix string, result *ValidationResult) {
	switch n.Type {
	case NavigatorSingleLevel:
		if len(n.LinkSelectors) == 0 {
			result.addError(prefix+".link_selectors", "[]",
				"single_level navigator requires link selectors")
		}
	case NavigatorMultiLevel:
		if len(n.Levels) == 0 {
			result.addError(prefix+".levels", "[]",
				"multi_level navigator requires at least one level")
		}
		for i, level := range n.Levels {
			if len(level.LinkSelectors) == 0 {
				result.addError(fmt.Sprintf("%s.levels[%d].link_selectors", prefix, i), "[]",
					"navigation level requires link selectors")
			}
		}
		// The last level must terminate, otherwise the tree never
		// emits targets.
		if len(n.Levels) > 0 && !n.Levels[len(n.Levels)-1].Terminal {
			result.addError(fmt.Sprintf("%s.levels[%d].terminal", prefix, len(n.Levels)-1), "false",
				"the deepest navigation level must be terminal")
		}
	case NavigatorDocument:
		if len(n.DocumentSelectors) == 0 {
			result.addError(prefix+".document_selectors", "[]",
				"document navigator requires document selectors")
		}
	case NavigatorHybrid:
		if len(n.LinkSelectors) == 0 && len(n.DocumentSelectors) == 0 {
			result.addError(prefix, "",
				"hybrid navigator requires link or document selectors")
		}
	case NavigatorStatic:
		// No targets means the base URL is the single target.
		for i, target := range n.Targets {
			if target.URL == "" {
				result.addError(fmt.Sprintf("%s.targets[%d].url", prefix, i), "",
					"static target URL is required")
			}
		}
	case "":
		result.addError(prefix+".type", "", "navigator type is required")
	default:
		result.addError(prefix+".type", n.Type,
			fmt.Sprintf("unknown navigator type: %s", n.Type))
	}

	validateSpecs(prefix+".link_selectors", n.LinkSelectors, result)
	validateSpecs(prefix+".next_page", n.NextPage, result)
	validateSpecs(prefix+".document_selectors", n.DocumentSelectors, result)
	for i, level := range n.Levels {
		validateSpecs(fmt.Sprintf("%s.levels[%d].link_selectors", prefix, i),
			level.LinkSelectors, result)
	}
}

func (p *ParserConfig) validate(prefix string, result *ValidationResult) {
	switch p.Type {
	case ParserHTMLDetail:
		if len(p.Fields) == 0 {
			result.addError(prefix+".fields", "{}",
				"html_detail parser requires field selectors")
		}
	case ParserTable:
		if len(p.RowSelectors) == 0 && len(p.Fields) == 0 {
			result.addError(prefix, "",
				"table parser requires row selectors or field selectors")
		}
	case ParserStaticPage:
		// Static values are optional; page text alone may suffice.
	case ParserAPI:
		if len(p.FieldMap) == 0 {
			result.addError(prefix+".field_map", "{}",
				"api parser requires a field map")
		}
	case ParserPDF:
	case "":
		result.addError(prefix+".type", "", "parser type is required")
	default:
		result.addError(prefix+".type", p.Type,
			fmt.Sprintf("unknown parser type: %s", p.Type))
	}

	validateSpecs(prefix+".row_selectors", p.RowSelectors, result)
	for field, chain := range p.Fields {
		validateSpecs(fmt.Sprintf("%s.fields[%s]", prefix, field), chain, result)
	}
}

// validateSpecs checks a selector chain. CSS and XPath expressions are
// validated lazily by the selector engine; regex patterns compile here
// so that a typo fails the config instead of the run.
func validateSpecs(prefix string, specs []SelectorSpec, result *ValidationResult) {
	for i, spec := range specs {
		field := fmt.Sprintf("%s[%d]", prefix, i)

		if spec.Expr == "" {
			result.addError(field+".expr", "", "selector expression is required")
			continue
		}

		switch spec.Kind {
		case KindCSS, KindXPath, "":
		case KindRegex:
			if _, err := regexp.Compile(spec.Expr); err != nil {
				result.addError(field+".expr", spec.Expr,
					fmt.Sprintf("invalid regex: %s", err.Error()))
			}
		default:
			result.addError(field+".kind", spec.Kind,
				fmt.Sprintf("unknown selector kind: %s", spec.Kind))
		}
	}
}
