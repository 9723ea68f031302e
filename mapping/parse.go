package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bulkimport/expr"
)

// modifierSeparator splits targets from the modifier in a rule value.
const modifierSeparator = "~"

// SyntaxError describes a line that was skipped while parsing.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Parse reads a mapping file. Malformed lines are skipped and returned as
// syntax errors; they never stop the parse. The error is only set when r
// cannot be read.
func Parse(r io.Reader) (*Config, []*SyntaxError, error) {
	cfg := &Config{}
	var problems []*SyntaxError
	section := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		line := strings.TrimSpace(raw)

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		skip := func(reason string) {
			problems = append(problems, &SyntaxError{Line: lineNo, Text: raw, Reason: reason})
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				skip("unterminated section header")
				continue
			}
			name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			switch name {
			case SectionInfo, SectionParams, SectionDefault, SectionMapping:
				section = name
			default:
				section = ""
				skip("unknown section " + name)
			}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			skip("expected key = value")
			continue
		}
		if key == "" {
			skip("empty key")
			continue
		}

		switch section {
		case SectionInfo:
			cfg.Info = append(cfg.Info, KeyValue{Key: key, Value: unquote(value)})
		case SectionParams:
			cfg.Params = append(cfg.Params, KeyValue{Key: key, Value: unquote(value)})
		case SectionDefault:
			rule, reason := parseDefaultRule(key, value)
			if reason != "" {
				skip(reason)
				continue
			}
			cfg.Default = append(cfg.Default, rule)
		case SectionMapping:
			rule, reason := parseMappingRule(key, value)
			if reason != "" {
				skip(reason)
				continue
			}
			cfg.Mapping = append(cfg.Mapping, rule)
		default:
			skip("outside of a known section")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, problems, fmt.Errorf("reading mapping: %w", err)
	}

	return cfg, problems, nil
}

// ParseString parses mapping text held in memory.
func ParseString(s string) (*Config, []*SyntaxError) {
	cfg, problems, _ := Parse(strings.NewReader(s))
	return cfg, problems
}

// parseDefaultRule reads "targets = value": the value applies to every entry.
func parseDefaultRule(key, value string) (Rule, string) {
	targets := expr.ParseAll(key)
	if len(targets) == 0 {
		return Rule{}, "no valid target"
	}
	return Rule{Targets: targets, Modifier: ParseModifier(unquote(value))}, ""
}

// parseMappingRule reads "source = targets [~ modifier]".
func parseMappingRule(key, value string) (Rule, string) {
	targetText, modifierText, _ := strings.Cut(value, modifierSeparator)
	targets := expr.ParseAll(unquote(strings.TrimSpace(targetText)))
	if len(targets) == 0 {
		return Rule{}, "no valid target"
	}
	return Rule{
		Source:   key,
		Targets:  targets,
		Modifier: ParseModifier(unquote(strings.TrimSpace(modifierText))),
	}, ""
}

// splitKeyValue cuts "key = value". A key in double quotes runs to its
// closing quote, so it may hold "=".
func splitKeyValue(line string) (string, string, bool) {
	if strings.HasPrefix(line, `"`) {
		if end := strings.Index(line[1:], `"`); end >= 0 {
			rest := strings.TrimSpace(line[end+2:])
			if !strings.HasPrefix(rest, "=") {
				return "", "", false
			}
			return line[1 : end+1], strings.TrimSpace(rest[1:]), true
		}
	}
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	return unquote(strings.TrimSpace(key)), strings.TrimSpace(value), true
}

// unquote removes one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
