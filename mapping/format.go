package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bulkimport/expr"
)

// Format writes the config in mapping file syntax. Parsing the output yields
// a config equal to c (apart from Name).
func (c *Config) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)

	sections := []struct {
		name  string
		lines []string
	}{
		{SectionInfo, keyValueLines(c.Info)},
		{SectionParams, keyValueLines(c.Params)},
		{SectionDefault, defaultLines(c.Default)},
		{SectionMapping, mappingLines(c.Mapping)},
	}

	first := true
	for _, s := range sections {
		if len(s.lines) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(bw)
		}
		first = false
		fmt.Fprintf(bw, "[%s]\n", s.name)
		for _, line := range s.lines {
			fmt.Fprintln(bw, line)
		}
	}

	return bw.Flush()
}

// String returns the formatted config.
func (c *Config) String() string {
	var b strings.Builder
	_ = c.Format(&b)
	return b.String()
}

func keyValueLines(kvs []KeyValue) []string {
	lines := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		lines = append(lines, quoteKey(kv.Key)+" = "+quote(kv.Value))
	}
	return lines
}

func defaultLines(rules []Rule) []string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, quoteKey(expr.Join(r.Targets))+" = "+quote(r.Modifier.String()))
	}
	return lines
}

func mappingLines(rules []Rule) []string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		line := quoteKey(r.Source) + " = " + expr.Join(r.Targets)
		if !r.Modifier.IsZero() {
			line += " " + modifierSeparator + " " + quote(r.Modifier.String())
		}
		lines = append(lines, line)
	}
	return lines
}

// quote wraps values the parser would otherwise trim or unquote.
func quote(s string) string {
	if s == "" || s != strings.TrimSpace(s) || (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) {
		return `"` + s + `"`
	}
	return s
}

// quoteKey quotes keys that would be read as comments or section headers,
// or cut short at an "=".
func quoteKey(s string) string {
	if strings.HasPrefix(s, ";") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "[") || strings.Contains(s, "=") {
		return `"` + s + `"`
	}
	return quote(s)
}
