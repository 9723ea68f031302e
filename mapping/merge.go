package mapping

import (
	"github.com/lehigh-university-libraries/bulkimport/expr"
	"github.com/lehigh-university-libraries/bulkimport/pattern"
)

// Merge returns a new config with child layered over base. On a key
// collision (info or param key, default target, mapping source) the child's
// entries replace the base's at the base position; child keys unknown to the
// base are appended. Neither input is modified.
func Merge(base, child *Config) *Config {
	if base == nil {
		return child.clone()
	}
	if child == nil {
		return base.clone()
	}
	return &Config{
		Name:    child.Name,
		Info:    mergeByKey(base.Info, child.Info, keyValueKey),
		Params:  mergeByKey(base.Params, child.Params, keyValueKey),
		Default: mergeByKey(base.Default, child.Default, defaultKey),
		Mapping: mergeByKey(base.Mapping, child.Mapping, mappingKey),
	}
}

func keyValueKey(kv KeyValue) string { return kv.Key }
func defaultKey(r Rule) string      { return expr.Join(r.Targets) }
func mappingKey(r Rule) string      { return r.Source }

func mergeByKey[T any](base, child []T, key func(T) string) []T {
	if len(base) == 0 && len(child) == 0 {
		return nil
	}

	byKey := make(map[string][]T)
	var childOrder []string
	for _, item := range child {
		k := key(item)
		if _, ok := byKey[k]; !ok {
			childOrder = append(childOrder, k)
		}
		byKey[k] = append(byKey[k], item)
	}

	merged := make([]T, 0, len(base)+len(child))
	emitted := make(map[string]bool)
	for _, item := range base {
		k := key(item)
		override, ok := byKey[k]
		if !ok {
			merged = append(merged, item)
			continue
		}
		if !emitted[k] {
			emitted[k] = true
			merged = append(merged, override...)
		}
	}
	for _, k := range childOrder {
		if !emitted[k] {
			merged = append(merged, byKey[k]...)
		}
	}
	return merged
}

func (c *Config) clone() *Config {
	if c == nil {
		return &Config{}
	}
	out := &Config{
		Name:    c.Name,
		Info:    append([]KeyValue(nil), c.Info...),
		Params:  append([]KeyValue(nil), c.Params...),
		Default: append([]Rule(nil), c.Default...),
		Mapping: append([]Rule(nil), c.Mapping...),
	}
	return out
}

// EvaluateParams computes the [params] section over vars and returns a new
// variable set. Params are evaluated in declaration order and each result is
// visible to the params after it. A reference to a param declared later
// renders as empty.
func (c *Config) EvaluateParams(vars map[string]string) map[string]string {
	out := make(map[string]string, len(vars)+len(c.Params))
	for k, v := range vars {
		out[k] = v
	}
	for _, p := range c.Params {
		out[p.Key] = pattern.Compile(p.Value).Render(pattern.MapLookup(out))
	}
	return out
}
