// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phylogeny

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// AliasMap maps a lineage name to an ordered list of parent paths. For
// non-recombinants the list has exactly one entry, the decompressed
// prefix path (e.g. "BA" -> ["B.1.1.529"]). For recombinants it has two
// or more entries, the designated parent lineage names (e.g.
// "XBB" -> ["BJ.1", "BA.2.75.3"]).
type AliasMap map[string][]string

// UnmarshalAliasKey parses the raw alias_key.json object, whose values
// are either a bare string or an array of strings. A trailing "*" on any
// parent name is stripped, and an empty string value maps the key to
// itself (used for top-level lineages like A, B).
func UnmarshalAliasKey(data []byte) (AliasMap, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "phylogeny: parse alias_key.json")
	}

	out := make(AliasMap, len(raw))
	for alias, value := range raw {
		var asArray []string
		if err := json.Unmarshal(value, &asArray); err == nil {
			paths := make([]string, len(asArray))
			for i, p := range asArray {
				paths[i] = strings.TrimSuffix(p, "*")
			}
			out[alias] = paths
			continue
		}

		var asString string
		if err := json.Unmarshal(value, &asString); err != nil {
			return nil, errors.Errorf("phylogeny: alias_key value for %q is neither string nor array", alias)
		}
		asString = strings.TrimSuffix(asString, "*")
		if asString == "" {
			asString = alias
		}
		out[alias] = []string{asString}
	}
	return out, nil
}

// IsRecombinantAlias reports whether alias is a recombinant (i.e. has
// more than one parent path).
func (m AliasMap) IsRecombinantAlias(name string) bool {
	paths, ok := m[name]
	return ok && len(paths) > 1
}

// Decompress expands a compressed SARS-CoV-2-style lineage name (e.g.
// "BA.5.2") into its full unaliased dotted path (e.g. "B.1.1.529.5.2").
// Names whose first dotted component is not a non-recombinant alias are
// returned unchanged.
func (m AliasMap) Decompress(name string) string {
	parts := strings.SplitN(name, ".", 4)
	prefix := parts[0]
	suffix := strings.Join(parts[1:], ".")

	paths, ok := m[prefix]
	if !ok || len(paths) != 1 {
		return name
	}
	if suffix == "" {
		return paths[0]
	}
	return paths[0] + "." + suffix
}

// Compress contracts a full dotted lineage path back down to its shortest
// alias form, inverse to Decompress for any name produced by this scheme.
func (m AliasMap) Compress(name string) string {
	inverse := make(map[string]string)
	for alias, paths := range m {
		if len(paths) != 1 {
			continue
		}
		inverse[paths[0]] = alias
	}

	parts := strings.Split(name, ".")
	if len(parts) <= 1 {
		return name
	}
	for i := len(parts); i > 0; i-- {
		prefix := strings.Join(parts[:i], ".")
		if alias, ok := inverse[prefix]; ok {
			suffix := parts[i:]
			if len(suffix) == 0 {
				return alias
			}
			return alias + "." + strings.Join(suffix, ".")
		}
	}
	return name
}

// ImmediateParents returns the direct parent(s) of name: the designated
// parent list if name is a recombinant alias (deduplicated, order
// preserved), otherwise the single decompressed-then-recompressed parent,
// or Root if name has no dotted ancestry left.
func (m AliasMap) ImmediateParents(name string) []string {
	if paths, ok := m[name]; ok && len(paths) > 1 {
		return dedupPreserveOrder(paths)
	}

	decompressed := m.Decompress(name)
	parts := strings.Split(decompressed, ".")
	if len(parts) <= 1 {
		return []string{Root}
	}
	parent := strings.Join(parts[:len(parts)-1], ".")
	parent = m.Compress(parent)
	return []string{parent}
}

func dedupPreserveOrder(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
