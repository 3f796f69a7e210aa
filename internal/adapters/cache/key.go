package cache

import "strings"

// Key normalizes an address into a cache key: case-folded, single-spaced.
func Key(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func uniqueKeys(addresses []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(addresses))
	for _, a := range addresses {
		k := Key(a)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}
