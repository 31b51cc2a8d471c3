package manager

import (
	goversion "github.com/hashicorp/go-version"
)

// Newest returns the highest semantic version in the list. Entries that do
// not parse as versions (aliases, system markers) are ignored. The second
// return is false when nothing parsed.
func Newest(versions []string) (string, bool) {
	var best *goversion.Version
	bestRaw := ""

	for _, raw := range versions {
		v, err := goversion.NewVersion(raw)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	return bestRaw, best != nil
}
