package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/minio/highwayhash"

	"github.com/lehigh-university-libraries/bulkimport/normalize"
)

var fingerprintKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Fingerprint hashes a set of column names. Names are normalized and
// case-folded, duplicates removed and the result sorted, so column order,
// case and stray whitespace do not change the fingerprint.
func Fingerprint(columns []string) (string, error) {
	seen := make(map[string]bool, len(columns))
	var names []string
	for _, c := range columns {
		n := normalize.Fold(normalize.Name(c))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	sort.Strings(names)

	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	if _, err := hash.Write([]byte(strings.Join(names, "\n"))); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}
