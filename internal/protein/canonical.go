package protein

import "strings"

// Mass spectrometry cannot tell leucine from isoleucine; both are folded to
// this placeholder.
const leucineIsoleucine = 'J'

var ilReplacer = strings.NewReplacer("I", string(leucineIsoleucine), "L", string(leucineIsoleucine))

// Canonical returns the comparison key of a peptide sequence.
func Canonical(seq string) string {
	return ilReplacer.Replace(seq)
}
