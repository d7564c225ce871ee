package protein

import (
	"sort"
	"strings"
)

type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	s := make(keySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// subsetOf reports whether every key of s is in o.
func (s keySet) subsetOf(o keySet) bool {
	if len(s) > len(o) {
		return false
	}
	for k := range s {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

// signature is a canonical string form of a key set for exact comparison.
func signature(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// Classify labels the consolidated proteins. A protein is leading when it
// or one of its isoforms is in the minimal cover. A non-leading protein
// whose evidence-set equals that of a leading protein is same, and those
// leading proteins become anchors. Otherwise it is subset of every leading
// protein whose evidence-set contains its own. Proteins without evidence
// stay unclassified.
func (d *Dataset) Classify() {
	sets := make([]keySet, len(d.Proteins))
	sigs := make([]string, len(d.Proteins))
	var leading []ProteinID
	exact := make(map[string][]ProteinID)
	for i := range d.Proteins {
		p := &d.Proteins[i]
		p.Leading = p.InOptimization
		for _, iso := range p.Isoforms {
			if d.Isoforms[iso].InOptimization {
				p.Leading = true
			}
		}
		p.Anchor, p.Same, p.Subset = false, false, false
		p.LeadingProteins = nil

		keys := d.EvidenceKeys(ProteinID(i))
		sets[i] = newKeySet(keys)
		sigs[i] = signature(keys)
		if p.Leading {
			leading = append(leading, ProteinID(i))
			exact[sigs[i]] = append(exact[sigs[i]], ProteinID(i))
		}
	}

	for i := range d.Proteins {
		p := &d.Proteins[i]
		if p.Leading || len(sets[i]) == 0 {
			continue
		}
		if anchors, ok := exact[sigs[i]]; ok {
			p.Same = true
			for _, a := range anchors {
				d.Proteins[a].Anchor = true
			}
			continue
		}
		for _, l := range leading {
			if sets[i].subsetOf(sets[l]) {
				p.Subset = true
				p.LeadingProteins = append(p.LeadingProteins, l)
			}
		}
	}
}

// MarkUniquePeptides sets the uniqueness flags of all peptides. A peptide is
// unique when exactly one protein has evidence of its exact sequence, and
// unique at evidence level when exactly one protein's evidence-set holds its
// canonical key. Only proteins with evidence count.
func (d *Dataset) MarkUniquePeptides() {
	seqCount := make(map[string]int)
	keyCount := make(map[string]int)
	for i := range d.Proteins {
		keys := d.EvidenceKeys(ProteinID(i))
		if len(keys) == 0 {
			continue
		}
		for _, k := range keys {
			keyCount[k]++
		}
		seqs := make(map[string]struct{})
		add := func(evs []Evidence) {
			for _, ev := range evs {
				seqs[d.Peptides[ev.Peptide].Sequence] = struct{}{}
			}
		}
		add(d.Proteins[i].Evidence)
		for _, iso := range d.Proteins[i].Isoforms {
			add(d.Isoforms[iso].Evidence)
		}
		for s := range seqs {
			seqCount[s]++
		}
	}
	for i := range d.Peptides {
		p := &d.Peptides[i]
		p.Unique = seqCount[p.Sequence] == 1
		p.UniqueAtEvidenceLevel = keyCount[p.Key] == 1
	}
}
