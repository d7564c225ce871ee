package protein

import "strings"

// BaseAccession splits an isoform accession BASE-<n> into BASE. isoform is
// false when acc carries no numeric isoform suffix.
func BaseAccession(acc string) (base string, isoform bool) {
	i := strings.LastIndexByte(acc, '-')
	if i <= 0 || i == len(acc)-1 {
		return acc, false
	}
	for _, c := range acc[i+1:] {
		if c < '0' || c > '9' {
			return acc, false
		}
	}
	return acc[:i], true
}

// Consolidate merges candidates into base proteins with isoform children.
// cover holds the accessions of the minimal cover; the protein or isoform
// with a cover accession is flagged InOptimization. Base proteins follow the
// first appearance of the base or any of its isoforms. A base that did not
// match itself is synthesized without evidence.
func (d *Dataset) Consolidate(cover []string) {
	inCover := make(map[string]bool, len(cover))
	for _, acc := range cover {
		inCover[acc] = true
	}
	matchedBase := make(map[string]CandidateID)
	for i := range d.Candidates {
		if _, iso := BaseAccession(d.Candidates[i].Accession); !iso {
			matchedBase[d.Candidates[i].Accession] = CandidateID(i)
		}
	}

	d.Proteins = d.Proteins[:0]
	d.Isoforms = d.Isoforms[:0]
	byBase := make(map[string]ProteinID)
	for i := range d.Candidates {
		c := &d.Candidates[i]
		base, iso := BaseAccession(c.Accession)
		pid, ok := byBase[base]
		if !ok {
			pid = ProteinID(len(d.Proteins))
			byBase[base] = pid
			p := Protein{
				ID:        d.ids.Protein(base),
				Accession: base,
				Title:     c.Title,
				Group:     NoGroup,
			}
			if bc, ok := matchedBase[base]; ok {
				p.Title = d.Candidates[bc].Title
			} else {
				p.Synthesized = true
			}
			d.Proteins = append(d.Proteins, p)
		}
		if !iso {
			p := &d.Proteins[pid]
			p.Evidence = c.Evidence
			p.InOptimization = inCover[c.Accession]
			continue
		}
		iid := IsoformID(len(d.Isoforms))
		d.Isoforms = append(d.Isoforms, Isoform{
			ID:             d.ids.Isoform(c.Accession),
			Accession:      c.Accession,
			Protein:        pid,
			Evidence:       c.Evidence,
			InOptimization: inCover[c.Accession],
		})
		d.Proteins[pid].Isoforms = append(d.Proteins[pid].Isoforms, iid)
	}
}
