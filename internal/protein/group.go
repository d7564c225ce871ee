package protein

// BuildGroups assigns every consolidated protein to exactly one group.
// Groups are seeded from the cover, one per base accession, and the
// proteins of that base join it. Every other protein joins the first group
// whose accumulated evidence contains its own evidence-set, or else starts a
// new group.
func (d *Dataset) BuildGroups(cover []string) {
	d.Groups = d.Groups[:0]
	byBase := make(map[string]GroupID)
	for _, acc := range cover {
		base, _ := BaseAccession(acc)
		if _, ok := byBase[base]; !ok {
			byBase[base] = d.newGroup()
		}
	}
	for i := range d.Proteins {
		d.Proteins[i].Group = NoGroup
	}

	for i := range d.Proteins {
		if g, ok := byBase[d.Proteins[i].Accession]; ok {
			d.join(g, ProteinID(i), d.EvidenceKeys(ProteinID(i)))
		}
	}
	for i := range d.Proteins {
		if d.Proteins[i].Group != NoGroup {
			continue
		}
		keys := d.EvidenceKeys(ProteinID(i))
		set := newKeySet(keys)
		g := NoGroup
		for j := range d.Groups {
			if set.subsetOf(d.Groups[j].keys) {
				g = GroupID(j)
				break
			}
		}
		if g == NoGroup {
			g = d.newGroup()
		}
		d.join(g, ProteinID(i), keys)
	}
}

func (d *Dataset) newGroup() GroupID {
	d.Groups = append(d.Groups, Group{ID: d.ids.NextGroup(), keys: make(keySet)})
	return GroupID(len(d.Groups) - 1)
}

func (d *Dataset) join(g GroupID, p ProteinID, keys []string) {
	grp := &d.Groups[g]
	grp.Proteins = append(grp.Proteins, p)
	for _, k := range keys {
		grp.keys[k] = struct{}{}
	}
	d.Proteins[p].Group = g
}

// groupKeys returns the number of distinct canonical keys in group g.
func (d *Dataset) groupKeys(g GroupID) int { return len(d.Groups[g].keys) }
