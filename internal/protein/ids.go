package protein

import "fmt"

// IDs generates the identifiers of one dataset. Sequence numbers start at 1
// and follow creation order.
type IDs struct {
	dataset  string
	peptides int
	groups   int
}

// NewIDs returns the identifier counter for dataset (e.g. "1_1").
func NewIDs(dataset string) *IDs {
	return &IDs{dataset: dataset}
}

// Dataset returns the dataset label.
func (c *IDs) Dataset() string { return c.dataset }

// NextPeptide returns a new peptide ID.
func (c *IDs) NextPeptide() string {
	c.peptides++
	return fmt.Sprintf("PEP%s_%d", c.dataset, c.peptides)
}

// NextGroup returns a new protein group ID.
func (c *IDs) NextGroup() string {
	c.groups++
	return fmt.Sprintf("PG%s_%d", c.dataset, c.groups)
}

// Protein returns the ID of the protein with accession acc.
func (c *IDs) Protein(acc string) string {
	return fmt.Sprintf("PRT%s_%s", c.dataset, acc)
}

// Isoform returns the ID of the isoform with accession acc.
func (c *IDs) Isoform(acc string) string {
	return fmt.Sprintf("ISO%s_%s", c.dataset, acc)
}
