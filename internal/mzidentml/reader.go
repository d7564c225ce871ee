package mzidentml

import (
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Read reads mzIdentML content from io.reader
func Read(reader io.Reader) (MzIdentML, error) {
	var mzIdentML MzIdentML
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel
	err := d.Decode(&mzIdentML.content)
	if err != nil {
		return mzIdentML, err
	}
	mzIdentML.buildRefIndexes()
	mzIdentML.buildIdentList()
	return mzIdentML, err
}

func (m *MzIdentML) buildRefIndexes() {
	m.pepID2PepIdx = make(map[string]int, len(m.content.Peptide))
	for i, p := range m.content.Peptide {
		m.pepID2PepIdx[p.ID] = i
	}
	m.dbSeqID2SeqIdx = make(map[string]int, len(m.content.DBSequence))
	for i, s := range m.content.DBSequence {
		m.dbSeqID2SeqIdx[s.ID] = i
	}
}

func (m *MzIdentML) buildIdentList() {
	for i := range m.content.SpectrumIdentificationResult {
		for j := range m.content.SpectrumIdentificationResult[i].SpectrumIdentificationItem {
			m.identList = append(m.identList, identRef{specIDIdx: i, specResultIdx: j})
		}
	}
}

// NumIdents returns the total number of identifications in the mzIdentML file
// Note that for some spectra, multiple identifications may be present
// The identifications can be accessed using the Ident() method, which takes
// an index as argument. The index runs from 0 to NumIdents()-1
func (m *MzIdentML) NumIdents() int {
	return len(m.identList)
}

// Ident returns a spectrum identification from the mzIdentML file.
// Parameter i is the index of the identification to return. The index runs
// from 0 to NumIdents()-1
func (m *MzIdentML) Ident(i int) (Identification, error) {
	var ident Identification

	if i < 0 || i >= len(m.identList) {
		return ident, ErrInvalidIdentIndex
	}
	result := &m.content.SpectrumIdentificationResult[m.identList[i].specIDIdx]
	item := &result.SpectrumIdentificationItem[m.identList[i].specResultIdx]

	pepIdx, ok := m.pepID2PepIdx[item.PeptideRef]
	if !ok {
		return ident, fmt.Errorf("%w: peptide %q", ErrUnknownReference, item.PeptideRef)
	}
	ident.PepSeq = m.content.Peptide[pepIdx].PeptideSequence
	ident.PepID = m.content.Peptide[pepIdx].ID
	ident.SpecID = result.SpectrumID
	ident.Charge = item.ChargeState
	ident.Rank = item.Rank
	ident.PassThreshold = item.PassThreshold
	for _, ref := range item.PeptideEvidenceRef {
		ident.EvidenceRefs = append(ident.EvidenceRefs, ref.Ref)
	}
	// Collect CV terms/values for the identification, the scores are in there
	ident.Cv = append(ident.Cv, item.CvPar...)

	return ident, nil
}

// NumEvidence returns the number of PeptideEvidence elements. They can be
// accessed using the Evidence() method with an index from 0 to
// NumEvidence()-1
func (m *MzIdentML) NumEvidence() int {
	return len(m.content.PeptideEvidence)
}

// Evidence returns peptide evidence i with the peptide sequence and the
// database accession resolved.
func (m *MzIdentML) Evidence(i int) (Evidence, error) {
	var ev Evidence

	if i < 0 || i >= len(m.content.PeptideEvidence) {
		return ev, ErrInvalidEvidenceIndex
	}
	pe := &m.content.PeptideEvidence[i]
	pepIdx, ok := m.pepID2PepIdx[pe.PeptideRef]
	if !ok {
		return ev, fmt.Errorf("%w: peptide %q", ErrUnknownReference, pe.PeptideRef)
	}
	seqIdx, ok := m.dbSeqID2SeqIdx[pe.DBSequenceRef]
	if !ok {
		return ev, fmt.Errorf("%w: DBSequence %q", ErrUnknownReference, pe.DBSequenceRef)
	}
	ev.ID = pe.ID
	ev.PepSeq = m.content.Peptide[pepIdx].PeptideSequence
	ev.Accession = m.content.DBSequence[seqIdx].Accession
	ev.Start = pe.Start
	ev.End = pe.End
	ev.Pre = pe.Pre
	ev.Post = pe.Post
	ev.IsDecoy = pe.IsDecoy
	return ev, nil
}
