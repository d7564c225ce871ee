package mzidentml

import (
	"encoding/xml"
	"errors"
)

// Types for parsing mzIdentML

// MzIdentML holds only the part of mzIdentML files
// in which we are interested
type MzIdentML struct {
	pepID2PepIdx   map[string]int
	dbSeqID2SeqIdx map[string]int
	identList      []identRef
	content        mzIdentMLContent
}

type identRef struct {
	specResultIdx int // Index into SpectrumIdentificationItem
	specIDIdx     int // Index into SpectrumIdentificationResult
}

// Identification is one peptide-spectrum match
type Identification struct {
	PepSeq        string
	PepID         string
	SpecID        string
	Charge        int
	Rank          int
	PassThreshold bool
	EvidenceRefs  []string // IDs of the PeptideEvidence elements of this match
	Cv            []CVParam
}

// Evidence is the location of a peptide in a database sequence
type Evidence struct {
	ID        string
	PepSeq    string
	Accession string
	Start     string // empty when absent from the file
	End       string
	Pre       string
	Post      string
	IsDecoy   bool
}

// CVParam is a controlled vocabulary term with its value
type CVParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

type mzIdentMLContent struct {
	XMLName                      xml.Name                       `xml:"MzIdentML"`
	DBSequence                   []dbSequence                   `xml:"SequenceCollection>DBSequence"`
	Peptide                      []peptide                      `xml:"SequenceCollection>Peptide"`
	PeptideEvidence              []peptideEvidence              `xml:"SequenceCollection>PeptideEvidence"`
	SpectrumIdentificationResult []spectrumIdentificationResult `xml:"DataCollection>AnalysisData>SpectrumIdentificationList>SpectrumIdentificationResult"`
}

type dbSequence struct {
	ID        string `xml:"id,attr"`
	Accession string `xml:"accession,attr"`
}

type peptide struct {
	ID              string `xml:"id,attr"`
	PeptideSequence string
}

type peptideEvidence struct {
	ID            string `xml:"id,attr"`
	PeptideRef    string `xml:"peptide_ref,attr"`
	DBSequenceRef string `xml:"dBSequence_ref,attr"`
	Start         string `xml:"start,attr"`
	End           string `xml:"end,attr"`
	Pre           string `xml:"pre,attr"`
	Post          string `xml:"post,attr"`
	IsDecoy       bool   `xml:"isDecoy,attr"`
}

type spectrumIdentificationResult struct {
	SpectrumID                 string `xml:"spectrumID,attr"`
	SpectrumIdentificationItem []spectrumIdentificationItem
}

type spectrumIdentificationItem struct {
	ChargeState        int                  `xml:"chargeState,attr"`
	PeptideRef         string               `xml:"peptide_ref,attr"`
	Rank               int                  `xml:"rank,attr"`
	PassThreshold      bool                 `xml:"passThreshold,attr"`
	PeptideEvidenceRef []peptideEvidenceRef `xml:"PeptideEvidenceRef"`
	CvPar              []CVParam            `xml:"cvParam"`
}

type peptideEvidenceRef struct {
	Ref string `xml:"peptideEvidence_ref,attr"`
}

var (
	ErrInvalidIdentIndex    = errors.New("mzIdentML: invalid identification index")
	ErrInvalidEvidenceIndex = errors.New("mzIdentML: invalid peptide evidence index")
	ErrUnknownReference     = errors.New("mzIdentML: reference to unknown element")
)
