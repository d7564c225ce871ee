// Package pepfile reads tab separated peptide tables: the peptide result
// table of a search and per-dataset protein/peptide score lists.
package pepfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")

// Peptide is one row of a peptide result table.
type Peptide struct {
	Sequence string
	Score    float64 // best score of all PSMs of the sequence
	FDR      float64
}

// Normalized column names
const (
	colSequence    = "seq"
	colFDR         = "pepfdr"
	colJPOSTScores = "sameseqjpostscore"
)

// normalizeHeader lower-cases a column name and strips spaces, '-' and '_'.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func newTSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// ReadPeptides reads a peptide result table. Only the sequence column is
// required; missing or unparsable scores and FDRs read as 0.
func ReadPeptides(r io.Reader) ([]Peptide, error) {
	cr := newTSVReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx := map[string]int{colSequence: -1, colFDR: -1, colJPOSTScores: -1}
	for i, h := range header {
		if _, ok := idx[normalizeHeader(h)]; ok {
			idx[normalizeHeader(h)] = i
		}
	}
	if idx[colSequence] < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, colSequence)
	}
	field := func(row []string, col string) string {
		if i := idx[col]; i >= 0 && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var peps []Peptide
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		seq := field(row, colSequence)
		if seq == "" {
			continue
		}
		p := Peptide{Sequence: seq}
		p.FDR, _ = strconv.ParseFloat(field(row, colFDR), 64)
		for _, s := range strings.Split(field(row, colJPOSTScores), ",") {
			if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && v > p.Score {
				p.Score = v
			}
		}
		peps = append(peps, p)
	}
	return peps, nil
}

// ReadPeptidesFile reads the peptide result table at path.
func ReadPeptidesFile(path string) ([]Peptide, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	peps, err := ReadPeptides(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return peps, nil
}

// ScoreRecord is one line of a score list: the best score of a peptide
// sequence matched to a protein in a dataset.
type ScoreRecord struct {
	Dataset   string
	Accession string
	Sequence  string
	Score     float64
}

// ReadScoreList reads a score list (dataset, accession, sequence, score per
// line, no header) and keeps the records scoring at least minScore. Lines
// without exactly four columns or with a bad score are skipped.
func ReadScoreList(r io.Reader, minScore float64) ([]ScoreRecord, error) {
	cr := newTSVReader(r)
	var recs []ScoreRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) != 4 {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil || score < minScore {
			continue
		}
		recs = append(recs, ScoreRecord{
			Dataset:   row[0],
			Accession: row[1],
			Sequence:  row[2],
			Score:     score,
		})
	}
	return recs, nil
}

// ReadScoreListFile reads the score list at path.
func ReadScoreListFile(path string, minScore float64) ([]ScoreRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ReadScoreList(f, minScore)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}
