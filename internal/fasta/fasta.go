// Package fasta reads protein sequence databases, plain or gzip compressed.
package fasta

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/524D/protgraph/internal/protein"
)

// Record is one FASTA entry. Title is the header line without '>'.
type Record struct {
	Title    string
	Sequence string
}

// Accession returns the accession of the record: the first word of the
// title, reduced from db|ACC|NAME to ACC.
func (r Record) Accession() string {
	title := r.Title
	if i := strings.IndexAny(title, " \t"); i >= 0 {
		title = title[:i]
	}
	return protein.Accession(title)
}

type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openReader opens path, decompressing gzip detected by magic number or
// .gz suffix.
func openReader(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		fh.Close()
		return nil, err
	}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}

// Read parses all records from r. Sequence lines are concatenated with
// whitespace removed.
func Read(r io.Reader) ([]Record, error) {
	var recs []Record
	var seq strings.Builder
	cur := -1
	flush := func() {
		if cur >= 0 {
			recs[cur].Sequence = seq.String()
		}
		seq.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == ';' {
			continue
		}
		if text[0] == '>' {
			flush()
			recs = append(recs, Record{Title: strings.TrimSpace(text[1:])})
			cur = len(recs) - 1
			continue
		}
		if cur < 0 {
			return nil, fmt.Errorf("line %d: sequence data before first header", line)
		}
		seq.WriteString(strings.Join(strings.Fields(text), ""))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return recs, nil
}

// ReadFile reads the FASTA file at path.
func ReadFile(path string) ([]Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	recs, err := Read(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Index maps accessions to sequences.
type Index map[string]string

// NewIndex indexes records by accession. The first record of an accession
// wins.
func NewIndex(recs []Record) Index {
	idx := make(Index, len(recs))
	for _, r := range recs {
		acc := r.Accession()
		if _, ok := idx[acc]; !ok {
			idx[acc] = r.Sequence
		}
	}
	return idx
}

// Sequence returns the sequence of accession acc.
func (idx Index) Sequence(acc string) (string, bool) {
	s, ok := idx[acc]
	return s, ok
}
