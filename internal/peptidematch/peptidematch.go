// Package peptidematch drives the external PeptideMatch command line tool,
// which maps peptide sequences to the proteins of a FASTA database with
// leucine and isoleucine treated as equal. The exchange is file based: a
// query file with one sequence per line in, a tab separated match table out.
package peptidematch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/524D/protgraph/internal/protein"
)

// File names inside the work directory
const (
	IndexDir    = "db_index"
	QueryFile   = "peptides.txt"
	ResultFile  = "peptide_matches.txt"
	IndexLog    = "db_index.log"
	QueryLog    = "peptide_match.log"
	minColumns  = 5
	commentChar = '#'
)

// Runner runs PeptideMatch in a work directory.
type Runner struct {
	JavaBin string // default "java"
	Jar     string
	WorkDir string
	Logger  *slog.Logger
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r Runner) java() string {
	if r.JavaBin == "" {
		return "java"
	}
	return r.JavaBin
}

func (r Runner) indexArgs(fastaPath, indexDir string) []string {
	return []string{"-jar", r.Jar, "-a", "index", "-d", fastaPath, "-i", indexDir}
}

func (r Runner) queryArgs(queryPath, indexDir, outPath string) []string {
	return []string{"-jar", r.Jar, "-a", "query", "-l", "-e", "-Q", queryPath, "-i", indexDir, "-o", outPath}
}

// run executes java with args, sending its output to logName in the work
// directory.
func (r Runner) run(ctx context.Context, logName string, args []string) error {
	logf, err := os.Create(filepath.Join(r.WorkDir, logName))
	if err != nil {
		return err
	}
	defer logf.Close()

	cmd := exec.CommandContext(ctx, r.java(), args...)
	cmd.Stdout = logf
	cmd.Stderr = logf
	r.logger().Info("running PeptideMatch", "cmd", cmd.String())
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PeptideMatch %s (see %s): %w", args[3], logName, err)
	}
	return nil
}

// BuildIndex indexes the FASTA database and returns the index directory.
func (r Runner) BuildIndex(ctx context.Context, fastaPath string) (string, error) {
	dir, err := filepath.Abs(filepath.Join(r.WorkDir, IndexDir))
	if err != nil {
		return "", err
	}
	if err := r.run(ctx, IndexLog, r.indexArgs(fastaPath, dir)); err != nil {
		return "", err
	}
	return dir, nil
}

// Query matches seqs against the index and returns the result file path.
func (r Runner) Query(ctx context.Context, indexDir string, seqs []string) (string, error) {
	queryPath := filepath.Join(r.WorkDir, QueryFile)
	f, err := os.Create(queryPath)
	if err != nil {
		return "", err
	}
	if err := WriteQuery(f, seqs); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	outPath := filepath.Join(r.WorkDir, ResultFile)
	if err := r.run(ctx, QueryLog, r.queryArgs(queryPath, indexDir, outPath)); err != nil {
		return "", err
	}
	return outPath, nil
}

// Match runs index and query and parses the result.
func (r Runner) Match(ctx context.Context, fastaPath string, seqs []string) ([]protein.Match, error) {
	if err := os.MkdirAll(r.WorkDir, 0750); err != nil {
		return nil, err
	}
	indexDir, err := r.BuildIndex(ctx, fastaPath)
	if err != nil {
		return nil, err
	}
	outPath, err := r.Query(ctx, indexDir, seqs)
	if err != nil {
		return nil, err
	}
	return ReadResultFile(outPath)
}

// WriteQuery writes one sequence per line.
func WriteQuery(w io.Writer, seqs []string) error {
	bw := bufio.NewWriter(w)
	for _, s := range seqs {
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ParseResult parses a PeptideMatch result table. Comment lines start with
// '#'; lines with fewer than five columns are skipped. Columns are query
// sequence, accession field, (unused), start, end and optionally the L=I
// positions.
func ParseResult(rd io.Reader) ([]protein.Match, error) {
	var matches []protein.Match
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if len(line) == 0 || line[0] == commentChar {
			continue
		}
		parts := strings.Split(strings.TrimSpace(line), "\t")
		if len(parts) < minColumns {
			continue
		}
		m := protein.Match{
			Sequence:  parts[0],
			Accession: parts[1],
			Start:     parts[3],
			End:       parts[4],
		}
		if len(parts) > minColumns {
			m.LeqIPositions = parts[5]
		}
		matches = append(matches, m)
	}
	return matches, sc.Err()
}

// ReadResultFile parses the result table at path.
func ReadResultFile(path string) ([]protein.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseResult(f)
}
