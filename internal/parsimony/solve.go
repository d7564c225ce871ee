package parsimony

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Default dispatch thresholds
const (
	DefaultProteinThreshold = 5000
	DefaultPeptideThreshold = 10000
)

// DefaultExactTimeout is the exact solver budget of the configuration
// defaults. Options without a timeout run the exact solver unbounded.
const DefaultExactTimeout = 60 * time.Second

// ErrInfeasible is returned when a solver produced a cover that does not
// cover the universe. Every key belongs to some set by construction, so this
// indicates a defect.
var ErrInfeasible = errors.New("parsimony: cover is infeasible")

// Algorithm selects a solver.
type Algorithm int

const (
	// Exact is the branch-and-bound solver.
	Exact Algorithm = iota
	// Heuristic is the greedy approximation.
	Heuristic
)

func (a Algorithm) String() string {
	switch a {
	case Exact:
		return "exact"
	case Heuristic:
		return "heuristic"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Solver computes a cover of p as set indices.
type Solver interface {
	Solve(ctx context.Context, p *Problem) ([]int, error)
}

// Cache stores covers by problem fingerprint.
type Cache interface {
	Get(key string) ([]string, bool, error)
	Put(key string, ids []string) error
}

// Options control dispatch.
type Options struct {
	ProteinThreshold int
	PeptideThreshold int
	// ExactTimeout bounds the exact solver; on expiry the greedy cover is
	// used. 0 means no limit.
	ExactTimeout time.Duration
	// LPCells is passed to BranchAndBound.
	LPCells int
	Cache   Cache
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Choose is the pure sizing function. Non-positive thresholds take their
// defaults.
func Choose(candidates, records int, opts Options) Algorithm {
	pt := opts.ProteinThreshold
	if pt <= 0 {
		pt = DefaultProteinThreshold
	}
	rt := opts.PeptideThreshold
	if rt <= 0 {
		rt = DefaultPeptideThreshold
	}
	if candidates > pt || records > rt {
		return Heuristic
	}
	return Exact
}

// Result is the outcome of Solve.
type Result struct {
	// Cover holds set indices: selection order for Heuristic, input order
	// for Exact.
	Cover     []int
	Algorithm Algorithm
	// FellBack is set when the exact solver ran out of time and the greedy
	// cover was used instead.
	FellBack bool
	Cached   bool
	Elapsed  time.Duration
}

// IDs returns the set IDs of the cover.
func (r Result) IDs(p *Problem) []string { return p.IDs(r.Cover) }

// Fingerprint identifies a problem and the algorithm chosen for it. Set
// order is significant since it can change tie-breaks.
func Fingerprint(p *Problem, alg Algorithm) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", alg)
	for i, s := range p.sets {
		keys := make([]string, len(p.members[i]))
		for j, k := range p.members[i] {
			keys[j] = p.keys[k]
		}
		sort.Strings(keys)
		fmt.Fprintf(h, "%q", s.ID)
		for _, k := range keys {
			fmt.Fprintf(h, " %q", k)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Solve computes a minimal cover of p. records is the number of evidence
// records behind the problem, used together with p.Len() for dispatch.
func Solve(ctx context.Context, p *Problem, records int, opts Options) (Result, error) {
	start := time.Now()
	log := opts.logger()
	res := Result{Algorithm: Choose(p.Len(), records, opts)}
	if p.NumKeys() == 0 {
		return res, nil
	}

	var key string
	if opts.Cache != nil {
		key = Fingerprint(p, res.Algorithm)
		ids, ok, err := opts.Cache.Get(key)
		if err != nil {
			log.Warn("cover cache lookup failed", "error", err)
		} else if ok {
			if cover, ok := p.indices(ids); ok && p.Covers(cover) {
				res.Cover = cover
				res.Cached = true
				res.Elapsed = time.Since(start)
				return res, nil
			}
			log.Warn("ignoring stale cached cover", "key", key)
		}
	}

	var err error
	switch res.Algorithm {
	case Exact:
		res.Cover, res.FellBack, err = solveExact(ctx, p, opts)
	default:
		res.Cover, err = Greedy{}.Solve(ctx, p)
	}
	if err != nil {
		return Result{}, err
	}
	if !p.Covers(res.Cover) {
		return Result{}, fmt.Errorf("%v solver: %w", res.Algorithm, ErrInfeasible)
	}
	res.Elapsed = time.Since(start)

	if opts.Cache != nil && !res.FellBack {
		if err := opts.Cache.Put(key, p.IDs(res.Cover)); err != nil {
			log.Warn("cover cache store failed", "error", err)
		}
	}
	return res, nil
}

func solveExact(ctx context.Context, p *Problem, opts Options) ([]int, bool, error) {
	ectx := ctx
	if opts.ExactTimeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, opts.ExactTimeout)
		defer cancel()
	}
	bb := BranchAndBound{LPCells: opts.LPCells, Logger: opts.Logger}
	cover, err := bb.Solve(ectx, p)
	if err == nil {
		return cover, false, nil
	}
	// Only our own deadline triggers the fallback
	if opts.ExactTimeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		opts.logger().Warn("exact solver timed out, using greedy cover",
			"timeout", opts.ExactTimeout, "sets", p.Len(), "keys", p.NumKeys())
		cover, err = Greedy{}.Solve(ctx, p)
		return cover, true, err
	}
	return nil, false, err
}
