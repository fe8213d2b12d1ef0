package patch

import (
	"context"
	"fmt"
	"strings"
)

// Pipeline sequences source resolution, fence stripping, line normalization
// and structural validation. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	Resolver *Resolver
}

// New returns a Pipeline using the given resolver. A nil resolver fetches
// with http.DefaultClient and no size cap.
func New(r *Resolver) *Pipeline {
	if r == nil {
		r = &Resolver{}
	}
	return &Pipeline{Resolver: r}
}

// ValidateAndNormalize runs one assessment input through the pipeline.
// Malformed input is reported through the Verdict; err is non-nil only when
// ctx is cancelled or an internal invariant breaks (ErrInvariant).
func (p *Pipeline) ValidateAndNormalize(ctx context.Context, in RawInput) (Verdict, error) {
	raw, rej, err := p.Resolver.resolve(ctx, in)
	if err != nil {
		return Verdict{}, err
	}
	if rej != nil {
		return reject(rej.reason, rej.diag), nil
	}

	v := validate(normalize(raw))
	if v.Diagnostic.URL == "" && in.Kind == KindURL {
		v.Diagnostic.URL = in.URL
	}
	if err := checkVerdict(v); err != nil {
		return Verdict{}, err
	}
	return v, nil
}

// ProbeResult reports whether a pass-through URL is reachable. The body is
// not fetched; whoever creates the PR downloads and normalizes it.
type ProbeResult struct {
	Reachable  bool
	URL        string
	Reason     Reason
	Diagnostic Diagnostic
}

// Probe issues a HEAD request for a URL source. Inline sources are always
// reachable.
func (p *Pipeline) Probe(ctx context.Context, in RawInput) (ProbeResult, error) {
	if in.Kind != KindURL {
		return ProbeResult{Reachable: true}, nil
	}
	status, rej, err := p.Resolver.probe(ctx, in.URL)
	if err != nil {
		return ProbeResult{}, err
	}
	if rej != nil {
		return ProbeResult{URL: in.URL, Reason: rej.reason, Diagnostic: rej.diag}, nil
	}
	return ProbeResult{
		Reachable:  true,
		URL:        in.URL,
		Diagnostic: Diagnostic{StatusCode: status, URL: in.URL},
	}, nil
}

// checkVerdict guards the one promise callers rely on: an accepted verdict
// always carries normalized text.
func checkVerdict(v Verdict) error {
	if !v.Valid {
		if v.Reason == "" {
			return fmt.Errorf("%w: rejected verdict without reason", ErrInvariant)
		}
		return nil
	}
	if v.Reason != "" {
		return fmt.Errorf("%w: accepted verdict with reason %s", ErrInvariant, v.Reason)
	}
	if v.Patch.Empty() {
		return fmt.Errorf("%w: accepted verdict without patch", ErrInvariant)
	}
	if _, ok := fenceLine(v.Patch.Lines()); ok {
		return fmt.Errorf("%w: accepted patch contains a markdown fence", ErrInvariant)
	}
	text := v.Patch.text
	if !strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\n\n") {
		return fmt.Errorf("%w: accepted patch does not end with exactly one newline", ErrInvariant)
	}
	if normalizeLines(text) != text {
		return fmt.Errorf("%w: accepted patch is not normalized", ErrInvariant)
	}
	return nil
}
