package patch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Resolver turns a RawInput into raw patch text. It performs at most one
// network call and never retries.
type Resolver struct {
	// HTTPClient is used for URL sources. http.DefaultClient when nil.
	HTTPClient *http.Client
	// MaxBytes caps the fetched body. Zero means unlimited.
	MaxBytes int64
}

// rejection is a resolver failure that maps onto a Verdict.
type rejection struct {
	reason Reason
	diag   Diagnostic
}

func (r *Resolver) client() *http.Client {
	if r != nil && r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

// resolve fetches or passes through the raw text. A non-nil error is only
// returned when ctx was cancelled.
func (r *Resolver) resolve(ctx context.Context, in RawInput) (string, *rejection, error) {
	switch in.Kind {
	case KindInline:
		if !isText(in.Text) {
			return "", &rejection{ReasonEmptyOrNotText, Diagnostic{Message: "inline input is not text"}}, nil
		}
		return in.Text, nil, nil
	case KindURL:
		return r.fetch(ctx, in.URL)
	default:
		return "", &rejection{ReasonSourceUnreachable, Diagnostic{Message: fmt.Sprintf("unknown input kind %q", in.Kind)}}, nil
	}
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) (string, *rejection, error) {
	req, rej := newRequest(ctx, http.MethodGet, rawURL)
	if rej != nil {
		return "", rej, nil
	}

	resp, err := r.client().Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", nil, ctxErr
		}
		return "", &rejection{ReasonFetchFailed, Diagnostic{Message: err.Error(), URL: rawURL}}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &rejection{ReasonFetchFailed, Diagnostic{
			Message:    fmt.Sprintf("GET returned %s", resp.Status),
			StatusCode: resp.StatusCode,
			URL:        rawURL,
		}}, nil
	}

	var body io.Reader = resp.Body
	if r != nil && r.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, r.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", nil, ctxErr
			}
		}
		return "", &rejection{ReasonFetchFailed, Diagnostic{
			Message:    fmt.Sprintf("reading body: %v", err),
			StatusCode: resp.StatusCode,
			URL:        rawURL,
		}}, nil
	}
	if r != nil && r.MaxBytes > 0 && int64(len(data)) > r.MaxBytes {
		return "", &rejection{ReasonFetchFailed, Diagnostic{
			Message:    fmt.Sprintf("body exceeds %d bytes", r.MaxBytes),
			StatusCode: resp.StatusCode,
			URL:        rawURL,
		}}, nil
	}

	text := string(data)
	if !isText(text) {
		return "", &rejection{ReasonEmptyOrNotText, Diagnostic{
			Message:    "response body is not text",
			StatusCode: resp.StatusCode,
			URL:        rawURL,
		}}, nil
	}
	return text, nil, nil
}

// probe confirms a URL answers a HEAD request with 2xx.
func (r *Resolver) probe(ctx context.Context, rawURL string) (int, *rejection, error) {
	req, rej := newRequest(ctx, http.MethodHead, rawURL)
	if rej != nil {
		return 0, rej, nil
	}
	resp, err := r.client().Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, &rejection{ReasonFetchFailed, Diagnostic{Message: err.Error(), URL: rawURL}}, nil
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &rejection{ReasonFetchFailed, Diagnostic{
			Message:    fmt.Sprintf("HEAD returned %s", resp.Status),
			StatusCode: resp.StatusCode,
			URL:        rawURL,
		}}, nil
	}
	return resp.StatusCode, nil, nil
}

// newRequest rejects URLs that cannot be addressed at all before any
// network traffic happens.
func newRequest(ctx context.Context, method, rawURL string) (*http.Request, *rejection) {
	unreachable := func(msg string) *rejection {
		return &rejection{ReasonSourceUnreachable, Diagnostic{Message: msg, URL: rawURL}}
	}
	if rawURL == "" {
		return nil, unreachable("empty URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, unreachable(fmt.Sprintf("parsing URL: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, unreachable(fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, unreachable("URL has no host")
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, unreachable(fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("Accept", "text/plain, text/x-diff, */*")
	return req, nil
}
