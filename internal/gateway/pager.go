package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-orgstats/internal/domain"
)

// PageObserver is told how many pages a listing has and when each one is done.
type PageObserver interface {
	AddWork(n int)
	CompleteWork(n int)
}

// PageOptions controls a paginated REST listing.
type PageOptions struct {
	PerPage int
	// MaxPages caps the number of pages fetched. Zero means no cap.
	MaxPages int
}

// listFunc fetches one page of a go-github listing.
type listFunc[T any] func(ctx context.Context, opts github.ListOptions) ([]T, *github.Response, error)

// fetchAllPages walks a listing page by page, starting at page 1. The last
// page is taken from the first response's Link header; without one the
// first page is the only page. Items are returned in page order and the
// result is never nil.
func fetchAllPages[T any](ctx context.Context, logger logrus.FieldLogger, list listFunc[T], opts PageOptions, observer PageObserver) ([]T, error) {
	all := make([]T, 0)
	page, last := 1, 0
	for {
		items, resp, err := list(ctx, github.ListOptions{Page: page, PerPage: opts.PerPage})
		if err != nil {
			// GitHub answers some listings with 204 or an object instead of an
			// array. Both count as an empty page.
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				return nil, err
			}
			items = nil
		}

		if last == 0 {
			var linkErr error
			last, linkErr = lastPage(resp, page)
			if linkErr != nil {
				logger.WithError(linkErr).Debug("Assuming a single page")
			}
			if opts.MaxPages > 0 && last > opts.MaxPages {
				last = opts.MaxPages
			}
			if observer != nil {
				observer.AddWork(last)
			}
		}

		all = append(all, items...)
		if observer != nil {
			observer.CompleteWork(1)
		}
		if page >= last {
			return all, nil
		}
		page++
	}
}

// lastPage reads the page number of the rel="last" entry of the Link header.
// It returns current when there is no such entry.
func lastPage(resp *github.Response, current int) (int, error) {
	if resp == nil || resp.Response == nil {
		return current, nil
	}
	link := resp.Header.Get("Link")
	if link == "" {
		return current, nil
	}

	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="last"`) {
			continue
		}
		target, _, ok := strings.Cut(strings.TrimSpace(part), ">")
		if !ok || !strings.HasPrefix(target, "<") {
			return current, &domain.PaginationError{Link: link, Err: errors.New("missing <url>")}
		}
		u, err := url.Parse(strings.TrimPrefix(target, "<"))
		if err != nil {
			return current, &domain.PaginationError{Link: link, Err: err}
		}
		n, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil {
			return current, &domain.PaginationError{Link: link, Err: err}
		}
		if n < 1 {
			return current, &domain.PaginationError{Link: link, Err: fmt.Errorf("invalid page %d", n)}
		}
		if n < current {
			n = current
		}
		return n, nil
	}
	return current, nil
}
