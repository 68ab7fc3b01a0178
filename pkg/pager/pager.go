package pager

import (
	"context"

	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
	"followsync/pkg/rocketapi"
)

// Upstream is the part of the follower API the driver needs
type Upstream interface {
	FetchUserID(ctx context.Context, username string) (string, error)
	FetchFollowerPage(ctx context.Context, userID string, cursor rocketapi.Cursor) (rocketapi.Page, error)
}

// State is a pagination state
type State string

const (
	StateFetchingID   State = "FETCHING_ID"
	StateFetchingPage State = "FETCHING_PAGE"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// StopReason explains why a driver reached DONE
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopCycle     StopReason = "cycle"
	StopError     StopReason = "error"
	StopCanceled  StopReason = "canceled"
	StopPageLimit StopReason = "page_limit"
)

// Result is the outcome of paging one account
type Result struct {
	Account   string
	UserID    string
	Followers []rocketapi.Follower
	Pages     int
	State     State
	Stop      StopReason
	// Partial is set when pagination ended before the upstream was exhausted
	Partial bool
	// Err is the page error that ended a partial result
	Err error
}

// Usernames returns follower usernames in order of first appearance
func (r Result) Usernames() []string {
	names := make([]string, len(r.Followers))
	for i, f := range r.Followers {
		names[i] = f.Username
	}
	return names
}

// Options configures a Driver
type Options struct {
	// MaxPages stops pagination after this many pages (0 means no cap)
	MaxPages int
	Logger   logger.Logger
}

// Driver pages through one account's followers
type Driver struct {
	upstream Upstream
	maxPages int
	logger   logger.Logger
}

// NewDriver creates a new pagination driver
func NewDriver(upstream Upstream, opts Options) *Driver {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &Driver{
		upstream: upstream,
		maxPages: opts.MaxPages,
		logger:   log,
	}
}

// Fetch resolves account to a user id and collects every follower page.
// An error is returned only when the user id cannot be resolved; page
// failures end in DONE with a partial Result.
func (d *Driver) Fetch(ctx context.Context, account string) (Result, error) {
	result := Result{Account: account, State: StateFetchingID}
	log := d.logger.WithField("account", account)

	userID, err := d.upstream.FetchUserID(ctx, account)
	if err != nil {
		result.State = StateFailed
		kind := errs.KindTargetFetch
		if ctx.Err() != nil {
			kind = errs.KindCanceled
		}
		log.WithError(err).Debug("Failed to resolve user id")
		return result, annotate(errs.Wrap(err, kind, errs.StageFetchUserID, "failed to resolve user id"), account)
	}
	result.UserID = userID
	result.State = StateFetchingPage

	seen := make(map[string]struct{})
	seenCursors := make(map[rocketapi.Cursor]struct{})
	var cursor rocketapi.Cursor

	for result.State == StateFetchingPage {
		if err := ctx.Err(); err != nil {
			d.finish(&result, StopCanceled, err)
			break
		}
		if d.maxPages > 0 && result.Pages >= d.maxPages {
			d.finish(&result, StopPageLimit, nil)
			break
		}

		page, err := d.upstream.FetchFollowerPage(ctx, userID, cursor)
		if err != nil {
			if ctx.Err() != nil {
				d.finish(&result, StopCanceled, err)
			} else {
				d.finish(&result, StopError, annotate(errs.Wrap(err, errs.KindTargetFetch, errs.StageFetchPage, "pagination stopped"), account))
			}
			break
		}

		result.Pages++
		for _, f := range page.Followers {
			if _, dup := seen[f.Username]; dup {
				continue
			}
			seen[f.Username] = struct{}{}
			result.Followers = append(result.Followers, f)
		}
		logger.LogPageFetched(d.logger, account, result.Pages, len(page.Followers), string(page.Next))

		switch _, repeated := seenCursors[page.Next]; {
		case page.Next == "":
			d.finish(&result, StopExhausted, nil)
		case repeated:
			log.WithField("cursor", string(page.Next)).Warn("Upstream repeated a cursor, stopping pagination")
			d.finish(&result, StopCycle, nil)
		default:
			seenCursors[page.Next] = struct{}{}
			cursor = page.Next
		}

		if result.Pages%10 == 0 {
			logger.LogFetchProgress(d.logger, account, result.Pages, len(result.Followers))
		}
	}

	log.InfoWithFields("Follower pagination finished", map[string]interface{}{
		"pages":     result.Pages,
		"followers": len(result.Followers),
		"stop":      string(result.Stop),
		"partial":   result.Partial,
	})
	return result, nil
}

// finish moves the driver to DONE
func (d *Driver) finish(r *Result, reason StopReason, err error) {
	r.State = StateDone
	r.Stop = reason
	r.Err = err
	r.Partial = reason == StopError || reason == StopCanceled || reason == StopPageLimit
}

func annotate(err error, account string) error {
	if e, ok := err.(*errs.Error); ok {
		return e.WithAccount(account)
	}
	return err
}
