package registry

import (
	"context"
	"fmt"
	"strings"

	errs "followsync/pkg/errors"
	"followsync/pkg/rocketapi"
)

// DestinationRef identifies the spreadsheet an account syncs into
type DestinationRef struct {
	SpreadsheetID string
	URL           string
}

// Target is one account to sync. Err is set when the registry entry could
// not be resolved; such targets are skipped.
type Target struct {
	AccountID   string
	Destination DestinationRef
	Err         error
}

// Source lists the targets of a run
type Source interface {
	ListTargets(ctx context.Context) ([]Target, error)
}

// ParseDestination extracts the spreadsheet id from a URL of the form
// .../d/<id>/... A bare id without slashes is accepted as is.
func ParseDestination(raw string) (DestinationRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DestinationRef{}, fmt.Errorf("empty destination")
	}

	if i := strings.Index(raw, "/d/"); i >= 0 {
		id := raw[i+len("/d/"):]
		if j := strings.IndexAny(id, "/?#"); j >= 0 {
			id = id[:j]
		}
		if id == "" {
			return DestinationRef{}, fmt.Errorf("no spreadsheet id in %q", raw)
		}
		return DestinationRef{SpreadsheetID: id, URL: raw}, nil
	}

	if strings.ContainsAny(raw, "/ ") {
		return DestinationRef{}, fmt.Errorf("not a spreadsheet URL: %q", raw)
	}
	return DestinationRef{SpreadsheetID: raw, URL: raw}, nil
}

// NewTarget builds a Target from a raw registry entry
func NewTarget(username, destination string) Target {
	account := rocketapi.SanitizeUsername(username)
	target := Target{AccountID: account}

	switch {
	case account == "" && strings.TrimSpace(destination) == "":
		target.Err = errs.New(errs.KindTargetResolution, errs.StageResolveTarget, "entry has neither username nor destination")
		return target
	case account == "":
		target.Err = errs.New(errs.KindTargetResolution, errs.StageResolveTarget, "entry has no username")
		return target
	case !rocketapi.IsValidUsername(account):
		target.Err = &errs.Error{
			Kind:    errs.KindTargetResolution,
			Stage:   errs.StageResolveTarget,
			Account: account,
			Message: "invalid username",
		}
		return target
	}

	dest, err := ParseDestination(destination)
	if err != nil {
		target.Err = &errs.Error{
			Kind:    errs.KindTargetResolution,
			Stage:   errs.StageResolveTarget,
			Account: account,
			Message: "invalid destination",
			Err:     err,
		}
		return target
	}
	target.Destination = dest
	return target
}
