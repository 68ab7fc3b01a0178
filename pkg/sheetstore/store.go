package sheetstore

import (
	"context"
	"errors"
	"strings"
)

// ErrTabNotFound is returned when the destination has no tab with the requested name
var ErrTabNotFound = errors.New("tab not found")

// Store reads and appends rows of a destination spreadsheet, one tab per account
type Store interface {
	// ReadColumn returns the non-blank values of the tab's first column, header included
	ReadColumn(ctx context.Context, spreadsheetID, tab string) ([]string, error)
	// AppendRows appends rows after the last used row of the tab in a single write
	AppendRows(ctx context.Context, spreadsheetID, tab string, rows [][]string) error
	// EnsureTab creates the tab with a header row when it does not exist
	EnsureTab(ctx context.Context, spreadsheetID, tab string, header []string) error
}

// columnRange is the A1 range covering the tab's first column
func columnRange(tab string) string {
	return quoteTab(tab) + "!A:A"
}

// anchorRange is the A1 cell appends and header writes are anchored to
func anchorRange(tab string) string {
	return quoteTab(tab) + "!A1"
}

// quoteTab quotes a sheet name for A1 notation
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// UsernameRows turns usernames into one single-cell row each
func UsernameRows(usernames []string) [][]string {
	rows := make([][]string, len(usernames))
	for i, u := range usernames {
		rows[i] = []string{u}
	}
	return rows
}
