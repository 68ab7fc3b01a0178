package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
)

func newTestAirtable(t *testing.T, handler http.HandlerFunc) *AirtableSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAirtableSource(AirtableOptions{
		BaseURL: server.URL,
		APIKey:  "key123",
		BaseID:  "appBase",
		Logger:  logger.NewNopLogger(),
	})
}

func TestAirtableListTargetsFollowsOffset(t *testing.T) {
	var offsets []string
	source := newTestAirtable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appBase/Accounts", r.URL.Path)
		assert.Equal(t, "Bearer key123", r.Header.Get("Authorization"))

		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		switch offset {
		case "":
			_, _ = w.Write([]byte(`{"records":[
				{"id":"rec1","fields":{"Username":"alice","Google Sheets":"https://docs.google.com/spreadsheets/d/S1/edit"}},
				{"id":"rec2","fields":{"Username":"bob"}}
			],"offset":"itr2"}`))
		default:
			_, _ = w.Write([]byte(`{"records":[
				{"id":"rec3","fields":{"Username":"carol","Google Sheets":"https://docs.google.com/spreadsheets/d/S3/edit#gid=0","Notes":"vip"}}
			]}`))
		}
	})

	targets, err := source.ListTargets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"", "itr2"}, offsets)

	require.Len(t, targets, 3)
	assert.Equal(t, "alice", targets[0].AccountID)
	assert.Equal(t, "S1", targets[0].Destination.SpreadsheetID)
	assert.Equal(t, "bob", targets[1].AccountID)
	assert.Equal(t, errs.KindTargetResolution, errs.KindOf(targets[1].Err))
	assert.Equal(t, "S3", targets[2].Destination.SpreadsheetID)
}

func TestAirtableCustomFieldNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records":[{"fields":{"Handle":"alice","sheet.url":"S9"}}]}`))
	}))
	defer server.Close()

	source := NewAirtableSource(AirtableOptions{
		BaseURL:       server.URL,
		BaseID:        "appBase",
		Table:         "Creators",
		UsernameField: "Handle",
		SheetField:    "sheet.url",
		Logger:        logger.NewNopLogger(),
	})

	targets, err := source.ListTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "alice", targets[0].AccountID)
	assert.Equal(t, "S9", targets[0].Destination.SpreadsheetID)
}

func TestAirtableFailureIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"AUTHENTICATION_REQUIRED","message":"Authentication required"}}`))
		}},
		{"no records", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items":[]}`))
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestAirtable(t, tt.handler).ListTargets(context.Background())
			require.Error(t, err)
			assert.True(t, errs.IsFatal(err))
			assert.Equal(t, errs.StageListTargets, errs.StageOf(err))
		})
	}
}
