package rocketapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	errs "followsync/pkg/errors"
)

const (
	flatPage = `{"success":true,"data":{"users":[{"pk":1,"username":"bob"},{"pk":2,"username":"carol"}],"next_max_id":"QVFE"}}`

	graphPage = `{"status":"ok","data":{"user":{"edge_followed_by":{"count":2,
		"page_info":{"has_next_page":true,"end_cursor":"abc=="},
		"edges":[{"node":{"id":"1","username":"bob"}},{"node":{"id":"2","username":"carol"}}]}}}}`

	wrappedPage = `{"status":"done","response":{"status_code":200,"body":{"users":[{"pk":"1","username":"bob"},{"pk":"2","username":"carol"}],"next_max_id":null}}}`
)

func TestParseEnvelopeKind(t *testing.T) {
	for input, want := range map[string]EnvelopeKind{
		"":        EnvelopeAuto,
		"auto":    EnvelopeAuto,
		" Flat ":  EnvelopeFlat,
		"graph":   EnvelopeGraph,
		"WRAPPED": EnvelopeWrapped,
	} {
		got, err := ParseEnvelopeKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseEnvelopeKind("xml")
	assert.Error(t, err)
}

func TestNormalizePageAutoDetect(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		envelope EnvelopeKind
		next     Cursor
	}{
		{"flat", flatPage, EnvelopeFlat, "QVFE"},
		{"graph", graphPage, EnvelopeGraph, "abc=="},
		{"wrapped", wrappedPage, EnvelopeWrapped, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseDocument([]byte(tt.body), errs.StageFetchPage)
			require.NoError(t, err)

			page, err := normalizePage(EnvelopeAuto, doc)
			require.NoError(t, err)

			assert.Equal(t, tt.envelope, page.Envelope)
			assert.Equal(t, tt.next, page.Next)
			require.Len(t, page.Followers, 2)
			assert.Equal(t, "bob", page.Followers[0].Username)
			assert.Equal(t, "1", page.Followers[0].ID)
			assert.Equal(t, "carol", page.Followers[1].Username)
		})
	}
}

func TestNormalizePageConfiguredMismatchIsStructural(t *testing.T) {
	doc := gjson.Parse(flatPage)
	_, err := normalizePage(EnvelopeWrapped, doc)
	require.Error(t, err)
	assert.Equal(t, errs.KindStructuralUpstream, errs.KindOf(err))
}

func TestNormalizePageGraphLastPage(t *testing.T) {
	body := `{"data":{"user":{"edge_followed_by":{"page_info":{"has_next_page":false,"end_cursor":"stale"},"edges":[]}}}}`
	page, err := normalizePage(EnvelopeAuto, gjson.Parse(body))
	require.NoError(t, err)
	assert.Empty(t, page.Followers)
	assert.Equal(t, Cursor(""), page.Next)
}

func TestNormalizePageStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown shape", `{"items":[]}`},
		{"missing username", `{"data":{"users":[{"pk":1}]}}`},
		{"numeric username", `{"data":{"users":[{"username":42}]}}`},
		{"users not array", `{"response":{"body":{"users":"bob"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizePage(EnvelopeAuto, gjson.Parse(tt.body))
			require.Error(t, err)
			assert.Equal(t, errs.KindStructuralUpstream, errs.KindOf(err))
			assert.Equal(t, errs.StageFetchPage, errs.StageOf(err))
		})
	}
}

func TestNormalizePageIgnoresExtraFields(t *testing.T) {
	body := `{"success":true,"data":{"users":[{"username":" @bob ","full_name":"Bob","is_private":true}],"big_list":true}}`
	page, err := normalizePage(EnvelopeFlat, gjson.Parse(body))
	require.NoError(t, err)
	require.Len(t, page.Followers, 1)
	assert.Equal(t, "bob", page.Followers[0].Username)
}

func TestNormalizeUserID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"flat numeric", `{"data":{"id":1234567890123}}`, "1234567890123"},
		{"graph", `{"data":{"user":{"id":"42","username":"alice"}}}`, "42"},
		{"wrapped", `{"response":{"status_code":200,"body":{"data":{"user":{"id":"77"}}}}}`, "77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := normalizeUserID(EnvelopeAuto, gjson.Parse(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	_, err := normalizeUserID(EnvelopeAuto, gjson.Parse(`{"data":{}}`))
	require.Error(t, err)
	assert.Equal(t, errs.KindStructuralUpstream, errs.KindOf(err))
	assert.Equal(t, errs.StageFetchUserID, errs.StageOf(err))
}

func TestParseDocumentTransientMarkers(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>gateway timeout</html>`},
		{"truncated", `{"data":{"users":[`},
		{"success false", `{"success":false,"message":"try later"}`},
		{"wrapped failure", `{"response":{"status_code":500,"body":{}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDocument([]byte(tt.body), errs.StageFetchPage)
			require.Error(t, err)
			assert.Equal(t, errs.KindTransientUpstream, errs.KindOf(err))
		})
	}
}
