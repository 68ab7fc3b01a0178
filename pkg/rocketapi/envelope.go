package rocketapi

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	errs "followsync/pkg/errors"
)

// EnvelopeKind names one of the response shapes the upstream has shipped
type EnvelopeKind string

const (
	// EnvelopeAuto sniffs the shape of every response
	EnvelopeAuto EnvelopeKind = "auto"
	// EnvelopeFlat is data.users[] with data.next_max_id
	EnvelopeFlat EnvelopeKind = "flat"
	// EnvelopeGraph is data.user.edge_followed_by.edges[].node with page_info
	EnvelopeGraph EnvelopeKind = "graph"
	// EnvelopeWrapped is response.body.users[] with response.body.next_max_id
	EnvelopeWrapped EnvelopeKind = "wrapped"
)

// ParseEnvelopeKind validates a configured envelope name
func ParseEnvelopeKind(s string) (EnvelopeKind, error) {
	switch kind := EnvelopeKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case "":
		return EnvelopeAuto, nil
	case EnvelopeAuto, EnvelopeFlat, EnvelopeGraph, EnvelopeWrapped:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown envelope %q (expected auto, flat, graph or wrapped)", s)
	}
}

type pageNormalizer func(doc gjson.Result) (Page, error)

type userIDNormalizer func(doc gjson.Result) (string, error)

var pageNormalizers = map[EnvelopeKind]pageNormalizer{
	EnvelopeFlat:    normalizeFlatPage,
	EnvelopeGraph:   normalizeGraphPage,
	EnvelopeWrapped: normalizeWrappedPage,
}

var userIDNormalizers = map[EnvelopeKind]userIDNormalizer{
	EnvelopeFlat:    userIDAt("data.id"),
	EnvelopeGraph:   userIDAt("data.user.id"),
	EnvelopeWrapped: userIDAt("response.body.data.user.id"),
}

// parseDocument rejects bodies that are not JSON or that carry an upstream
// failure marker. Both are transient.
func parseDocument(body []byte, stage errs.Stage) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errs.Newf(errs.KindTransientUpstream, stage, "undecodable response body: %s", preview(body))
	}
	doc := gjson.ParseBytes(body)

	if success := doc.Get("success"); success.Exists() && !success.Bool() {
		return doc, errs.Newf(errs.KindTransientUpstream, stage, "upstream reported success=false: %s", preview(body))
	}
	if code := doc.Get("response.status_code"); code.Exists() {
		if c := int(code.Int()); c < 200 || c >= 300 {
			return doc, errs.New(errs.KindTransientUpstream, stage, "wrapped response reported failure").WithCode(c)
		}
	}
	return doc, nil
}

// detectPageEnvelope sniffs the follower page shape from the paths present
func detectPageEnvelope(doc gjson.Result) EnvelopeKind {
	switch {
	case doc.Get("response.body.users").IsArray():
		return EnvelopeWrapped
	case doc.Get("data.user.edge_followed_by").Exists():
		return EnvelopeGraph
	case doc.Get("data.users").IsArray():
		return EnvelopeFlat
	default:
		return ""
	}
}

// detectUserEnvelope sniffs the user info shape from the paths present
func detectUserEnvelope(doc gjson.Result) EnvelopeKind {
	switch {
	case doc.Get("response.body").Exists():
		return EnvelopeWrapped
	case doc.Get("data.user").IsObject():
		return EnvelopeGraph
	case doc.Get("data.id").Exists():
		return EnvelopeFlat
	default:
		return ""
	}
}

func normalizePage(kind EnvelopeKind, doc gjson.Result) (Page, error) {
	if kind == EnvelopeAuto {
		kind = detectPageEnvelope(doc)
	}
	normalize, ok := pageNormalizers[kind]
	if !ok {
		return Page{}, errs.Newf(errs.KindStructuralUpstream, errs.StageFetchPage, "unrecognized follower page envelope: %s", preview([]byte(doc.Raw)))
	}
	page, err := normalize(doc)
	if err != nil {
		return Page{}, err
	}
	page.Envelope = kind
	return page, nil
}

func normalizeUserID(kind EnvelopeKind, doc gjson.Result) (string, error) {
	if kind == EnvelopeAuto {
		kind = detectUserEnvelope(doc)
	}
	normalize, ok := userIDNormalizers[kind]
	if !ok {
		return "", errs.Newf(errs.KindStructuralUpstream, errs.StageFetchUserID, "unrecognized user info envelope: %s", preview([]byte(doc.Raw)))
	}
	return normalize(doc)
}

func normalizeFlatPage(doc gjson.Result) (Page, error) {
	followers, err := collectFollowers(doc.Get("data.users"), "data.users", "")
	if err != nil {
		return Page{}, err
	}
	return Page{Followers: followers, Next: Cursor(doc.Get("data.next_max_id").String())}, nil
}

func normalizeGraphPage(doc gjson.Result) (Page, error) {
	edge := doc.Get("data.user.edge_followed_by")
	followers, err := collectFollowers(edge.Get("edges"), "data.user.edge_followed_by.edges", "node.")
	if err != nil {
		return Page{}, err
	}

	page := Page{Followers: followers}
	if info := edge.Get("page_info"); info.Get("has_next_page").Bool() {
		page.Next = Cursor(info.Get("end_cursor").String())
	}
	return page, nil
}

func normalizeWrappedPage(doc gjson.Result) (Page, error) {
	body := doc.Get("response.body")
	followers, err := collectFollowers(body.Get("users"), "response.body.users", "")
	if err != nil {
		return Page{}, err
	}
	return Page{Followers: followers, Next: Cursor(body.Get("next_max_id").String())}, nil
}

// collectFollowers reads a users array; prefix locates the record inside each item
func collectFollowers(users gjson.Result, path, prefix string) ([]Follower, error) {
	if !users.IsArray() {
		return nil, errs.Newf(errs.KindStructuralUpstream, errs.StageFetchPage, "missing %s array", path)
	}

	items := users.Array()
	followers := make([]Follower, 0, len(items))
	for i, item := range items {
		username := item.Get(prefix + "username")
		if username.Type != gjson.String || strings.TrimSpace(username.String()) == "" {
			return nil, errs.Newf(errs.KindStructuralUpstream, errs.StageFetchPage, "%s[%d] has no username", path, i)
		}

		id := item.Get(prefix + "pk")
		if !id.Exists() {
			id = item.Get(prefix + "id")
		}
		followers = append(followers, Follower{
			Username: SanitizeUsername(username.String()),
			ID:       id.String(),
		})
	}
	return followers, nil
}

func userIDAt(path string) userIDNormalizer {
	return func(doc gjson.Result) (string, error) {
		id := doc.Get(path)
		if !id.Exists() || id.String() == "" {
			return "", errs.Newf(errs.KindStructuralUpstream, errs.StageFetchUserID, "missing %s", path)
		}
		return id.String(), nil
	}
}

// preview shortens a body for error messages
func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
