package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestFeedbackSendsParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/feedback" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"numFound":2,"start":0,"docs":[{"id":"1"},{"id":"2"}]}}`))
	}))
	defer srv.Close()

	maxDocs := 5
	c := New(srv.URL)
	res, err := c.Feedback(context.Background(), FeedbackRequest{
		Query:                 "id:1",
		Filters:               []string{"category:renewable", "year:2024"},
		Rows:                  20,
		MaxDocumentsToProcess: &maxDocs,
		InterestingTerms:      TermsList,
		Facet:                 true,
		FacetFields:           []string{"category"},
	})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}

	if res.Response.NumFound != 2 {
		t.Errorf("numFound = %d", res.Response.NumFound)
	}
	if gotQuery.Get("q") != "id:1" {
		t.Errorf("q = %q", gotQuery.Get("q"))
	}
	if len(gotQuery["fq"]) != 2 {
		t.Errorf("fq = %v", gotQuery["fq"])
	}
	if gotQuery.Get("maxDocumentsToProcess") != "5" {
		t.Errorf("maxDocumentsToProcess = %q", gotQuery.Get("maxDocumentsToProcess"))
	}
	if gotQuery.Get("interestingTerms") != "list" {
		t.Errorf("interestingTerms = %q", gotQuery.Get("interestingTerms"))
	}
	if gotQuery.Get("facet") != "true" || gotQuery.Get("facet.field") != "category" {
		t.Errorf("facet params = %v", gotQuery)
	}
}

func TestFeedbackSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"response":{"numFound":0,"start":0,"docs":[]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("secret"))
	if _, err := c.Feedback(context.Background(), FeedbackRequest{Query: "id:1"}); err != nil {
		t.Fatalf("feedback: %v", err)
	}
}

func TestFeedbackAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"unknown_parser","message":"unknown query parser"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Feedback(context.Background(), FeedbackRequest{Query: "id:1", Parser: "nope"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "unknown_parser" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestFeedbackRequiresQuery(t *testing.T) {
	c := New("http://localhost:0")
	if _, err := c.Feedback(context.Background(), FeedbackRequest{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestInterestingTermsUnmarshalBothStyles(t *testing.T) {
	var listStyle InterestingTerms
	if err := json.Unmarshal([]byte(`["body:solar","body:panels"]`), &listStyle); err != nil {
		t.Fatalf("list style: %v", err)
	}
	if len(listStyle.List) != 2 {
		t.Errorf("list = %v", listStyle.List)
	}

	var detailStyle InterestingTerms
	if err := json.Unmarshal([]byte(`[{"term":"body:solar","boost":1}]`), &detailStyle); err != nil {
		t.Fatalf("details style: %v", err)
	}
	if len(detailStyle.Details) != 1 || detailStyle.Details[0].Term != "body:solar" {
		t.Errorf("details = %v", detailStyle.Details)
	}
}

func TestFeedbackExplicitNullFacets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"numFound":0,"start":0,"docs":[]},"facet_counts":null}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Feedback(context.Background(), FeedbackRequest{Query: "id:none", Facet: true})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if res.Facets != nil {
		t.Errorf("explicit null should decode to nil, got %+v", res.Facets)
	}
}
