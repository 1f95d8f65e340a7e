package redis

import (
	"context"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/querystack/relfeed/internal/engine"
	"github.com/querystack/relfeed/internal/query"
)

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	if err := e.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	if err := e.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Index: "idx"}); err == nil {
		t.Error("expected error for missing addrs")
	}
	if _, err := New(Config{Addrs: []string{"localhost:6379"}}); err == nil {
		t.Error("expected error for missing index")
	}
}

func TestUniqueKeyDefault(t *testing.T) {
	e := NewEngineForTest(nil, "idx", "", "")
	if e.UniqueKeyField() != "id" {
		t.Errorf("UniqueKeyField() = %q, want default id", e.UniqueKeyField())
	}
}

func TestSearch_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "idx"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("doc:1"),
			mock.RedisArray(
				mock.RedisString("title"), mock.RedisString("solar panels"),
				mock.RedisString("category"), mock.RedisString("renewable"),
			),
			mock.RedisString("doc:2"),
			mock.RedisArray(
				mock.RedisString("title"), mock.RedisString("solar farms"),
				mock.RedisString("category"), mock.RedisString("renewable"),
			),
		)))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	res, err := e.Search(context.Background(),
		&query.Term{Field: "title", Text: "solar"},
		engine.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.List.NumFound != 2 {
		t.Fatalf("numFound = %d, want 2", res.List.NumFound)
	}
	if res.List.Docs[0].ID != "1" || res.List.Docs[1].ID != "2" {
		t.Errorf("key prefix not stripped: %v", res.List.Docs)
	}
	if res.List.Docs[0].Fields["title"] != "solar panels" {
		t.Errorf("fields = %v", res.List.Docs[0].Fields)
	}
	if res.Raw == "" {
		t.Error("Raw query string should be recorded")
	}
}

func TestSearch_WithScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" {
				return false
			}
			for _, a := range cmd {
				if a == "WITHSCORES" {
					return true
				}
			}
			return false
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("doc:1"),
			mock.RedisString("1.75"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("solar")),
		)))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	res, err := e.Search(context.Background(),
		&query.Term{Field: "title", Text: "solar"},
		engine.SearchOptions{Limit: 10, WithScores: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.List.Docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(res.List.Docs))
	}
	if res.List.Docs[0].Score != 1.75 {
		t.Errorf("score = %v, want 1.75", res.List.Docs[0].Score)
	}
}

func TestSearch_SortByField(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			for i, a := range cmd {
				if a == "SORTBY" && i+2 < len(cmd) {
					return cmd[i+1] == "year" && cmd[i+2] == "DESC"
				}
			}
			return false
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	_, err := e.Search(context.Background(),
		&query.Term{Field: "title", Text: "solar"},
		engine.SearchOptions{
			Sort:  []query.SortField{{Field: "year", Desc: true}},
			Limit: 10,
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_ScoreSortOmitsSortBy(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			for _, a := range cmd {
				if a == "SORTBY" {
					return false
				}
			}
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	_, err := e.Search(context.Background(),
		&query.Term{Field: "title", Text: "solar"},
		engine.SearchOptions{
			Sort:  []query.SortField{{Field: query.ScoreField, Desc: true}},
			Limit: 10,
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_NeedDocSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("doc:7"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("solar")),
		)))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	res, err := e.Search(context.Background(),
		&query.Term{Field: "title", Text: "solar"},
		engine.SearchOptions{Limit: 10, NeedDocSet: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Set) != 1 || res.Set[0] != "7" {
		t.Errorf("set = %v, want [7]", res.Set)
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	res, err := e.Search(context.Background(),
		&query.Term{Field: "title", Text: "nomatch"},
		engine.SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.List.NumFound != 0 || len(res.List.Docs) != 0 {
		t.Errorf("result = %+v, want empty", res.List)
	}
}

func TestSearch_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	if _, err := e.Search(context.Background(),
		&query.Term{Field: "title", Text: "solar"},
		engine.SearchOptions{Limit: 10}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDocCount_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "*" &&
				cmd[3] == "LIMIT" && cmd[4] == "0" && cmd[5] == "0"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(1234))))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	n, err := e.DocCount(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1234 {
		t.Errorf("DocCount = %d, want 1234", n)
	}
}

func TestDocFreq_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "@body:(solar)"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	n, err := e.DocFreq(context.Background(), "body", "solar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("DocFreq = %d, want 42", n)
	}
}

func TestFacetCounts_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.AGGREGATE" && cmd[1] == "idx" &&
				cmd[2] == "@title:(solar)"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisArray(
				mock.RedisString("category"), mock.RedisString("fossil"),
				mock.RedisString("count"), mock.RedisString("1"),
			),
			mock.RedisArray(
				mock.RedisString("category"), mock.RedisString("renewable"),
				mock.RedisString("count"), mock.RedisString("3"),
			),
		)))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	res := &engine.DocListAndSet{Raw: "@title:(solar)"}
	counts, err := e.FacetCounts(context.Background(), res, []string{"category"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc := counts["category"]
	if len(fc) != 2 {
		t.Fatalf("facets = %v, want 2 values", fc)
	}
	// Ordered by count descending.
	if fc[0].Value != "renewable" || fc[0].Count != 3 {
		t.Errorf("top facet = %+v, want renewable/3", fc[0])
	}
}

func TestFacetCounts_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.AGGREGATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	e := NewEngineForTest(c, "idx", "id", "doc:")
	res := &engine.DocListAndSet{Raw: "*"}
	if _, err := e.FacetCounts(context.Background(), res, []string{"category"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTrimPrefix(t *testing.T) {
	tests := []struct {
		key, prefix, want string
	}{
		{"doc:42", "doc:", "42"},
		{"42", "doc:", "42"},
		{"doc:42", "", "doc:42"},
		{"doc:", "doc:", "doc:"},
	}
	for _, tc := range tests {
		if got := trimPrefix(tc.key, tc.prefix); got != tc.want {
			t.Errorf("trimPrefix(%q, %q) = %q, want %q", tc.key, tc.prefix, got, tc.want)
		}
	}
}
