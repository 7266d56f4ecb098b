package congress_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/adapters/congress"
	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/domain/vote"
	"github.com/okian/rollcall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func noSleep(context.Context, time.Duration) error { return nil }

// pages serves fixed bodies keyed by request path plus raw query.
func pages(t *testing.T, bodies map[string]string) (*httptest.Server, *[]string) {
	t.Helper()
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		requested = append(requested, key)
		body, ok := bodies[key]
		if !ok {
			http.Error(w, "not found: "+key, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &requested
}

func newFetcher(srv *httptest.Server, opts ...congress.Option) *congress.Fetcher {
	client := fetch.New(fetch.WithSleeper(noSleep), fetch.WithAPIKey("k"))
	return congress.NewFetcher(client, append([]congress.Option{congress.WithBaseURL(srv.URL)}, opts...)...)
}

func TestFetcher_FetchPage(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a listing page with a relative cursor carrying api_key", t, func() {
		srv, _ := pages(t, map[string]string{
			"/house-vote": `{"houseRollCallVotes":[{"congress":119,"sessionNumber":1,"rollCallNumber":1}],
				"pagination":{"next":"/house-vote?offset=1&api_key=SECRET"}}`,
		})

		page, err := newFetcher(srv).FetchPage(ctx, srv.URL+"/house-vote")

		Convey("Then items are probed and the cursor is made absolute without the key", func() {
			So(err, ShouldBeNil)
			So(page.Items, ShouldHaveLength, 1)
			So(page.Next, ShouldEqual, srv.URL+"/house-vote?offset=1")
		})
	})

	Convey("Given a last page", t, func() {
		srv, _ := pages(t, map[string]string{"/house-vote": `{"votes":[{"rollCallNumber":2}]}`})

		page, err := newFetcher(srv).FetchPage(ctx, srv.URL+"/house-vote")

		Convey("Then next is empty", func() {
			So(err, ShouldBeNil)
			So(page.Items, ShouldHaveLength, 1)
			So(page.Next, ShouldBeEmpty)
		})
	})
}

func TestFetcher_FetchAll(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given two pages repeating one roll call", t, func() {
		srv, _ := pages(t, map[string]string{
			"/house-vote": `{"votes":[
				{"congress":119,"session":1,"rollCallNumber":1,"title":"a"},
				{"congress":119,"session":1,"rollCallNumber":2,"title":"b"}],
				"pagination":{"next":"/house-vote?offset=2"}}`,
			"/house-vote?offset=2": `{"votes":[
				{"congress":119,"session":1,"rollCallNumber":2,"title":"b again"},
				{"congress":119,"session":1,"rollCallNumber":3,"title":"c"}]}`,
		})

		items, err := newFetcher(srv).FetchAll(ctx, srv.URL+"/house-vote")

		Convey("Then the duplicate is dropped and first-seen order kept", func() {
			So(err, ShouldBeNil)
			titles := make([]string, 0, len(items))
			for _, it := range items {
				titles = append(titles, it["title"].(string))
			}
			So(titles, ShouldResemble, []string{"a", "b", "c"})
		})
	})

	Convey("Given three pages where the second repeats an item from the first", t, func() {
		srv, requested := pages(t, map[string]string{
			"/senate-vote": `{"votes":[
				{"congress":119,"session":1,"rollCallNumber":1,"title":"a"},
				{"congress":119,"session":1,"rollCallNumber":2,"title":"b"}],
				"pagination":{"next":"/senate-vote?offset=2"}}`,
			"/senate-vote?offset=2": `{"votes":[
				{"congress":119,"session":1,"rollCallNumber":3,"title":"c"},
				{"congress":119,"session":1,"rollCallNumber":1,"title":"a repeated"}],
				"pagination":{"next":"/senate-vote?offset=4"}}`,
			"/senate-vote?offset=4": `{"votes":[
				{"congress":119,"session":1,"rollCallNumber":4,"title":"d"},
				{"congress":119,"session":2,"rollCallNumber":1,"title":"e"}]}`,
		})

		items, err := newFetcher(srv).FetchAll(ctx, srv.URL+"/senate-vote")

		Convey("Then one fewer item than the page total comes back in first-seen order", func() {
			So(err, ShouldBeNil)
			So(*requested, ShouldHaveLength, 3)
			titles := make([]string, 0, len(items))
			for _, it := range items {
				titles = append(titles, it["title"].(string))
			}
			So(titles, ShouldResemble, []string{"a", "b", "c", "d", "e"})
		})
	})

	Convey("Given items without a roll-call triple", t, func() {
		srv, _ := pages(t, map[string]string{
			"/x": `{"results":[{"n":1},{"n":1},{"n":2}]}`,
		})

		items, err := newFetcher(srv).FetchAll(ctx, srv.URL+"/x")

		Convey("Then identical content is de-duplicated", func() {
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
		})
	})

	Convey("Given a sequence whose second page fails", t, func() {
		srv, _ := pages(t, map[string]string{
			"/house-vote": `{"votes":[{"rollCallNumber":1}],"pagination":{"next":"/house-vote?offset=1"}}`,
		})

		items, err := newFetcher(srv).FetchAll(ctx, srv.URL+"/house-vote")

		Convey("Then the whole sequence fails with no partial items", func() {
			So(items, ShouldBeNil)
			var se *fetch.StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a cursor that points back at itself", t, func() {
		srv, requested := pages(t, map[string]string{
			"/loop": `{"votes":[{"rollCallNumber":1}],"pagination":{"next":"/loop"}}`,
		})

		items, err := newFetcher(srv).FetchAll(ctx, srv.URL+"/loop")

		Convey("Then draining stops after one request", func() {
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 1)
			So(*requested, ShouldHaveLength, 1)
		})
	})

	Convey("Given a page cap", t, func() {
		srv, requested := pages(t, map[string]string{
			"/p":          `{"votes":[{"rollCallNumber":1}],"pagination":{"next":"/p?offset=1"}}`,
			"/p?offset=1": `{"votes":[{"rollCallNumber":2}],"pagination":{"next":"/p?offset=2"}}`,
			"/p?offset=2": `{"votes":[{"rollCallNumber":3}]}`,
		})

		items, err := newFetcher(srv, congress.WithMaxPages(2)).FetchAll(ctx, srv.URL+"/p")

		Convey("Then no more than the cap is consumed", func() {
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
			So(*requested, ShouldHaveLength, 2)
		})
	})
}

func TestFetcher_ListRollCalls(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a House listing", t, func() {
		srv, requested := pages(t, map[string]string{
			"/house-vote?format=json&fromDateTime=2025-01-01T00%3A00%3A00Z&limit=250&toDateTime=2025-01-31T00%3A00%3A00Z": `{
				"houseRollCallVotes":[
					{"congress":119,"sessionNumber":1,"rollCallNumber":"17","voteQuestion":"On Passage",
					 "legislationType":"HR","legislationNumber":"22","result":"Passed","sourceDataURL":"https://clerk.house.gov/evs/2025/roll017.xml"},
					{"congress":119,"sessionNumber":1,"voteQuestion":"No roll number"}]}`,
		})

		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
		calls, err := newFetcher(srv).ListRollCalls(ctx, vote.House, from, to)

		Convey("Then each item with a roll number becomes a keyed roll call", func() {
			So(err, ShouldBeNil)
			So(*requested, ShouldHaveLength, 1)
			So(calls, ShouldHaveLength, 1)
			So(calls[0].Key.String(), ShouldEqual, "house-119-1-rc17")
			So(calls[0].Title, ShouldEqual, "On Passage")
			So(calls[0].Short, ShouldEqual, "HR 22")
			So(calls[0].Meaning, ShouldEqual, "Passed")
		})

		Convey("And its record form carries the rc pointer and nil offenders", func() {
			rec := calls[0].Record()
			So(rec.RC, ShouldNotBeNil)
			So(*rec.RC, ShouldResemble, calls[0].Key)
			So(rec.Award, ShouldEqual, vote.DefaultAward)
			So(rec.Offenders, ShouldBeNil)
		})
	})
}

func TestFetcher_MemberVotes(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a member-votes response", t, func() {
		srv, _ := pages(t, map[string]string{
			"/house-vote/119/1/17/members?format=json&limit=250": `{
				"houseRollCallVoteMemberVotes":{"results":[
					{"bioguideID":"A000001","voteCast":"Nay","firstName":"Ada","lastName":"Adams","voteParty":"D","voteState":"CA"},
					{"bioguideID":"B000002","voteCast":"Yea"},
					{"bioguideID":"A000001","voteCast":"Nay"},
					{"voteCast":"No"}]}}`,
		})

		key := vote.RollCallKey{Chamber: vote.House, Congress: 119, Session: 1, Roll: 17}
		entries, err := newFetcher(srv).MemberVotes(ctx, key)

		Convey("Then entries are normalized and de-duplicated by member", func() {
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].MemberID, ShouldEqual, "A000001")
			So(entries[0].Normalized, ShouldEqual, vote.Nay)
			So(entries[0].Name, ShouldEqual, "Ada Adams")
			So(entries[0].Party, ShouldEqual, "D")
			So(entries[0].State, ShouldEqual, "CA")
			So(entries[1].Normalized, ShouldEqual, vote.Yea)
		})
	})
}
