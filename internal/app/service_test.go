package service_test

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/adapters/repository"
	service "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/scoring"
	"github.com/okian/rollcall/internal/domain/vote"
	"github.com/okian/rollcall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var fixed = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

const roster = `[
  {"id":{"bioguide":"A001","fec":["H1"]},"name":{"first":"Ada","last":"Adams"},
   "terms":[{"type":"rep","state":"CA","district":1,"party":"Democrat"}]},
  {"id":{"bioguide":"B002","fec":["H2"]},"name":{"first":"Bo","last":"Baker"},
   "terms":[{"type":"sen","state":"NY","party":"Republican"}]},
  {"id":{"bioguide":"C003"},"name":{"first":"Cy","last":"Cole"},
   "terms":[{"type":"rep","state":"TX","district":2,"party":"Independent"}]}
]`

type upstream struct {
	srv    *httptest.Server
	hits   atomic.Int64
	photos atomic.Int64
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	reply := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	reply("/house-vote", `{"houseRollCallVotes":[
		{"congress":119,"sessionNumber":1,"rollCallNumber":1,"voteQuestion":"Campaign Finance Disclosure","result":"Passed"},
		{"congress":119,"sessionNumber":1,"rollCallNumber":2,"voteQuestion":"Highway Funding","result":"Passed"}]}`)
	reply("/house-vote/119/1/1/members", `{"houseRollCallVoteMemberVotes":{"results":[
		{"bioguideID":"A001","voteCast":"Nay"},{"bioguideID":"B002","voteCast":"Yea"}]}}`)
	reply("/house-vote/119/1/2/members", `{"houseRollCallVoteMemberVotes":{"results":[
		{"bioguideID":"A001","voteCast":"Yea"},{"bioguideID":"B002","voteCast":"Aye"}]}}`)
	reply("/legislators.json", roster)
	reply("/candidate/H1/totals/", `{"results":[{"receipts":100,"pac_contributions":40}]}`)
	mux.HandleFunc("/candidate/H2/totals/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		u.photos.Add(1)
		bio := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/img/"), ".jpg")
		if bio == "C003" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg:" + bio))
	})
	reply("/voteview.csv", "congress,chamber,bioname,bioguide_id,nominate_dim1,nominate_dim2\n119,House,\"ADAMS, Ada\",A001,-0.3,0.1\n")

	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newConfig(t *testing.T, u *upstream) *config.Config {
	t.Helper()
	cfg := config.New(context.Background())
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.BillsDir = filepath.Join(t.TempDir(), "Bills")
	cfg.CongressAPIKey = "congress-key"
	cfg.FECAPIKey = "fec-key"
	cfg.CongressAPIBase = u.srv.URL
	cfg.FECAPIBase = u.srv.URL
	cfg.LegislatorsSource = u.srv.URL + "/legislators.json"
	cfg.VoteviewURL = u.srv.URL + "/voteview.csv"
	cfg.PhotoURLTemplate = u.srv.URL + "/img/{bioguide}.jpg"
	cfg.HeadshotsDir = filepath.Join(t.TempDir(), "headshots")
	cfg.Chambers = []string{"house"}
	cfg.From = "2025-01-01"
	cfg.DonorBreakdown = false
	cfg.Backoff = 0
	return cfg
}

func newService(cfg *config.Config) *service.Service {
	return service.New(cfg,
		service.WithClock(func() time.Time { return fixed }),
		service.WithFetchOptions(fetch.WithSleeper(func(context.Context, time.Duration) error { return nil })),
	)
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	if err := repository.ReadJSON(path, v); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
}

func TestService_PullVotes(t *testing.T) {
	ctx := context.Background()

	Convey("Given a votes file with curated records", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		So(repository.WriteJSON(cfg.Path(config.VotesFile), map[string]vote.VoteRecord{
			"house-119-1-rc1": {Title: "Curated title", Meaning: "Voting NO blocked disclosure", Award: "Dark Money"},
			"hr-1":            {Title: "HR 1", Offenders: []vote.OffenderEntry{{Bioguide: "Z9", Vote: "NAY"}}},
		}), ShouldBeNil)

		report, err := newService(cfg).PullVotes(ctx)

		Convey("Then listings are imported and offenders recomputed", func() {
			So(err, ShouldBeNil)
			So(report, ShouldResemble, service.VotesReport{Listed: 2, Tracked: 2, Recomputed: 2})

			var saved map[string]vote.VoteRecord
			readJSON(t, cfg.Path(config.VotesFile), &saved)

			rc1 := saved["house-119-1-rc1"]
			So(rc1.Title, ShouldEqual, "Curated title")
			So(rc1.Meaning, ShouldEqual, "Voting NO blocked disclosure")
			So(rc1.RC, ShouldNotBeNil)
			So(rc1.Offenders, ShouldResemble, []vote.OffenderEntry{{Bioguide: "A001", Vote: "NAY"}})
			So(rc1.UpdatedAt.Equal(fixed), ShouldBeTrue)

			rc2 := saved["house-119-1-rc2"]
			So(rc2.Title, ShouldEqual, "Highway Funding")
			So(rc2.Award, ShouldEqual, vote.DefaultAward)
			So(rc2.Offenders, ShouldNotBeNil)
			So(rc2.Offenders, ShouldBeEmpty)

			So(saved["hr-1"].Offenders, ShouldResemble, []vote.OffenderEntry{{Bioguide: "Z9", Vote: "NAY"}})
		})

		Convey("And alignments follow from the saved offenders", func() {
			So(err, ShouldBeNil)
			_, err := newService(cfg).PullMembers(ctx)
			So(err, ShouldBeNil)

			scores, err := newService(cfg).BuildAlignments(ctx)

			So(err, ShouldBeNil)
			So(scores["A001"], ShouldResemble, scoring.AlignmentScore{Count: 1, Share: 0.5})
			So(scores["B002"], ShouldResemble, scoring.AlignmentScore{})
			So(scores["Z9"], ShouldResemble, scoring.AlignmentScore{Count: 1, Share: 0.5})
			So(scores, ShouldContainKey, "C003")
		})
	})

	Convey("Given no Congress key", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		cfg.CongressAPIKey = ""

		_, err := newService(cfg).PullVotes(ctx)

		Convey("Then it fails before any request", func() {
			So(errors.Is(err, config.ErrMissingCredential), ShouldBeTrue)
			So(u.hits.Load(), ShouldEqual, int64(0))
		})
	})

	Convey("Given one chamber whose listing fails", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		cfg.Chambers = []string{"house", "senate"}

		report, err := newService(cfg).PullVotes(ctx)

		Convey("Then the other chamber is still saved and the failure reported", func() {
			So(errors.Is(err, service.ErrListing), ShouldBeTrue)
			So(report.Listed, ShouldEqual, 2)
			var saved map[string]vote.VoteRecord
			readJSON(t, cfg.Path(config.VotesFile), &saved)
			So(saved, ShouldContainKey, "house-119-1-rc2")
		})
	})
}

func TestService_Alignments(t *testing.T) {
	ctx := context.Background()

	Convey("Given one in-scope record and a known roster", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		So(repository.WriteJSON(cfg.Path(config.VotesFile), map[string]vote.VoteRecord{
			"r1": {Title: "Roll", Offenders: []vote.OffenderEntry{{Bioguide: "A001", Vote: "NAY"}}},
		}), ShouldBeNil)
		So(repository.WriteJSON(cfg.Path(config.MembersFile), []model.Member{{Bioguide: "A001"}, {Bioguide: "B002"}}), ShouldBeNil)

		scores, err := newService(cfg).BuildAlignments(ctx)

		Convey("Then the offender has a full share and the other member zero", func() {
			So(err, ShouldBeNil)
			So(scores, ShouldResemble, map[string]scoring.AlignmentScore{
				"A001": {Count: 1, Share: 1.0},
				"B002": {Count: 0, Share: 0.0},
			})
			var saved map[string]scoring.AlignmentScore
			readJSON(t, cfg.Path(config.AlignmentsFile), &saved)
			So(saved, ShouldResemble, scores)
		})
	})

	Convey("Given a topic filter and no roster", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		cfg.AlignmentTopic = scoring.DefaultTopicPattern
		So(repository.WriteJSON(cfg.Path(config.VotesFile), map[string]vote.VoteRecord{
			"r1": {Title: "Lobbying Disclosure", Offenders: []vote.OffenderEntry{{Bioguide: "A001", Vote: "NAY"}}},
			"r2": {Title: "Highway Bill", Offenders: []vote.OffenderEntry{{Bioguide: "B002", Vote: "NAY"}}},
		}), ShouldBeNil)

		scores, err := newService(cfg).BuildAlignments(ctx)

		Convey("Then only matching records count and offenders are still scored", func() {
			So(err, ShouldBeNil)
			So(scores, ShouldResemble, map[string]scoring.AlignmentScore{"A001": {Count: 1, Share: 1.0}})
		})
	})
}

func TestService_PullDonors(t *testing.T) {
	ctx := context.Background()

	Convey("Given no members.json", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)

		_, err := newService(cfg).PullDonors(ctx)

		Convey("Then the required input is reported missing", func() {
			So(errors.Is(err, fs.ErrNotExist), ShouldBeTrue)
		})
	})

	Convey("Given a roster where one candidate's totals fail", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		cfg.MaxAttempts = 2
		svc := newService(cfg)
		_, err := svc.PullMembers(ctx)
		So(err, ShouldBeNil)

		out, err := svc.PullDonors(ctx)

		Convey("Then every member gets a summary, zero where data is missing", func() {
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 3)
			So(out["A001"], ShouldResemble, model.DonorSummary{Cycle: 2026, Receipts: 100, PAC: 40, PACPct: 0.4})
			So(out["B002"], ShouldResemble, model.DonorSummary{Cycle: 2026})
			So(out["C003"], ShouldResemble, model.DonorSummary{Cycle: 2026})

			var saved map[string]model.DonorSummary
			readJSON(t, cfg.Path(config.DonorsFile), &saved)
			So(saved, ShouldResemble, out)
		})
	})

	Convey("Given no FEC key", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		cfg.FECAPIKey = ""

		_, err := newService(cfg).PullDonors(ctx)

		Convey("Then it fails with ErrMissingCredential", func() {
			So(errors.Is(err, config.ErrMissingCredential), ShouldBeTrue)
		})
	})
}

func TestService_MembersVoteviewSeed(t *testing.T) {
	ctx := context.Background()

	Convey("Given the upstream datasets", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		svc := newService(cfg)

		Convey("When pulling members", func() {
			members, err := svc.PullMembers(ctx)

			Convey("Then the roster is normalized and written", func() {
				So(err, ShouldBeNil)
				So(members, ShouldHaveLength, 3)
				So(members[1].Chamber, ShouldEqual, "senate")
				So(members[1].District, ShouldBeEmpty)
				var saved []model.Member
				readJSON(t, cfg.Path(config.MembersFile), &saved)
				So(saved, ShouldResemble, members)
			})
		})

		Convey("When pulling voteview", func() {
			scores, err := svc.PullVoteview(ctx)

			Convey("Then the csv and the ideology map are written", func() {
				So(err, ShouldBeNil)
				So(scores["A001"].Dim1, ShouldEqual, -0.3)
				_, statErr := os.Stat(cfg.Path(config.VoteviewCSV))
				So(statErr, ShouldBeNil)
				var saved map[string]model.Ideology
				readJSON(t, cfg.Path(config.IdeologyFile), &saved)
				So(saved, ShouldResemble, scores)
			})
		})

		Convey("When seeding bills", func() {
			So(os.MkdirAll(cfg.BillsDir, 0o755), ShouldBeNil)
			So(os.WriteFile(filepath.Join(cfg.BillsDir, "DISCLOSE Act (2027).html"), nil, 0o600), ShouldBeNil)

			added, err := svc.SeedBills(ctx)
			again, err2 := svc.SeedBills(ctx)

			Convey("Then new keys are added once", func() {
				So(err, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(added, ShouldEqual, 1)
				So(again, ShouldEqual, 0)
				var saved map[string]vote.VoteRecord
				readJSON(t, cfg.Path(config.VotesFile), &saved)
				So(saved["disclose-act-2027"].Short, ShouldEqual, "DISCLOSE Act")
			})
		})

		Convey("When running everything", func() {
			err := svc.RunAll(ctx, true)

			Convey("Then every snapshot exists", func() {
				So(err, ShouldBeNil)
				for _, name := range []string{
					config.MembersFile, config.VotesFile, config.DonorsFile,
					config.AlignmentsFile, config.VoteviewCSV, config.IdeologyFile,
				} {
					_, statErr := os.Stat(cfg.Path(name))
					So(statErr, ShouldBeNil)
				}
			})
		})
	})
}

func TestService_PullPhotos(t *testing.T) {
	ctx := context.Background()

	Convey("Given a roster with one headshot already on disk", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		svc := newService(cfg)
		_, err := svc.PullMembers(ctx)
		So(err, ShouldBeNil)
		So(repository.WriteFile(filepath.Join(cfg.HeadshotsDir, "B002.jpg"), []byte("kept")), ShouldBeNil)

		report, err := svc.PullPhotos(ctx)

		Convey("Then only missing headshots are fetched and a CDN miss is not fatal", func() {
			So(err, ShouldBeNil)
			So(report, ShouldResemble, service.PhotosReport{Saved: 1, Skipped: 1, Missing: 1})
			So(u.photos.Load(), ShouldEqual, int64(2))

			img, readErr := os.ReadFile(filepath.Join(cfg.HeadshotsDir, "A001.jpg"))
			So(readErr, ShouldBeNil)
			So(string(img), ShouldEqual, "jpeg:A001")

			kept, readErr := os.ReadFile(filepath.Join(cfg.HeadshotsDir, "B002.jpg"))
			So(readErr, ShouldBeNil)
			So(string(kept), ShouldEqual, "kept")

			_, statErr := os.Stat(filepath.Join(cfg.HeadshotsDir, "C003.jpg"))
			So(errors.Is(statErr, fs.ErrNotExist), ShouldBeTrue)
		})

		Convey("And a second run skips everything it saved", func() {
			So(err, ShouldBeNil)
			again, err := svc.PullPhotos(ctx)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, service.PhotosReport{Skipped: 2, Missing: 1})
			So(u.photos.Load(), ShouldEqual, int64(3))
		})
	})

	Convey("Given no members.json", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)

		_, err := newService(cfg).PullPhotos(ctx)

		Convey("Then it fails without fetching", func() {
			So(errors.Is(err, fs.ErrNotExist), ShouldBeTrue)
			So(u.photos.Load(), ShouldEqual, int64(0))
		})
	})
}

func TestService_Validate(t *testing.T) {
	ctx := context.Background()

	Convey("Given snapshots written by a full run", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		svc := newService(cfg)
		So(svc.RunAll(ctx, false), ShouldBeNil)

		report, err := svc.Validate(ctx)

		Convey("Then every reference resolves", func() {
			So(err, ShouldBeNil)
			So(report.Members, ShouldEqual, 3)
			So(report.Issues, ShouldBeEmpty)
			So(report.Checked, ShouldResemble, []string{config.VotesFile, config.DonorsFile, config.AlignmentsFile})
		})
	})

	Convey("Given snapshots that name members missing from the roster", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)
		So(repository.WriteJSON(cfg.Path(config.MembersFile), []model.Member{{Bioguide: "A001"}}), ShouldBeNil)
		So(repository.WriteJSON(cfg.Path(config.VotesFile), map[string]vote.VoteRecord{
			"house-119-1-rc1": {Offenders: []vote.OffenderEntry{{Bioguide: "A001", Vote: "NAY"}, {Bioguide: "Z9", Vote: "NAY"}}},
		}), ShouldBeNil)
		So(repository.WriteJSON(cfg.Path(config.DonorsFile), map[string]model.DonorSummary{
			"A001": {Cycle: 2026},
			"X1":   {Cycle: 2026},
		}), ShouldBeNil)

		report, err := newService(cfg).Validate(ctx)

		Convey("Then each unknown id is an issue and the run fails", func() {
			So(errors.Is(err, service.ErrIntegrity), ShouldBeTrue)
			So(report.Issues, ShouldResemble, []service.Issue{
				{File: config.VotesFile, Key: "house-119-1-rc1", Bioguide: "Z9"},
				{File: config.DonorsFile, Key: "X1", Bioguide: "X1"},
			})
			So(report.Skipped, ShouldResemble, []string{config.AlignmentsFile})
		})
	})

	Convey("Given no members.json", t, func() {
		u := newUpstream(t)
		cfg := newConfig(t, u)

		_, err := newService(cfg).Validate(ctx)

		Convey("Then the roster is reported missing", func() {
			So(errors.Is(err, fs.ErrNotExist), ShouldBeTrue)
			So(errors.Is(err, service.ErrIntegrity), ShouldBeFalse)
		})
	})
}
