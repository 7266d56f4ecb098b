package legislators_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/adapters/legislators"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const roster = `[
  {"id":{"bioguide":"S000033","fec":["S4VT00033","H8VT01016"]},
   "name":{"first":"Bernard","last":"Sanders","official_full":"Bernard Sanders"},
   "terms":[{"type":"rep","state":"VT","district":0,"party":"Independent"},
            {"type":"sen","state":"VT","party":"Independent"}]},
  {"id":{"bioguide":"P000197"},
   "name":{"first":"Nancy","last":"Pelosi"},
   "terms":[{"type":"rep","state":"CA","district":11,"party":"Democrat"}]},
  {"id":{"govtrack":1},"name":{"first":"No","last":"Bioguide"},"terms":[]}
]`

func TestSource_Members(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	want := []model.Member{
		{
			Bioguide: "S000033", Name: "Bernard Sanders", Party: "I", PartyLabel: "Independent",
			Chamber: "senate", State: "VT", FEC: "S4VT00033",
			Photo: "https://unitedstates.github.io/images/congress/225x275/S000033.jpg",
		},
		{
			Bioguide: "P000197", Name: "Nancy Pelosi", Party: "D", PartyLabel: "Democrat",
			Chamber: "house", State: "CA", District: "11",
			Photo: "https://unitedstates.github.io/images/congress/225x275/P000197.jpg",
		},
	}

	Convey("Given a roster file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "legislators-current.json")
		So(os.WriteFile(path, []byte(roster), 0o600), ShouldBeNil)

		members, err := legislators.NewSource(nil, path, "").Members(ctx)

		Convey("Then every legislator with a bioguide id becomes a member", func() {
			So(err, ShouldBeNil)
			So(members, ShouldResemble, want)
		})
	})

	Convey("Given a roster served over HTTP", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(roster))
		}))
		defer srv.Close()

		members, err := legislators.NewSource(fetch.New(), srv.URL+"/legislators-current.json", "/img/{bioguide}.jpg").Members(ctx)

		Convey("Then it is fetched and the photo template applied", func() {
			So(err, ShouldBeNil)
			So(members, ShouldHaveLength, 2)
			So(members[1].Photo, ShouldEqual, "/img/P000197.jpg")
		})
	})

	Convey("Given a missing roster file", t, func() {
		_, err := legislators.NewSource(nil, filepath.Join(t.TempDir(), "nope.json"), "").Members(ctx)

		Convey("Then loading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
