package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/tatami/internal/app"
	"github.com/okian/tatami/pkg/logger"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	svc := service.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	NewServer(svc, svc, 100).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, svc
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

func registerCompetitor(t *testing.T, baseURL, name, belt string, weight float64) string {
	t.Helper()
	body := map[string]any{"name": name, "belt": belt}
	if weight > 0 {
		body["weight"] = weight
	}
	resp, out := postJSON(t, baseURL+"/competitors", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", name, resp.StatusCode)
	}
	return out["id"].(string)
}

func TestCompetitorEndpoints(t *testing.T) {
	Convey("Given the API over a fresh service", t, func() {
		ts, _ := newTestServer(t)

		Convey("When a competitor is registered", func() {
			resp, out := postJSON(t, ts.URL+"/competitors", map[string]any{
				"name": "Ada", "belt": "purple", "weight": 168.0,
			})

			Convey("Then 201 with the belt-derived starting rating", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(out["start_rating"], ShouldEqual, 1600)
				So(out["rating"], ShouldEqual, 1600)
				So(out["id"], ShouldNotBeEmpty)
			})

			Convey("And the competitor can be fetched back", func() {
				var got map[string]any
				resp := getJSON(t, ts.URL+"/competitors/"+out["id"].(string), &got)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(got["name"], ShouldEqual, "Ada")
				So(got["belt"], ShouldEqual, "purple")
			})
		})

		Convey("When the belt is unknown", func() {
			resp, _ := postJSON(t, ts.URL+"/competitors", map[string]any{"name": "Bea", "belt": "rainbow"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the name is missing", func() {
			resp, _ := postJSON(t, ts.URL+"/competitors", map[string]any{"belt": "white"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown id is fetched", func() {
			resp := getJSON(t, ts.URL+"/competitors/ghost", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMatchEndpoints(t *testing.T) {
	Convey("Given two registered competitors", t, func() {
		ts, _ := newTestServer(t)
		a := registerCompetitor(t, ts.URL, "Ada", "white", 150)
		b := registerCompetitor(t, ts.URL, "Bea", "white", 155)

		Convey("When a match is posted", func() {
			resp, out := postJSON(t, ts.URL+"/matches", map[string]any{
				"match_id": "m-1", "a": a, "b": b, "outcome": "a_win", "event": "open-mat",
			})

			Convey("Then 201 with symmetric deltas", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(out["status"], ShouldEqual, "recorded")
				So(out["delta_a"], ShouldEqual, 16)
				So(out["delta_b"], ShouldEqual, -16)
				So(out["rating_a"], ShouldEqual, 1216)
			})

			Convey("And posting the same id again acknowledges the duplicate", func() {
				resp, out := postJSON(t, ts.URL+"/matches", map[string]any{
					"match_id": "m-1", "a": a, "b": b, "outcome": "a_win",
				})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(out["duplicate"], ShouldEqual, true)
			})

			Convey("And the match shows up in the log", func() {
				var matches []map[string]any
				resp := getJSON(t, ts.URL+"/matches", &matches)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(matches, ShouldHaveLength, 1)
				So(matches[0]["match_id"], ShouldEqual, "m-1")
				So(matches[0]["seq"], ShouldEqual, 1)
			})

			Convey("And the rating history is exposed", func() {
				var hist []map[string]any
				resp := getJSON(t, ts.URL+"/competitors/"+a+"/history", &hist)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(hist, ShouldHaveLength, 1)
			})
		})

		Convey("When a side is unknown", func() {
			resp, _ := postJSON(t, ts.URL+"/matches", map[string]any{
				"match_id": "m-x", "a": a, "b": "ghost", "outcome": "a_win",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When both sides are the same", func() {
			resp, _ := postJSON(t, ts.URL+"/matches", map[string]any{
				"match_id": "m-self", "a": a, "b": a, "outcome": "draw",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the outcome is malformed", func() {
			resp, _ := postJSON(t, ts.URL+"/matches", map[string]any{
				"match_id": "m-bad", "a": a, "b": b, "outcome": "forfeit",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the ts is not RFC3339", func() {
			resp, _ := postJSON(t, ts.URL+"/matches", map[string]any{
				"match_id": "m-ts", "a": a, "b": b, "outcome": "draw", "ts": "yesterday",
			})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRecalculateEndpoint(t *testing.T) {
	Convey("Given recorded history", t, func() {
		ts, _ := newTestServer(t)
		a := registerCompetitor(t, ts.URL, "Ada", "white", 0)
		b := registerCompetitor(t, ts.URL, "Bea", "blue", 0)
		resp, _ := postJSON(t, ts.URL+"/matches", map[string]any{
			"match_id": "m-1", "a": a, "b": b, "outcome": "a_win", "ts": "2026-03-01T10:00:00Z",
		})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)

		Convey("When a recalculation is requested", func() {
			resp, out := postJSON(t, ts.URL+"/recalculate", nil)

			Convey("Then the report comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(out["status"], ShouldEqual, "complete")
				So(out["applied"], ShouldEqual, 1)
			})
		})

		Convey("When the method is wrong", func() {
			resp := getJSON(t, ts.URL+"/recalculate", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLadderEndpoint(t *testing.T) {
	Convey("Given a roster with matches across events", t, func() {
		ts, _ := newTestServer(t)
		a := registerCompetitor(t, ts.URL, "Ada", "white", 150)
		b := registerCompetitor(t, ts.URL, "Bea", "black", 210)
		resp, _ := postJSON(t, ts.URL+"/matches", map[string]any{
			"match_id": "m-1", "a": a, "b": b, "outcome": "a_win", "event": "invitational",
		})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)

		Convey("When the global ladder is fetched", func() {
			var rows []map[string]any
			resp := getJSON(t, ts.URL+"/ladder", &rows)

			Convey("Then the upset winner leads by gain", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(rows, ShouldHaveLength, 2)
				So(rows[0]["competitor_id"], ShouldEqual, a)
				So(rows[0]["rank"], ShouldEqual, 1)
			})
		})

		Convey("When an event scope is used", func() {
			var rows []map[string]any
			resp := getJSON(t, ts.URL+"/ladder?scope=event:invitational&by=rating", &rows)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(rows, ShouldHaveLength, 2)
			So(rows[0]["competitor_id"], ShouldEqual, b)
		})

		Convey("When a weight class scope is used", func() {
			var rows []map[string]any
			resp := getJSON(t, ts.URL+"/ladder?scope=weightClass:Lightweight", &rows)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(rows, ShouldHaveLength, 1)
			So(rows[0]["competitor_id"], ShouldEqual, a)
		})

		Convey("When limit trims the rows", func() {
			var rows []map[string]any
			resp := getJSON(t, ts.URL+"/ladder?limit=1", &rows)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(rows, ShouldHaveLength, 1)
		})

		Convey("When the limit exceeds the cap", func() {
			resp := getJSON(t, ts.URL+"/ladder?limit=101", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the scope is malformed", func() {
			resp := getJSON(t, ts.URL+"/ladder?scope=dojo:42", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOddsEndpoint(t *testing.T) {
	Convey("Given two competitors of different strength", t, func() {
		ts, _ := newTestServer(t)
		a := registerCompetitor(t, ts.URL, "Ada", "white", 0)
		b := registerCompetitor(t, ts.URL, "Bea", "black", 0)

		Convey("When odds are previewed", func() {
			var out map[string]any
			resp := getJSON(t, fmt.Sprintf("%s/odds?a=%s&b=%s", ts.URL, a, b), &out)

			Convey("Then the stronger side is the favorite", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				oddsB := out["odds_b"].(map[string]any)
				So(oddsB["favorite"], ShouldEqual, true)
				So(out["scenarios"], ShouldHaveLength, 3)
			})
		})

		Convey("When raw ratings are supplied instead of ids", func() {
			var out map[string]any
			resp := getJSON(t, ts.URL+"/odds?rating_a=1200&rating_b=1200", &out)

			Convey("Then the preview is an even match", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(out["expected_a"], ShouldEqual, 0.5)
				oddsA := out["odds_a"].(map[string]any)
				So(oddsA["value"], ShouldEqual, -100)
			})
		})

		Convey("When a side is missing", func() {
			resp := getJSON(t, ts.URL+"/odds?a="+a, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a side is unknown", func() {
			resp := getJSON(t, ts.URL+"/odds?a="+a+"&b=ghost", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the API over a fresh service", t, func() {
		ts, _ := newTestServer(t)
		registerCompetitor(t, ts.URL, "Ada", "white", 0)

		Convey("When stats are fetched", func() {
			var out map[string]any
			resp := getJSON(t, ts.URL+"/stats", &out)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(out["started"], ShouldEqual, true)
			So(out["totalCompetitors"], ShouldEqual, 1)
		})
	})
}
