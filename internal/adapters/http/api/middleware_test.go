package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorKind(t *testing.T) {
	Convey("Error kinds follow the response status", t, func() {
		cases := map[int]string{
			http.StatusBadRequest:          "client_error",
			http.StatusNotFound:            "not_found",
			http.StatusConflict:            "conflict",
			http.StatusTooManyRequests:     "session_limit",
			http.StatusInternalServerError: "server_error",
			http.StatusServiceUnavailable:  "unavailable",
		}
		for status, want := range cases {
			kind, failed := errorKind(status)
			So(failed, ShouldBeTrue)
			So(kind, ShouldEqual, want)
		}

		_, failed := errorKind(http.StatusCreated)
		So(failed, ShouldBeFalse)
	})
}

func TestMetricsMiddlewareRecordsStatus(t *testing.T) {
	Convey("Given a handler wrapped by the metrics middleware", t, func() {
		var seen http.ResponseWriter
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			seen = w
			w.WriteHeader(http.StatusTeapot)
		}, "test")

		Convey("When it is served", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			Convey("Then the status passes through and the writer unwraps", func() {
				So(w.Code, ShouldEqual, http.StatusTeapot)
				rec, ok := seen.(*statusRecorder)
				So(ok, ShouldBeTrue)
				So(rec.status, ShouldEqual, http.StatusTeapot)
				So(rec.Unwrap(), ShouldEqual, w)
			})
		})
	})
}

func TestAllowOrigins(t *testing.T) {
	Convey("Given origin policies", t, func() {
		req := func(origin string) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/sessions/x/stream", nil)
			if origin != "" {
				r.Header.Set("Origin", origin)
			}
			return r
		}

		Convey("Then an empty list keeps the default policy", func() {
			So(AllowOrigins(nil), ShouldBeNil)
		})

		Convey("Then a wildcard admits anyone", func() {
			So(AllowOrigins([]string{"*"})(req("https://any.example")), ShouldBeTrue)
		})

		Convey("Then a list admits its members and clients without an origin", func() {
			check := AllowOrigins([]string{"https://coach.example", "http://localhost:3000"})
			So(check(req("http://localhost:3000")), ShouldBeTrue)
			So(check(req("https://Coach.Example")), ShouldBeTrue)
			So(check(req("")), ShouldBeTrue)
			So(check(req("https://elsewhere.example")), ShouldBeFalse)
		})
	})
}
