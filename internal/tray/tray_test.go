package tray

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zaptest"
)

func TestDashboardURL(t *testing.T) {
	Convey("DashboardURL", t, func() {
		So(DashboardURL(":8080"), ShouldEqual, "http://localhost:8080")
		So(DashboardURL("192.168.1.20:9000"), ShouldEqual, "http://192.168.1.20:9000")
	})
}

func TestNew(t *testing.T) {
	Convey("New points the dashboard entry at the HTTP address", t, func() {
		tr := New(Actions{}, ":9090", zaptest.NewLogger(t).Sugar())
		So(tr.url, ShouldEqual, "http://localhost:9090")

		// The tray uses the platform default icon, so Run takes no arguments.
		var run func() = tr.Run
		So(run, ShouldNotBeNil)
	})
}
