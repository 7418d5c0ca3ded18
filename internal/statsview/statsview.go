// Package statsview serves live runtime charts of a decode run (heap,
// goroutines, GC pauses) over HTTP, next to the standard pprof handlers.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddr is the listen address used when none is given.
const DefaultAddr = "localhost:12600"

// sampleMillis is the chart refresh interval.
const sampleMillis = 1000

// Server is a statistics server running in the background.
type Server struct {
	mgr *statsview.ViewManager
}

// URL returns the chart page served on addr.
func URL(addr string) string {
	return "http://" + addr + "/debug/statsview"
}

// Start launches the server on addr, or DefaultAddr if addr is empty, and
// reports the chart page on out.
func Start(addr string, out io.Writer) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	viewer.SetConfiguration(viewer.WithAddr(addr), viewer.WithInterval(sampleMillis))
	s := &Server{mgr: statsview.New()}
	go s.mgr.Start()
	fmt.Fprintf(out, "Runtime statistics at %s\n", URL(addr))
	return s
}

// Stop shuts the server down.
func (s *Server) Stop() {
	s.mgr.Stop()
}
