package binutil

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/zoneworld/zoneworld/engine/gwlog"
	"golang.org/x/net/websocket"
)

// SetupHTTPServer starts the HTTP server for go tool pprof and websockets
//
// Clients speak the same msgpack protocol over /ws as over TCP and KCP.
func SetupHTTPServer(ip string, port int, wsHandler func(ws *websocket.Conn)) {
	if port == 0 {
		gwlog.Infof("http server not enabled")
		return
	}

	httpHost := fmt.Sprintf("%s:%d", ip, port)
	gwlog.Infof("http server listening on %s", httpHost)
	gwlog.Infof("pprof http://%s/debug/pprof/ ... available commands: ", httpHost)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/heap", httpHost)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/profile", httpHost)

	if wsHandler != nil {
		http.Handle("/ws", websocket.Handler(func(ws *websocket.Conn) {
			ws.PayloadType = websocket.BinaryFrame
			wsHandler(ws)
		}))
	}

	go func() {
		if err := http.ListenAndServe(httpHost, nil); err != nil {
			gwlog.Errorf("http server on %s failed: %v", httpHost, err)
		}
	}()
}

// SetupGWLog setup the log system of a server process
//
// logFile is rotated by lumberjack; logStderr copies the output to stderr.
func SetupGWLog(component string, logLevel string, logFile string, logStderr bool) {
	gwlog.SetSource(component)
	gwlog.Infof("Set log level to %s", logLevel)
	gwlog.SetLevel(gwlog.ParseLevel(logLevel))

	var outputs []string
	if logFile != "" {
		outputs = append(outputs, logFile)
	}
	if logStderr {
		outputs = append(outputs, "stderr")
	}
	if len(outputs) > 0 {
		gwlog.SetOutput(outputs)
	}
}
