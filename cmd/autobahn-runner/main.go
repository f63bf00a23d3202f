// Autobahn-runner drives this repository's [WebSocket client] through the
// fuzzing server of the [Autobahn Testsuite], echoing every message it
// receives back to the server, exactly as the suite's client-mode
// conformance tests expect.
//
// [WebSocket client]: https://pkg.go.dev/github.com/tzrikka/wsconform/pkg/websocket
// [Autobahn Testsuite]: https://github.com/crossbario/autobahn-testsuite
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tzrikka/wsconform/internal/logger"
	"github.com/tzrikka/wsconform/pkg/websocket"
)

const (
	host  = "127.0.0.1"
	port  = 9001
	agent = "wsconform"
)

func main() {
	n := getCaseCount()
	slog.Info("case count", slog.Int("n", n))

	for i := 1; i <= n; i++ {
		runCase(i)
	}

	updateReports()
}

// getCaseCount asks the fuzzing server how many test cases are enabled.
func getCaseCount() int {
	counts := make(chan string, 1)

	conn, err := websocket.Open(context.Background(), websocket.Config{
		Host: host,
		Port: port,
		Path: "/getCaseCount",
		Callback: func(ev websocket.Event, _ *websocket.Conn) {
			if ev.Type == websocket.EventText {
				counts <- ev.Text
			}
		},
	})
	if err != nil {
		logger.FatalError("dial error", err)
	}

	conn.Result() // Block until the server closes the connection.

	select {
	case s := <-counts:
		n, err := strconv.Atoi(s)
		if err != nil {
			logger.FatalError("invalid test case count", err)
		}
		return n
	default:
		return 0
	}
}

// runCase drives one Autobahn test case to completion: the server sends
// text/binary messages (possibly malformed on purpose) and this client
// echoes each one back, exactly as the test case expects.
func runCase(i int) {
	l := slog.With(slog.Int("case", i))
	l.Info("starting test case")

	path := fmt.Sprintf("/runCase?case=%d&agent=%s", i, agent)
	conn, err := websocket.Open(context.Background(), websocket.Config{
		Host: host,
		Port: port,
		Path: path,
		Callback: func(ev websocket.Event, c *websocket.Conn) {
			switch ev.Type {
			case websocket.EventText:
				if err := c.Emit(websocket.OpcodeText, []byte(ev.Text)); err != nil {
					l.Error("echo error", slog.Any("error", err))
				}
			case websocket.EventBinary:
				if err := c.Emit(websocket.OpcodeBinary, ev.Data); err != nil {
					l.Error("echo error", slog.Any("error", err))
				}
			case websocket.EventClose:
				l.Debug("connection closed", slog.String("status", ev.Status.String()))
			}
		},
	})
	if err != nil {
		logger.FatalError("dial error", err)
	}

	conn.Result()
}

// updateReports instructs the Autobahn fuzzing server to generate/update
// all the HTML and JSON files for all the test-case results.
func updateReports() {
	slog.Info("requesting report generation")

	path := fmt.Sprintf("/updateReports?agent=%s", agent)
	conn, err := websocket.Open(context.Background(), websocket.Config{
		Host:     host,
		Port:     port,
		Path:     path,
		Callback: func(websocket.Event, *websocket.Conn) {},
	})
	if err != nil {
		logger.FatalError("dial error", err)
	}

	conn.Result()
}
