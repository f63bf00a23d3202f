// Wsecho is a minimal interactive WebSocket client: it dials a server,
// echoes every text and binary message it receives back to the sender,
// and logs ping/pong/close activity.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/wsconform/internal/logger"
	"github.com/tzrikka/wsconform/pkg/websocket"
	"github.com/tzrikka/xdg"
)

const (
	ConfigDirName  = "wsecho"
	ConfigFileName = "config.toml"
)

func main() {
	bi, _ := debug.ReadBuildInfo()

	cmd := &cli.Command{
		Name:    "wsecho",
		Usage:   "dial a WebSocket server and echo back everything it sends",
		Version: bi.Main.Version,
		Flags:   flags(),
		Action:  run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	path := configFile()

	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "dev",
			Usage: "human-readable console logging, instead of JSON",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "WebSocket server host",
			Value: "127.0.0.1",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSECHO_HOST"),
				toml.TOML("wsecho.host", path),
			),
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "WebSocket server port",
			Value: 80,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSECHO_PORT"),
				toml.TOML("wsecho.port", path),
			),
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "request target for the upgrade request, including query",
			Value: "/",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("WSECHO_PATH"),
				toml.TOML("wsecho.path", path),
			),
		},
	}
}

// configFile returns the path to the app's configuration file. It also
// creates an empty file if it doesn't already exist.
func configFile() altsrc.StringSourcer {
	path, err := xdg.CreateFile(xdg.ConfigHome, ConfigDirName, ConfigFileName)
	if err != nil {
		logger.FatalError("failed to create config file", err)
	}
	return altsrc.StringSourcer(path)
}

func run(ctx context.Context, cmd *cli.Command) error {
	initLog(cmd.Bool("dev"))

	l := slog.With(
		slog.String("host", cmd.String("host")),
		slog.Int("port", int(cmd.Int("port"))),
		slog.String("path", cmd.String("path")),
	)
	l.Info("dialing WebSocket server")

	conn, err := websocket.Open(ctx, websocket.Config{
		Host:     cmd.String("host"),
		Port:     int(cmd.Int("port")),
		Path:     cmd.String("path"),
		Callback: echo(l),
	})
	if err != nil {
		return fmt.Errorf("failed to open WebSocket connection: %w", err)
	}

	status, msg := conn.Result()
	l.Info("connection closed", slog.String("status", status.String()), slog.String("message", msg))
	return nil
}

// echo returns a [websocket.Callback] that logs every event and sends
// text/binary messages straight back to the server.
func echo(l *slog.Logger) websocket.Callback {
	return func(ev websocket.Event, c *websocket.Conn) {
		switch ev.Type {
		case websocket.EventText:
			l.Debug("received text message", slog.String("text", ev.Text))
			if err := c.Emit(websocket.OpcodeText, []byte(ev.Text)); err != nil {
				l.Error("failed to echo text message", slog.Any("error", err))
			}
		case websocket.EventBinary:
			l.Debug("received binary message", slog.Int("length", len(ev.Data)))
			if err := c.Emit(websocket.OpcodeBinary, ev.Data); err != nil {
				l.Error("failed to echo binary message", slog.Any("error", err))
			}
		case websocket.EventPing:
			l.Debug("received ping", slog.Int("length", len(ev.Data)))
		case websocket.EventPong:
			l.Debug("received pong", slog.Int("length", len(ev.Data)))
		case websocket.EventClose:
			l.Debug("received close", slog.String("status", ev.Status.String()), slog.String("message", ev.Message))
		}
	}
}

// initLog initializes the default logger, based on
// whether the CLI is running in development mode or not.
func initLog(devMode bool) {
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	slog.SetDefault(slog.New(handler))
}
