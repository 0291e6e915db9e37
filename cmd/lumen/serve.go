package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen/pkg/app"
	"github.com/lumen-dev/lumen/pkg/events"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/server"
	"github.com/lumen-dev/lumen/pkg/vdom"
)

func serveCmd() *cobra.Command {
	var (
		addr          string
		bufferSize    int
		historySize   int
		readTimeout   time.Duration
		archiveBucket string
		archivePrefix string
		archiveRegion string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in counter demo",
		Long: `Serve starts a websocket server hosting the counter demo
application. Each connection gets its own shell; connect a host
client to /ws, scrape metrics from /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			opts := []server.Option{
				server.WithAddr(addr),
				server.WithBufferSize(bufferSize),
				server.WithHistorySize(historySize),
				server.WithReadTimeout(readTimeout),
				server.WithLogger(logger),
			}
			if archiveBucket != "" {
				client := s3.New(s3.Options{Region: archiveRegion})
				opts = append(opts, server.WithArchiver(
					server.NewArchiver(client, archiveBucket, archivePrefix)))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(counterShell, opts...)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8420", "HTTP listen address")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 64*1024, "Per-session mutation buffer capacity in bytes")
	cmd.Flags().IntVar(&historySize, "history", 100, "Frames retained per session")
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", 60*time.Second, "Client read deadline")
	cmd.Flags().StringVar(&archiveBucket, "archive-bucket", "", "S3 bucket for session frame archives (disabled when empty)")
	cmd.Flags().StringVar(&archivePrefix, "archive-prefix", "sessions/", "S3 key prefix for archives")
	cmd.Flags().StringVar(&archiveRegion, "archive-region", "us-east-1", "S3 region for archives")

	return cmd
}

// counterShell builds the demo: a counter bound to an increment
// button.
func counterShell() (*app.Shell, error) {
	s := app.NewShell()
	tid := s.Templates().Register([]vdom.TemplateNode{{
		Kind: vdom.NodeElement,
		Tag:  "div",
		Attrs: []vdom.StaticAttr{
			{Name: "class", Value: "counter"},
		},
		Children: []vdom.TemplateNode{
			{Kind: vdom.NodeDynamicText},
			{
				Kind:     vdom.NodeElement,
				Tag:      "button",
				DynAttrs: []string{"click"},
				Children: []vdom.TemplateNode{{Kind: vdom.NodeText, Text: "+1"}},
			},
		},
	}})

	s.Mount(func(ctx *app.Context) app.RenderFunc {
		count := ctx.Signal(reactive.Int(0))
		inc := ctx.Handler(events.Handler{
			Action:  events.ActionAddInt,
			Signal:  count,
			Operand: 1,
			Event:   "click",
		})
		return func(ctx *app.Context) vdom.VNodeID {
			v := ctx.Read(count)
			return ctx.Shell().Store().NewTemplateRef(tid,
				[]vdom.AttrValue{vdom.EventAttr(uint32(inc))},
				[]vdom.DynNode{vdom.DynTextNode(v.Display())})
		}
	})
	return s, nil
}
