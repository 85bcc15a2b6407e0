package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/server"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode/el"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo counter app over a live connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Serving demo app on %s\n", addr)
			srv := server.New(demoApp, &server.Config{Address: addr})
			return srv.Start()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":3000", "listen address")

	return cmd
}

// demoApp is a per-session counter. Each connection constructs its own
// root, so the signal lives in the session.
func demoApp() *vnode.VNode {
	count := effuse.NewSignal(0)

	return el.Div(el.ID("app"),
		el.H1("effuse live counter"),
		el.P("count: ", count),
		el.Button(
			el.OnClick(func(any) { count.Set(count.Peek() + 1) }),
			"increment",
		),
	)
}
