package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chrismichaelps/effuse-sub003/internal/errors"
	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/mount"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

func benchCmd() *cobra.Command {
	var (
		widths  []int
		heights []int
		iters   int
		items   int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run reactive propagation and reconcile benchmarks",
		Long: `Benchmarks two hot paths: signal writes propagating through
grids of computed chains into effects, and keyed list reconciliation
under random shuffles.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if iters <= 0 {
				return errors.New("E100").WithDetail("iterations must be positive, got %d", iters)
			}
			if items <= 0 {
				return errors.New("E100").WithDetail("items must be positive, got %d", items)
			}
			for _, w := range widths {
				if w <= 0 {
					return errors.New("E100").WithDetail("width must be positive, got %d", w)
				}
			}
			for _, h := range heights {
				if h <= 0 {
					return errors.New("E100").WithDetail("height must be positive, got %d", h)
				}
			}

			benchPropagate(widths, heights, iters)
			benchReconcile(items, iters)
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&widths, "widths", []int{1, 10, 100}, "grid widths for the propagation benchmark")
	cmd.Flags().IntSliceVar(&heights, "heights", []int{1, 10, 100}, "chain depths for the propagation benchmark")
	cmd.Flags().IntVarP(&iters, "iterations", "n", 100, "iterations per configuration")
	cmd.Flags().IntVar(&items, "items", 1000, "list size for the reconcile benchmark")

	return cmd
}

// benchPropagate builds, per configuration, width independent chains of
// height computeds off one source signal, each terminated by an effect,
// then measures the latency of a source write.
func benchPropagate(widths, heights []int, iters int) {
	tbl := table.NewWriter()
	tbl.SetTitle("Signal Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "allocs", "bytes"})

	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			owner := effuse.NewOwner(nil)
			var src *effuse.Signal[int]
			effuse.WithOwner(owner, func() {
				src = effuse.NewSignal(1)
				for i := 0; i < w; i++ {
					var last func() int
					last = src.Get
					for j := 0; j < h; j++ {
						prev := last
						c := effuse.NewComputed(func() int {
							return prev() + 1
						})
						last = c.Get
					}
					leaf := last
					effuse.CreateEffect(func() effuse.Cleanup {
						_ = leaf()
						return nil
					})
				}
			})

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.Peek() + 1)
				tach.AddTime(time.Since(start))
			}
			runtime.ReadMemStats(&after)
			owner.Dispose()

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{{
				fmt.Sprintf("propagate: %d * %d", w, h),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
				humanize.Comma(int64(after.Mallocs-before.Mallocs) / int64(iters)),
				humanize.Bytes((after.TotalAlloc - before.TotalAlloc) / uint64(iters)),
			}})
		}
	}

	tbl.Render()
}

// benchReconcile mounts a keyed list driven by an order signal and
// measures a full shuffle-and-patch cycle.
func benchReconcile(items, iters int) {
	tbl := table.NewWriter()
	tbl.SetTitle("Keyed Reconcile")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "moves/iter"})

	order := make([]int, items)
	for i := range order {
		order[i] = i
	}
	orderSig := effuse.NewSignal(order).WithEquals(func(a, b []int) bool { return false })

	def := &vnode.ComponentDef{
		Name: "BenchList",
		View: func(ctx *vnode.RenderContext) *vnode.VNode {
			current := orderSig.Get()
			children := make([]*vnode.VNode, len(current))
			for i, id := range current {
				key := strconv.Itoa(id)
				children[i] = vnode.El("li", vnode.WithKey(key), key)
			}
			return vnode.El("ul", children)
		},
	}

	doc := dom.NewDocument()
	engine := mount.New(doc)
	cleanup, err := engine.Render(vnode.Blue(def, nil), doc.Root())
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench mount failed: %v\n", err)
		return
	}
	defer cleanup()

	rng := rand.New(rand.NewSource(42))
	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	doc.ResetStats()

	for i := 0; i < iters; i++ {
		next := make([]int, len(order))
		copy(next, order)
		rng.Shuffle(len(next), func(a, b int) { next[a], next[b] = next[b], next[a] })

		start := time.Now()
		orderSig.Set(next)
		tach.AddTime(time.Since(start))
	}

	stats := doc.Stats()
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{{
		fmt.Sprintf("shuffle: %d items", items),
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
		humanize.Comma(stats.Moved / int64(iters)),
	}})

	tbl.Render()
}
