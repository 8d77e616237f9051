package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/AnatoleLucet/signals"
)

const (
	widthKey      = "width"
	heightKey     = "height"
	iterationsKey = "iterations"
	sourcesKey    = "sources"
)

func main() {
	cmd := &cli.Command{
		Name:  "signalbench",
		Usage: "Measure signal propagation",
		Commands: []*cli.Command{
			{
				Name:  "propagate",
				Usage: "Chains of computed signals over one source, an effect at each tail",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: widthKey, Usage: "Number of chains", Value: 10},
					&cli.IntFlag{Name: heightKey, Usage: "Computed signals per chain", Value: 10},
					&cli.IntFlag{Name: iterationsKey, Usage: "Source writes to time", Value: 1000},
				},
				Action: propagate,
			},
			{
				Name:  "wide",
				Usage: "Many sources folded into one computed signal",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: sourcesKey, Usage: "Number of sources", Value: 1000},
					&cli.IntFlag{Name: iterationsKey, Usage: "Source writes to time", Value: 1000},
				},
				Action: wide,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("signalbench failed", "err", err)
		os.Exit(1)
	}
}

func propagate(ctx context.Context, cmd *cli.Command) error {
	w := int(cmd.Int(widthKey))
	h := int(cmd.Int(heightKey))
	iters := int(cmd.Int(iterationsKey))

	start := time.Now()
	slog.Info("propagate started", "width", w, "height", h, "iterations", iters)
	defer func() {
		slog.Info("propagate finished", "took", time.Since(start))
	}()

	var errs int
	signals.Configure(signals.WithErrorHandler(func(err error) {
		errs++
		slog.Error("effect failed", "err", err)
	}))

	src := signals.NewValueSignal(1)

	var stops []func()
	for _i := 0; _i < w; _i++ {
		var last interface{ Value() int } = src
		for _j := 0; _j < h; _j++ {
			prev := last
			last = signals.NewComputed(func() int {
				return prev.Value() + 1
			})
		}

		tail := last
		stops = append(stops, signals.Effect(func() {
			tail.Value()
		}))
	}
	defer func() {
		for _, stop := range stops {
			stop()
		}
	}()

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for _i := 0; _i < iters; _i++ {
		began := time.Now()
		src.Update(func(v int) int { return v + 1 })
		tach.AddTime(time.Since(began))
	}

	if errs > 0 {
		return fmt.Errorf("%d effects failed", errs)
	}

	calc := tach.Calc()

	tbl := table.NewWriter()
	tbl.SetTitle("Signals")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	tbl.AppendRow(table.Row{
		fmt.Sprintf("propagate: %d * %d", w, h),
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	})
	tbl.Render()

	return nil
}

func wide(ctx context.Context, cmd *cli.Command) error {
	n := int(cmd.Int(sourcesKey))
	iters := int(cmd.Int(iterationsKey))
	if n < 1 {
		return fmt.Errorf("--%s must be at least 1", sourcesKey)
	}

	slog.Info("wide started", "sources", n, "iterations", iters)

	sources := make([]*signals.ValueSignal[int], n)
	for i := range sources {
		sources[i] = signals.NewValueSignal(i)
	}

	var runs int64
	sum := signals.NewComputed(func() int {
		runs++

		total := 0
		for _, s := range sources {
			total += s.Value()
		}
		return total
	})
	sum.Value()

	start := time.Now()
	for i := 0; i < iters; i++ {
		sources[i%n].Update(func(v int) int { return v + 1 })
		sum.Value()
	}
	elapsed := time.Since(start)

	updateRate := float64(iters) / elapsed.Seconds()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"sources",
		"writes",
		"recomputations",
		"time",
		"writes/s",
	})
	table.Append([]string{
		humanize.Comma(int64(n)),
		humanize.Comma(int64(iters)),
		humanize.Comma(runs),
		elapsed.String(),
		humanize.Comma(int64(updateRate)),
	})
	table.Render()

	return nil
}
