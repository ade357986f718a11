package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/polypaper/internal/adapters/notify"
	"github.com/alejandrodnm/polypaper/internal/application/engine/paper"
)

const historyCycles = 20

func runOnce(ctx context.Context, pe *paper.Engine, console *notify.Console) {
	report, err := pe.RunOnce(ctx)
	if err != nil {
		slog.Error("scan cycle failed", "err", err)
		os.Exit(1)
	}
	if err := console.NotifyCycle(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	console.PrintOpenPositions(report.OpenPositions)
}

func printStats(ctx context.Context, pe *paper.Engine, console *notify.Console, feeRate float64) {
	total, err := pe.SummarizePerformance(ctx)
	if err != nil {
		slog.Error("failed to summarize performance", "err", err)
		os.Exit(1)
	}
	byPlatform, err := pe.PerformanceByPlatform(ctx)
	if err != nil {
		slog.Error("failed to summarize performance", "err", err)
		os.Exit(1)
	}
	console.PrintPerformance(total, byPlatform, feeRate)
}

func printPositions(ctx context.Context, pe *paper.Engine, console *notify.Console) {
	open, err := pe.OpenPositions(ctx)
	if err != nil {
		slog.Error("failed to list open positions", "err", err)
		os.Exit(1)
	}
	console.PrintOpenPositions(open)
}

func printHistory(ctx context.Context, pe *paper.Engine, console *notify.Console) {
	closed, err := pe.ClosedPositions(ctx)
	if err != nil {
		slog.Error("failed to list closed positions", "err", err)
		os.Exit(1)
	}
	cycles, err := pe.RecentCycles(ctx, historyCycles)
	if err != nil {
		slog.Error("failed to list cycles", "err", err)
		os.Exit(1)
	}
	console.PrintHistory(closed, cycles)
}
