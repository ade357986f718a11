package notify

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const maxOpportunityRows = 20

// Console implementa ports.Notifier escribiendo a un io.Writer.
// table=false imprime una línea compacta por ciclo.
type Console struct {
	out   io.Writer
	table bool
	now   func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, now: time.Now}
}

// NotifyCycle imprime el resultado de un ciclo.
func (c *Console) NotifyCycle(_ context.Context, r *domain.CycleReport) error {
	if r == nil {
		return nil
	}
	if !c.table {
		c.printCompact(r)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] cycle %s — %d quotes, %d opportunities, +%d opened, %d closed (%s)\n",
		r.StartedAt.Local().Format("15:04:05"), shortID(r.CycleID), r.Quotes,
		len(r.Opportunities), len(r.Opened), len(r.Closed), r.Duration.Round(time.Millisecond))
	if len(r.FailedSources) > 0 {
		fmt.Fprintf(c.out, "  !! sources failed: %s\n", joinPlatforms(r.FailedSources))
	}

	if len(r.Opportunities) > 0 {
		c.PrintOpportunities(r.Opportunities)
	}
	for _, p := range r.Opened {
		fmt.Fprintf(c.out, "  OPEN  %-10s %-45s @ %.4f  $%.2f (%.2f sh)\n",
			p.Platform, domain.TruncateQuestion(p.Question, p.MarketID, 45),
			p.EntryPrice, p.PositionSize, p.Shares)
	}
	for _, p := range r.Closed {
		fmt.Fprintf(c.out, "  %-5s %-10s %-45s %.4f → %.4f  pnl $%+.4f  fee $%.4f\n",
			p.Status, p.Platform, domain.TruncateQuestion(p.Question, p.MarketID, 45),
			p.EntryPrice, p.ExitPrice, p.RealizedPnL, p.FeePaid)
	}
	fmt.Fprintf(c.out, "  open positions: %d | refreshed: %d | skipped: %d\n",
		len(r.OpenPositions), r.Refreshed, r.Skipped)
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r *domain.CycleReport) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d quotes → %d opps | +%d open | %d closed | %d held",
		r.StartedAt.Local().Format("15:04:05"), r.Quotes, len(r.Opportunities),
		len(r.Opened), len(r.Closed), len(r.OpenPositions))

	var pnl float64
	for _, p := range r.Closed {
		pnl += p.RealizedPnL
	}
	if len(r.Closed) > 0 {
		fmt.Fprintf(&sb, " | pnl $%+.4f", pnl)
	}
	if len(r.FailedSources) > 0 {
		fmt.Fprintf(&sb, " | failed: %s", joinPlatforms(r.FailedSources))
	}
	fmt.Fprintln(c.out, sb.String())
}

// PrintOpportunities imprime las oportunidades rankeadas (top 20).
func (c *Console) PrintOpportunities(opps []domain.Opportunity) {
	if len(opps) == 0 {
		fmt.Fprintln(c.out, "  No opportunities found in the price band.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Platform", "Market", "Category", "Price", "Vol 24h", "Liquidity")

	for i, o := range opps {
		if i >= maxOpportunityRows {
			break
		}
		table.Append(
			fmt.Sprintf("%d", o.Rank),
			string(o.Platform),
			domain.TruncateQuestion(o.Question, o.MarketID, 50),
			o.Category,
			fmt.Sprintf("%.4f", o.Price),
			fmt.Sprintf("$%.0f", o.Volume24h),
			fmt.Sprintf("$%.0f", o.Liquidity),
		)
	}
	table.Render()

	if len(opps) > maxOpportunityRows {
		fmt.Fprintf(c.out, "  ... and %d more\n", len(opps)-maxOpportunityRows)
	}
}

// PrintOpenPositions imprime las posiciones abiertas con su P&L no realizado.
func (c *Console) PrintOpenPositions(positions []domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "\n  No open positions.")
		return
	}

	now := c.now()
	fmt.Fprintf(c.out, "\n=== OPEN POSITIONS (%d) ===\n", len(positions))

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Platform", "Market", "Entry", "Current", "Size", "Unrealized", "Held")

	var invested, unrealized float64
	for _, p := range positions {
		invested += p.PositionSize
		unrealized += p.UnrealizedPnL()
		table.Append(
			fmt.Sprintf("%d", p.ID),
			string(p.Platform),
			domain.TruncateQuestion(p.Question, p.MarketID, 45),
			fmt.Sprintf("%.4f", p.EntryPrice),
			fmt.Sprintf("%.4f", p.CurrentPrice),
			fmt.Sprintf("$%.2f", p.PositionSize),
			fmt.Sprintf("$%+.4f", p.UnrealizedPnL()),
			formatDuration(p.HoldDuration(now)),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Invested: $%.2f | Unrealized P&L: $%+.4f\n", invested, unrealized)
}

// PrintPerformance imprime el resumen agregado y el desglose por plataforma.
func (c *Console) PrintPerformance(total domain.Performance, byPlatform map[domain.Platform]domain.Performance, feeRate float64) {
	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  PAPER TRADING PERFORMANCE (fee: %.1f%% on winning profit)\n", feeRate*100)
	fmt.Fprintf(c.out, "========================================================\n\n")

	if total.TotalTrades == 0 {
		fmt.Fprintln(c.out, "  No closed positions yet. Run a few cycles first.")
		fmt.Fprintln(c.out)
		return
	}

	fmt.Fprintf(c.out, "  Total trades:     %d\n", total.TotalTrades)
	fmt.Fprintf(c.out, "  Wins / Losses:    %d / %d\n", total.Wins, total.Losses)
	fmt.Fprintf(c.out, "  Win rate:         %.1f%%\n", total.WinRate*100)
	fmt.Fprintf(c.out, "  Total invested:   $%.2f\n", total.TotalInvested)
	fmt.Fprintf(c.out, "  Total P&L:        $%+.4f\n", total.TotalPnL)
	fmt.Fprintf(c.out, "  Fees paid:        $%.4f\n", total.TotalFees)
	fmt.Fprintf(c.out, "  ROI:              %.2f%%\n", total.ROI*100)
	fmt.Fprintf(c.out, "  Avg P&L / trade:  $%+.4f\n", total.AvgProfit)

	if len(byPlatform) > 1 {
		fmt.Fprintf(c.out, "\n  --- BY PLATFORM ---\n")
		table := tablewriter.NewWriter(c.out)
		table.Header("Platform", "Trades", "W/L", "Win%", "P&L", "Fees", "ROI")
		for _, p := range slices.Sorted(maps.Keys(byPlatform)) {
			perf := byPlatform[p]
			table.Append(
				string(p),
				fmt.Sprintf("%d", perf.TotalTrades),
				fmt.Sprintf("%d/%d", perf.Wins, perf.Losses),
				fmt.Sprintf("%.1f", perf.WinRate*100),
				fmt.Sprintf("$%+.4f", perf.TotalPnL),
				fmt.Sprintf("$%.4f", perf.TotalFees),
				fmt.Sprintf("%.2f%%", perf.ROI*100),
			)
		}
		table.Render()
	}
	fmt.Fprintln(c.out)
}

// PrintHistory imprime las posiciones cerradas y los últimos ciclos.
func (c *Console) PrintHistory(closed []domain.Position, cycles []domain.CycleRecord) {
	fmt.Fprintf(c.out, "\n=== CLOSED POSITIONS (%d) ===\n", len(closed))
	if len(closed) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("ID", "Status", "Platform", "Market", "Entry", "Exit", "P&L", "Fee", "Closed")
		for _, p := range closed {
			closedAt := "-"
			if p.ClosedAt != nil {
				closedAt = p.ClosedAt.Local().Format("01-02 15:04")
			}
			table.Append(
				fmt.Sprintf("%d", p.ID),
				string(p.Status),
				string(p.Platform),
				domain.TruncateQuestion(p.Question, p.MarketID, 40),
				fmt.Sprintf("%.4f", p.EntryPrice),
				fmt.Sprintf("%.4f", p.ExitPrice),
				fmt.Sprintf("$%+.4f", p.RealizedPnL),
				fmt.Sprintf("$%.4f", p.FeePaid),
				closedAt,
			)
		}
		table.Render()
	}

	if len(cycles) == 0 {
		return
	}
	fmt.Fprintf(c.out, "\n=== RECENT CYCLES (%d) ===\n", len(cycles))
	table := tablewriter.NewWriter(c.out)
	table.Header("Cycle", "Started", "Quotes", "Opps", "Opened", "Closed", "Failed")
	for _, cy := range cycles {
		failed := "-"
		if len(cy.FailedSources) > 0 {
			failed = joinPlatforms(cy.FailedSources)
		}
		table.Append(
			shortID(cy.ID),
			cy.StartedAt.Local().Format("01-02 15:04:05"),
			fmt.Sprintf("%d", cy.Quotes),
			fmt.Sprintf("%d", cy.Opportunities),
			fmt.Sprintf("%d", cy.Opened),
			fmt.Sprintf("%d", cy.Closed),
			failed,
		)
	}
	table.Render()
}

// PrintBanner imprime la configuración activa al arrancar.
func (c *Console) PrintBanner(sources []domain.Platform, minPrice, maxPrice, positionSize float64, maxPositions int) {
	fmt.Fprintf(c.out, "Paper trader — sources: %s | band %.2f-%.2f | $%.0f/position | max %d open\n",
		joinPlatforms(sources), minPrice, maxPrice, positionSize, maxPositions)
}

// --- helpers ---

func joinPlatforms(ps []domain.Platform) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	}
}
