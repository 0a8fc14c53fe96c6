package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/angch/logrelay/ipc"
)

func printInstanceTable(w io.Writer, instances []ipc.StatusResponse) {
	if len(instances) == 0 {
		fmt.Fprintln(w, "No running instances found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tSTARTED\tUPTIME\tMEM\tTOOL\tSTATE\tFORWARDED\tDROPPED\tLAST ERROR")
	for _, inst := range instances {
		tool := inst.Tool
		if inst.ToolPID > 0 {
			tool = fmt.Sprintf("%s [%d]", inst.Tool, inst.ToolPID)
		}
		lastErr := inst.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			inst.PID,
			inst.StartTime.Local().Format("2006-01-02 15:04"),
			formatDuration(time.Since(inst.StartTime)),
			formatBytes(inst.MemoryAlloc),
			tool,
			inst.Relay.StateName,
			inst.Relay.Forwarded,
			inst.Relay.Dropped,
			lastErr,
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTotal instances: %d\n", len(instances))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, h, m)
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
