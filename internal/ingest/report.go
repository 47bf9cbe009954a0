package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FormatResult renders a run result as the terminal status shown to the user
func FormatResult(res *Result) string {
	if res == nil {
		return ""
	}

	var parts []string

	switch {
	case res.Stage == StageDone:
		parts = append(parts, fmt.Sprintf("✅ Ingested channel %s", res.ChannelID))
	case res.Stage == StageUnresolved:
		parts = append(parts, fmt.Sprintf("❌ Could not resolve channel reference %q", res.Reference))
	case errors.Is(res.Err, ErrChannelNotFound):
		parts = append(parts, fmt.Sprintf("❌ Channel %s not found", res.ChannelID))
	default:
		parts = append(parts, fmt.Sprintf("❌ Run aborted during %s", res.Stage))
	}

	if res.Err != nil && res.Stage != StageUnresolved {
		parts = append(parts, fmt.Sprintf("⚠️ %v", res.Err))
	}

	if res.Discovered > 0 {
		parts = append(parts, fmt.Sprintf("🎬 %d discovered, %d saved, %d skipped, %d failed",
			res.Discovered, res.Saved, res.Skipped, res.Failed))
	}

	parts = append(parts, fmt.Sprintf("⏱ %s", res.Duration.Round(time.Millisecond)))
	parts = append(parts, fmt.Sprintf("🆔 %s", res.RunID))

	return strings.Join(parts, "\n")
}

