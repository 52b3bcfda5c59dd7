package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressDisplay prints a single updating status line while photos are
// archived. In debug mode each photo gets its own line instead, so the line
// doesn't fight with log output.
type ProgressDisplay struct {
	mu              sync.Mutex
	label           string
	totalPhotos     int
	doneCount       int
	downloadedCount int
	skippedCount    int
	currentPhoto    string
	startTime       time.Time
	bytesDownloaded int64
	errors          int
	isDebug         bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(label string, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		label:     label,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// ScanningPage reports a listing page being fetched
func (p *ProgressDisplay) ScanningPage(page, pages int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pages > 0 {
		printf(false, "\r%s page %d/%d", Magenta("→ listing"), page, pages)
	} else {
		printf(false, "\r%s page %d", Magenta("→ listing"), page)
	}
}

// SetTotal sets how many photos will be processed
func (p *ProgressDisplay) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalPhotos = total
	printf(false, "\n")
}

// StartPhoto marks the start of a photo
func (p *ProgressDisplay) StartPhoto(photoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentPhoto = photoID
	if !p.isDebug {
		p.printProgress()
	}
}

// CompletePhoto marks a photo as archived; size is zero when no media was saved
func (p *ProgressDisplay) CompletePhoto(photoID string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneCount++
	if size > 0 {
		p.downloadedCount++
		p.bytesDownloaded += size
	} else {
		p.skippedCount++
	}

	if p.isDebug {
		printf(false, "%s %s • %s\n", Green("✓"), photoID, humanize.Bytes(uint64(size)))
		return
	}
	p.printProgress()
}

// FailPhoto marks a photo that was only partly archived
func (p *ProgressDisplay) FailPhoto(photoID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneCount++
	p.errors++

	if p.isDebug {
		printf(false, "%s %s - %v\n", Red("✗"), photoID, err)
		return
	}
	p.printProgress()
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	barWidth := 20
	filled := 0
	if p.totalPhotos > 0 {
		filled = int(float64(p.doneCount) / float64(p.totalPhotos) * float64(barWidth))
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s [%s] %d/%d • %s • %s",
		Cyan(p.label),
		bar,
		p.doneCount,
		p.totalPhotos,
		humanize.Bytes(uint64(p.bytesDownloaded)),
		p.calculateETA(),
	)

	if p.currentPhoto != "" {
		line += fmt.Sprintf(" • %s", p.currentPhoto)
	}
	if p.errors > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors)))
	}

	printf(false, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// Complete prints the closing summary line
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)

	printf(false, "\n\n%s Archived %d new %s\n", Green("✓"), p.doneCount, p.label)
	printf(false, "  %s %d media files, %s in %s\n",
		Dim("•"),
		p.downloadedCount,
		humanize.Bytes(uint64(p.bytesDownloaded)),
		formatDuration(elapsed),
	)
	if p.skippedCount > 0 {
		printf(false, "  %s %d without media\n", Dim("•"), p.skippedCount)
	}
	if p.errors > 0 {
		printf(false, "  %s %d photos had errors, see the log\n", Dim("•"), p.errors)
	}
}

// calculateETA estimates time remaining
func (p *ProgressDisplay) calculateETA() string {
	if p.doneCount == 0 {
		return "calculating..."
	}

	remaining := p.totalPhotos - p.doneCount
	if remaining <= 0 {
		return "done"
	}
	perPhoto := time.Since(p.startTime) / time.Duration(p.doneCount)
	return formatDuration(perPhoto * time.Duration(remaining))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
