package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/caption-studio/backend/internal/video"
)

// slotBase is the fixed name of the temp-file slot the downloader writes
// into. The downloader appends ".<lang>.vtt" to the output template.
const slotBase = "temp_subtitle_file"

// captionLang is the only subtitle track the pipeline understands.
const captionLang = "en"

// VideoInfo is the subset of downloader metadata the service records.
type VideoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Channel     string  `json:"channel"`
	Duration    float64 `json:"duration"`
	HasAutoSubs bool    `json:"has_auto_subs"`
}

// Fetcher downloads auto-generated captions through an external yt-dlp
// binary. Fetches are paced by a rate limiter so repeated requests do not
// hammer the subtitle endpoints.
type Fetcher struct {
	binary  string
	tempDir string
	limiter *rate.Limiter
}

// NewFetcher creates a fetcher around the given downloader binary. fetchRate
// is the sustained caption fetches per second; values <= 0 fall back to one
// per second.
func NewFetcher(binary, tempDir string, fetchRate float64) *Fetcher {
	if binary == "" {
		binary = "yt-dlp"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if fetchRate <= 0 {
		fetchRate = 1
	}
	return &Fetcher{
		binary:  binary,
		tempDir: tempDir,
		limiter: rate.NewLimiter(rate.Limit(fetchRate), 1),
	}
}

// Available reports whether the downloader binary can be found.
func (f *Fetcher) Available() bool {
	_, err := exec.LookPath(f.binary)
	return err == nil
}

// Probe asks the downloader for video metadata without downloading anything.
// HasAutoSubs reports whether an auto-generated English track exists, which
// lets callers fail fast before the full fetch.
func (f *Fetcher) Probe(ctx context.Context, videoID string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, f.binary,
		"--skip-download",
		"--dump-single-json",
		"--no-warnings",
		videoID,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s probe: %w", f.binary, err)
	}

	var raw struct {
		ID                string                     `json:"id"`
		Title             string                     `json:"title"`
		Channel           string                     `json:"channel"`
		Duration          float64                    `json:"duration"`
		AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
	}
	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, fmt.Errorf("parse %s output: %w", f.binary, err)
	}

	info := &VideoInfo{
		ID:       raw.ID,
		Title:    raw.Title,
		Channel:  raw.Channel,
		Duration: raw.Duration,
	}
	_, info.HasAutoSubs = raw.AutomaticCaptions[captionLang]
	return info, nil
}

// Fetch downloads the auto-generated English captions for a video and
// returns the raw VTT text. videoID must be a bare video ID; anything
// carrying URL or path characters is rejected before the downloader runs.
// The downloader writes into a per-video slot under the temp directory;
// the slot is cleaned up before returning.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	// The video ID names the slot directory, so it must never contain
	// path separators or dot segments.
	if !video.IsID(videoID) {
		return "", fmt.Errorf("invalid video id %q", videoID)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	slotDir := filepath.Join(f.tempDir, "captions-"+videoID)
	if err := os.MkdirAll(slotDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(slotDir)

	slot := filepath.Join(slotDir, slotBase)
	cmd := exec.CommandContext(ctx, f.binary,
		"--skip-download",
		"--write-auto-subs",
		"--sub-format", "vtt",
		"--sub-langs", captionLang,
		"--sleep-subtitles", "1",
		"-o", slot,
		videoID,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %s: %w", f.binary, strings.TrimSpace(string(output)), err)
	}

	data, err := os.ReadFile(slot + "." + captionLang + ".vtt")
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no auto-generated English captions for video %s", videoID)
		}
		return "", fmt.Errorf("read captions: %w", err)
	}

	return string(data), nil
}
