package conversion

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Converter turns synthesized WAV artifacts into the MP3 files the
// messaging channel can fetch, by shelling out to ffmpeg.
type Converter struct {
	ffmpegPath string // Path to ffmpeg executable, detected on creation
	timeout    time.Duration
}

// NewConverter creates a new Converter, attempting to find ffmpeg.
func NewConverter() (*Converter, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		log.Printf("WARN (Converter): ffmpeg executable not found in PATH. Audio conversion will fail.")
	} else {
		log.Printf("INFO (Converter): Found ffmpeg executable at: %s", path)
	}
	return &Converter{
		ffmpegPath: path, // Store the path, even if empty
		timeout:    30 * time.Second,
	}, nil
}

// WAVToMP3 converts the intermediate WAV at wavPath to an MP3 next to it.
// The WAV is deleted on every exit path; only the MP3 outlives the call.
func (c *Converter) WAVToMP3(ctx context.Context, wavPath string) (string, error) {
	defer func() {
		if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
			log.Printf("WARN (Converter): Failed to remove intermediate WAV %s: %v", wavPath, err)
		}
	}()

	if c.ffmpegPath == "" {
		return "", fmt.Errorf("ffmpeg executable not found, cannot convert %s", wavPath)
	}

	mp3Path := strings.TrimSuffix(wavPath, ".wav") + ".mp3"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.ffmpegPath, "-y", "-i", wavPath, "-codec:a", "libmp3lame", "-qscale:a", "4", mp3Path)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		stderrOutput := stderrBuf.String()
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("ffmpeg execution timed out after %v: %w. Stderr: %s", c.timeout, ctx.Err(), stderrOutput)
		}
		return "", fmt.Errorf("ffmpeg execution failed: %w. Stderr: %s", err, stderrOutput)
	}

	return mp3Path, nil
}
