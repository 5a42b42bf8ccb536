package quality

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"time"

	mp3lib "github.com/tcolgate/mp3"
)

const (
	// minAudioBytes is the floor below which an artifact is assumed
	// corrupt or empty.
	minAudioBytes = 1024

	// minAudioDuration is the shortest playable broadcast clip.
	minAudioDuration = time.Second

	// shortTranslationRatio triggers a soft warning, not a failure: some
	// target languages are legitimately terser than English.
	shortTranslationRatio = 0.3
)

// Gate validates pipeline stage outputs before they are allowed to
// proceed. A failed check entitles the orchestrator to one retry of the
// preceding stage.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// ValidateTranslation rejects empty output and output identical to the
// source (which means translation did not occur). Suspiciously short
// output is logged but allowed through.
func (g *Gate) ValidateTranslation(sourceText, translatedText string) bool {
	if strings.TrimSpace(translatedText) == "" {
		log.Printf("WARN (QualityGate): Translation output is empty")
		return false
	}
	if translatedText == sourceText {
		log.Printf("WARN (QualityGate): Translation output is identical to source")
		return false
	}

	srcLen := len([]rune(sourceText))
	if srcLen > 0 && float64(len([]rune(translatedText))) < shortTranslationRatio*float64(srcLen) {
		log.Printf("WARN (QualityGate): Translation is under %.0f%% of source length (%d vs %d chars), accepting anyway",
			shortTranslationRatio*100, len([]rune(translatedText)), srcLen)
	}
	return true
}

// ValidateAudio rejects artifacts that are missing, too small, or whose
// measured duration is under the minimum. A duration that cannot be
// measured is not a quality failure; the artifact is provisionally
// accepted.
func (g *Gate) ValidateAudio(audioPath string) bool {
	info, err := os.Stat(audioPath)
	if err != nil {
		log.Printf("WARN (QualityGate): Audio artifact %s does not exist: %v", audioPath, err)
		return false
	}
	if info.Size() < minAudioBytes {
		log.Printf("WARN (QualityGate): Audio artifact %s is only %d bytes (minimum %d)", audioPath, info.Size(), minAudioBytes)
		return false
	}

	duration, err := measureDuration(audioPath)
	if err != nil {
		log.Printf("WARN (QualityGate): Cannot measure duration of %s, accepting provisionally: %v", audioPath, err)
		return true
	}
	if duration < minAudioDuration {
		log.Printf("WARN (QualityGate): Audio artifact %s is only %v long (minimum %v)", audioPath, duration, minAudioDuration)
		return false
	}
	return true
}

// measureDuration sums MP3 frame durations. Any decode error before the
// first frame counts as unmeasurable.
func measureDuration(audioPath string) (time.Duration, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	decoder := mp3lib.NewDecoder(file)
	var frame mp3lib.Frame
	var skipped int
	var total time.Duration
	frames := 0

	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) && frames > 0 {
				return total, nil
			}
			return 0, err
		}
		total += frame.Duration()
		frames++
	}
}
