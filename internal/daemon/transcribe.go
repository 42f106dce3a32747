package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lkaiser/livecap/internal/player"
	"github.com/lkaiser/livecap/internal/subtitle"
)

// Transcriber produces subtitle segments for a media file, delivering
// them in batches as transcription progresses. Implementations must call
// emit with monotonically later batches; the final document is compiled
// by the caller.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, emit func([]subtitle.Segment)) (duration float64, err error)
}

// WhisperTranscriber shells out to a whisper CLI, splitting the file into
// fixed-length chunks so partial results stream out while later chunks
// are still running. Finished chunk documents are kept in the work dir,
// so an interrupted job resumes where it stopped.
type WhisperTranscriber struct {
	Command      string
	Model        string
	ChunkSeconds int
	WorkDir      string
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, path string, emit func([]subtitle.Segment)) (float64, error) {
	info, err := player.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}

	workDir := filepath.Join(w.WorkDir, filepath.Base(path)+".chunks")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return 0, fmt.Errorf("create work dir: %w", err)
	}

	chunk := float64(w.ChunkSeconds)
	for offset := 0.0; offset < info.Duration; offset += chunk {
		if err := ctx.Err(); err != nil {
			return info.Duration, err
		}

		doc, err := w.chunkDocument(ctx, path, workDir, offset, chunk)
		if err != nil {
			return info.Duration, fmt.Errorf("chunk at %.0fs: %w", offset, err)
		}

		segments, err := shiftedSegments(doc, offset)
		if err != nil {
			return info.Duration, fmt.Errorf("chunk at %.0fs: %w", offset, err)
		}
		if len(segments) > 0 {
			emit(segments)
		}
	}

	return info.Duration, nil
}

// chunkDocument returns the subtitle document for one chunk, reusing a
// previously finished one when present.
func (w *WhisperTranscriber) chunkDocument(ctx context.Context, path, workDir string, offset, length float64) (string, error) {
	docPath := filepath.Join(workDir, fmt.Sprintf("%05d.vtt", int(offset)))
	if data, err := os.ReadFile(docPath); err == nil {
		return string(data), nil
	}

	wavPath := filepath.Join(workDir, "chunk.wav")
	defer os.Remove(wavPath)

	extract := exec.CommandContext(ctx, "ffmpeg", "-y", "-v", "quiet",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		"-t", strconv.FormatFloat(length, 'f', 3, 64),
		"-i", path,
		"-ar", "16000", "-ac", "1",
		wavPath)
	if err := extract.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg extract: %v", err)
	}

	args := []string{wavPath, "--output_format", "vtt", "--output_dir", workDir}
	if w.Model != "" {
		args = append(args, "--model", w.Model)
	}
	if out, err := exec.CommandContext(ctx, w.Command, args...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %v: %s", w.Command, err, strings.TrimSpace(string(out)))
	}

	outPath := filepath.Join(workDir, "chunk.vtt")
	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %v", err)
	}

	// Keep the finished chunk for resume.
	if err := os.Rename(outPath, docPath); err != nil {
		return "", fmt.Errorf("store chunk: %v", err)
	}
	return string(data), nil
}

// shiftedSegments parses a chunk document and moves its timestamps from
// chunk-local time to file time.
func shiftedSegments(doc string, offset float64) ([]subtitle.Segment, error) {
	cues, err := subtitle.ParseWebVTT(doc)
	if err != nil {
		return nil, err
	}

	segments := make([]subtitle.Segment, 0, len(cues))
	for _, cue := range cues {
		segments = append(segments, subtitle.Segment{
			Start: subtitle.FormatTimestamp(cue.StartTime + offset),
			End:   subtitle.FormatTimestamp(cue.EndTime + offset),
			Text:  cue.Text,
		})
	}
	return segments, nil
}
