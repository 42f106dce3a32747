package player

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// MediaInfo holds the probe results for a local media file.
type MediaInfo struct {
	Duration float64
	Codec    string
}

// Probe runs ffprobe against the file and extracts the duration and the
// first stream's codec. An unparseable or missing duration is an error;
// the player cannot clamp playback without it.
func Probe(path string) (*MediaInfo, error) {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %v", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (*MediaInfo, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecName string `json:"codec_name"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %v", err)
	}

	if probe.Format.Duration == "" {
		return nil, fmt.Errorf("ffprobe reported no duration")
	}
	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("parse duration %q: %v", probe.Format.Duration, err)
	}

	info := &MediaInfo{Duration: duration}
	if len(probe.Streams) > 0 {
		info.Codec = probe.Streams[0].CodecName
	}
	return info, nil
}
