package services

import (
	"fmt"
	"strings"

	"stwipe-backend/internal/pipeline"
)

// Segmenter splits cleaned transcript text into a fixed number of contiguous
// word chunks with synthetic fixed-width time bounds. The bounds are
// placeholders, not aligned to actual speech timing.
type Segmenter struct {
	count   int
	seconds int
}

func NewSegmenter(count, seconds int) *Segmenter {
	if count <= 0 {
		count = 3
	}
	if seconds <= 0 {
		seconds = 180
	}
	return &Segmenter{count: count, seconds: seconds}
}

// Segment chunks the word sequence into ceil(words/count) sized pieces.
// Empty trailing chunks are dropped, so short texts yield fewer segments.
// Concatenating the chunk word sequences reproduces the input exactly.
func (s *Segmenter) Segment(text, videoTitle string) []pipeline.Segment {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	segmentSize := (len(words) + s.count - 1) / s.count

	segments := make([]pipeline.Segment, 0, s.count)
	for i := 0; i < s.count; i++ {
		start := i * segmentSize
		if start >= len(words) {
			break
		}
		end := (i + 1) * segmentSize
		if end > len(words) {
			end = len(words)
		}

		segments = append(segments, pipeline.Segment{
			Topic:     fmt.Sprintf("%s - Concept %d", videoTitle, i+1),
			Content:   strings.Join(words[start:end], " "),
			StartTime: i * s.seconds,
			EndTime:   (i + 1) * s.seconds,
		})
	}

	return segments
}
