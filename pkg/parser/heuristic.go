package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/kerbaras/mangashelf/pkg/chapter"
	"go.uber.org/zap"
)

// ProgressSource reports how far the user has read a tracked series.
type ProgressSource interface {
	Progress(ctx context.Context, trackerID int) (int, error)
}

var (
	volumeToken  = regexp.MustCompile(`v([0-9]+\.?[0-9]*)`)
	extraMarker  = regexp.MustCompile(`^(\w+_|#)?ex - `)
	chapterToken = regexp.MustCompile(`Ch\. ?([0-9]+\.?[0-9]*)`)
	numericToken = regexp.MustCompile(`[0-9]+\.?[0-9]*`)
)

// extraSuffix is appended to the tracker progress for "extra" chapters so they
// sort after the last regular chapter without colliding with the next one.
const extraSuffix = ".8"

// Heuristic infers a tracker-style chapter number from loosely named files.
type Heuristic struct {
	progress ProgressSource
	logger   *zap.Logger
}

func NewHeuristic(progress ProgressSource, logger *zap.Logger) *Heuristic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heuristic{progress: progress, logger: logger}
}

type rule func(ctx context.Context, name string, trackerID int) chapter.Number

// ChapterNumber tries, in order: a v<number> token, an extra-chapter marker,
// a "Ch. <number>" token and finally the largest number in the name. The
// first rule that yields something wins; an empty Number means nothing did.
func (h *Heuristic) ChapterNumber(ctx context.Context, name string, trackerID int) chapter.Number {
	rules := []rule{
		h.volumeNotation,
		h.extraNotation,
		h.chapterNotation,
		h.largestNumber,
	}
	for _, r := range rules {
		if n := r(ctx, name, trackerID); !n.Empty() {
			return n
		}
	}
	return ""
}

func (h *Heuristic) volumeNotation(_ context.Context, name string, _ int) chapter.Number {
	if m := volumeToken.FindStringSubmatch(name); m != nil {
		return chapter.Canon(m[1])
	}
	return ""
}

func (h *Heuristic) extraNotation(ctx context.Context, name string, trackerID int) chapter.Number {
	if !extraMarker.MatchString(name) || h.progress == nil || trackerID == 0 {
		return ""
	}
	progress, err := h.progress.Progress(ctx, trackerID)
	if err != nil {
		h.logger.Warn("progress lookup failed",
			zap.Int("tracker_id", trackerID), zap.Error(err))
		return ""
	}
	if progress <= 0 {
		return ""
	}
	return chapter.Number(strconv.Itoa(progress) + extraSuffix)
}

func (h *Heuristic) chapterNotation(_ context.Context, name string, _ int) chapter.Number {
	if m := chapterToken.FindStringSubmatch(name); m != nil {
		return chapter.Canon(m[1])
	}
	return ""
}

func (h *Heuristic) largestNumber(_ context.Context, name string, _ int) chapter.Number {
	best := -1.0
	for _, tok := range numericToken.FindAllString(name, -1) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "."), 64)
		if err != nil {
			continue
		}
		if v > best {
			best = v
		}
	}
	if best < 0 {
		return ""
	}
	return chapter.FromFloat(best)
}
