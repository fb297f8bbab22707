package anatomy

import (
	"math"

	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// Skeleton is a COCO-ordered keypoint list with geometry helpers.
type Skeleton []core.Keypoint

func (s Skeleton) visible(i int, threshold float64) bool {
	return i < len(s) && s[i].Visibility > threshold
}

func (s Skeleton) dist(a, b int) float64 {
	return math.Hypot(s[a].X-s[b].X, s[a].Y-s[b].Y)
}

func (s Skeleton) midpoint(a, b int) (x, y float64) {
	return (s[a].X + s[b].X) / 2, (s[a].Y + s[b].Y) / 2
}

// isVertical reports whether |dy|/length of segment a-b exceeds ratio.
// Degenerate segments are never vertical.
func (s Skeleton) isVertical(a, b int, ratio float64) bool {
	length := s.dist(a, b)
	if length < minSegmentPixels {
		return false
	}
	return math.Abs(s[a].Y-s[b].Y)/length > ratio
}
