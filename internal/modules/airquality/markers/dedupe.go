package markers

import (
	"strconv"

	"aqmap-server/internal/modules/airquality/types"
)

// PositionKey is the canonical text of a [longitude, latitude] pair. Two
// readings are duplicates when their keys are equal byte for byte; there is no
// distance tolerance, so 19.5 and 19.50001 are different positions.
type PositionKey string

func KeyOf(lon, lat float64) PositionKey {
	return PositionKey(formatCoord(lon) + "," + formatCoord(lat))
}

func formatCoord(f float64) string {
	if f == 0 {
		// -0 and 0 print the same.
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FirstSeen maps each distinct position to the index of the first reading
// found there.
func FirstSeen(readings []types.Reading) map[PositionKey]int {
	seen := make(map[PositionKey]int, len(readings))
	for i, r := range readings {
		k := KeyOf(r.Longitude(), r.Latitude())
		if _, ok := seen[k]; !ok {
			seen[k] = i
		}
	}
	return seen
}

// DedupeByPosition keeps the first reading at each distinct position, in input
// order. Later readings at the same position are dropped, not merged.
func DedupeByPosition(readings []types.Reading) []types.Reading {
	return pick(readings, dedupeIndexes(readings))
}

// dedupeIndexes returns the input indexes DedupeByPosition keeps.
func dedupeIndexes(readings []types.Reading) []int {
	seen := FirstSeen(readings)
	out := make([]int, 0, len(seen))
	for i, r := range readings {
		if seen[KeyOf(r.Longitude(), r.Latitude())] == i {
			out = append(out, i)
		}
	}
	return out
}

func pick(readings []types.Reading, idx []int) []types.Reading {
	out := make([]types.Reading, 0, len(idx))
	for _, i := range idx {
		out = append(out, readings[i])
	}
	return out
}
