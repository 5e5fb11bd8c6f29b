package contour

import "irisrec/pkg/imgbuf"

// RunViterbi returns, for each column of values, the row of the maximum
// weight path crossing the image from left to right with vertical steps of
// at most one row.
//
// The forward pass accumulates
//
//	cost(h, w) = values(h, w) + max(cost(h-1, w-1), cost(h, w-1), cost(h+1, w-1))
//
// and the backward pass starts from the first maximum of the last column.
// Walking left, the path is forced back toward its starting row whenever
// its drift exceeds the number of remaining columns, so the two ends meet
// when the image is wrapped into a ring.
func RunViterbi(values *imgbuf.Gray) []int {
	width, height := values.Width, values.Height
	path := make([]int, width)
	if width == 0 || height == 0 {
		return path
	}

	// cost is stored column by column
	cost := make([][]float32, width)
	for w := range cost {
		cost[w] = make([]float32, height)
	}
	for h := 0; h < height; h++ {
		cost[0][h] = float32(values.At(0, h))
	}
	for w := 1; w < width; w++ {
		prev, cur := cost[w-1], cost[w]
		for h := 0; h < height; h++ {
			best := prev[h]
			if h > 0 && prev[h-1] > best {
				best = prev[h-1]
			}
			if h < height-1 && prev[h+1] > best {
				best = prev[h+1]
			}
			cur[h] = best + float32(values.At(w, h))
		}
	}

	last := cost[width-1]
	h0 := 0
	for h, v := range last {
		if v > last[h0] {
			h0 = h
		}
	}
	h := h0
	path[width-1] = h0

	for w := width - 2; w >= 0; w-- {
		switch {
		case h-h0 > w:
			h--
		case h0-h > w:
			h++
		default:
			var up, down float32
			if h > 0 {
				up = cost[w][h-1]
			}
			here := cost[w][h]
			if h < height-1 {
				down = cost[w][h+1]
			}
			if up > here && up > down {
				h--
			} else if down > here && down > up {
				h++
			}
		}
		path[w] = h
	}
	return path
}
