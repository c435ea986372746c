package liquidity

import "sort"

// BaseVertices are the horizons evaluated for every fund, in days
var BaseVertices = []Vertex{1, 5, 21, 42, 63}

// Vertices returns the base horizons plus the fund's own redemption notice
// period, de-duplicated and ascending. A non-positive target adds nothing.
func Vertices(targetHorizon int) []Vertex {
	seen := make(map[Vertex]bool, len(BaseVertices)+1)
	out := make([]Vertex, 0, len(BaseVertices)+1)
	for _, v := range BaseVertices {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if t := Vertex(targetHorizon); t > 0 && !seen[t] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
