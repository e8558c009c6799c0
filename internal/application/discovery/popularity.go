package discovery

import "sort"

// ApplyPopularityCurve 按流行度偏好（0-100，50 为中性）对候选做过滤与重排。
//
// 以候选中"有评测数"条目的评测数中位数为基准：
//   - score < 50（偏冷门）：保留评测数低于 median*(1+(50-score)/50) 的条目，
//     没有评测数的条目一并保留，按评测数升序排列；
//   - score > 50（偏热门）：保留评测数不低于 median*((score-50)/50) 的条目，
//     按评测数降序排列；
//   - score == 50：原样返回（保持相似度序）。
//
// 入参切片不会被修改。
func ApplyPopularityCurve(candidates []Candidate, score int) []Candidate {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if score == 50 || len(candidates) == 0 {
		out := make([]Candidate, len(candidates))
		copy(out, candidates)
		return out
	}

	counts := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		if c.ReviewCount > 0 {
			counts = append(counts, c.ReviewCount)
		}
	}
	if len(counts) == 0 {
		// 没有任何评测数信号，曲线无从施加
		out := make([]Candidate, len(candidates))
		copy(out, candidates)
		return out
	}
	median := medianInt64(counts)

	out := make([]Candidate, 0, len(candidates))
	if score < 50 {
		threshold := median * (1 + float64(50-score)/50)
		for _, c := range candidates {
			if c.ReviewCount == 0 || float64(c.ReviewCount) < threshold {
				out = append(out, c)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ReviewCount < out[j].ReviewCount
		})
		return out
	}

	threshold := median * (float64(score-50) / 50)
	for _, c := range candidates {
		if float64(c.ReviewCount) >= threshold {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReviewCount > out[j].ReviewCount
	})
	return out
}

// medianInt64 计算中位数，偶数个时取中间两数的平均
func medianInt64(vs []int64) float64 {
	sorted := make([]int64, len(vs))
	copy(sorted, vs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
