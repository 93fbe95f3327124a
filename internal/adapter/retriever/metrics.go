package retriever

import "math"

// Ranking metrics used to evaluate retrieval against labelled relevance.

func PrecisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	relevantSet := toSet(relevant)
	hits := 0
	for _, r := range retrieved {
		if relevantSet[r] {
			hits++
		}
	}
	return float64(hits) / float64(len(retrieved))
}

func RecallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	relevantSet := toSet(relevant)
	found := make(map[string]bool)
	for _, r := range retrieved {
		if relevantSet[r] {
			found[r] = true
		}
	}
	return float64(len(found)) / float64(len(relevantSet))
}

// ReciprocalRank is 1/rank of the first relevant item, 0 when none is retrieved.
func ReciprocalRank(retrieved, relevant []string) float64 {
	relevantSet := toSet(relevant)
	for i, r := range retrieved {
		if relevantSet[r] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func NDCG(scores, ideal []float64) float64 {
	idcg := calculateDCG(ideal)
	if idcg == 0 {
		return 0
	}
	return calculateDCG(scores) / idcg
}

func calculateDCG(scores []float64) float64 {
	dcg := 0.0
	for i, score := range scores {
		dcg += score / math.Log2(float64(i+2))
	}
	return dcg
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
