package tfidf

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "than", "so", "such",
		"into", "about", "between", "through", "before", "after", "above",
		"below", "out", "off", "own", "same", "too", "very", "can", "will",
		"just", "now", "inc", "llc", "ltd", "co", "corp",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
