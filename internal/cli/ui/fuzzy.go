package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the maximum edit distance considered a match
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions is the maximum number of suggestions returned
	DefaultMaxSuggestions = 3
)

// suggestion pairs a candidate with its edit distance
type suggestion struct {
	value    string
	distance int
}

// FindSimilar finds candidates close to the target using Levenshtein
// distance. Used to suggest type names when a dump filter matches
// nothing.
//
// Example:
//
//	candidates := []string{"App.Program", "App.Logger"}
//	FindSimilar("App.Prgram", candidates) // Returns: ["App.Program"]
func FindSimilar(target string, candidates []string) []string {
	var suggestions []suggestion

	lowered := strings.ToLower(target)
	for _, candidate := range candidates {
		dist := LevenshteinDistance(lowered, strings.ToLower(candidate))
		if dist <= DefaultMaxDistance {
			suggestions = append(suggestions, suggestion{
				value:    candidate,
				distance: dist,
			})
		}
	}

	// Sort by distance (closest first)
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].distance < suggestions[j].distance
	})

	result := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(suggestions) && i < DefaultMaxSuggestions; i++ {
		result = append(result, suggestions[i].value)
	}
	return result
}

// LevenshteinDistance calculates the minimum number of single-character
// edits (insertions, deletions, or substitutions) required to change
// one string into the other.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

// FindBestMatch returns the single closest match, or an empty string
// if nothing is within the max distance.
func FindBestMatch(target string, candidates []string) string {
	matches := FindSimilar(target, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}
