package main

import (
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// Sort method constants, as stored in the config file
const (
	SortNatural    = 0 // file2 before file10
	SortSimple     = 1 // byte-wise path order
	SortEntryOrder = 2 // keep the order the paths were discovered in
)

// SortStrategy orders gallery entries
type SortStrategy interface {
	// Sort returns a new sorted slice without modifying the original
	Sort(images []ImagePath) []ImagePath
	Name() string
	ID() int
}

type compareStrategy struct {
	id   int
	name string
	cmp  func(a, b string) int
}

func (s compareStrategy) Sort(images []ImagePath) []ImagePath {
	result := slices.Clone(images)
	if result == nil {
		return []ImagePath{}
	}
	if s.cmp != nil {
		slices.SortStableFunc(result, func(a, b ImagePath) int {
			return s.cmp(a.Path, b.Path)
		})
	}
	return result
}

func (s compareStrategy) Name() string { return s.name }
func (s compareStrategy) ID() int      { return s.id }

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}

var sortStrategies = []SortStrategy{
	compareStrategy{SortNatural, "Natural", naturalCompare},
	compareStrategy{SortSimple, "Simple", strings.Compare},
	compareStrategy{SortEntryOrder, "Entry Order", nil},
}

// GetSortStrategy returns the strategy for a config sort method, falling
// back to natural order for unknown ids.
func GetSortStrategy(sortMethod int) SortStrategy {
	for _, s := range sortStrategies {
		if s.ID() == sortMethod {
			return s
		}
	}
	return sortStrategies[0]
}

// GetAllSortStrategies returns every strategy in config id order
func GetAllSortStrategies() []SortStrategy {
	return slices.Clone(sortStrategies)
}

func sortImagePaths(images []ImagePath, sortMethod int) []ImagePath {
	return GetSortStrategy(sortMethod).Sort(images)
}
