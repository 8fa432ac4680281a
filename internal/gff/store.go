package gff

import "sort"

// Store holds annotations indexed by reference sequence with
// interval-based overlap lookup. Annotations are loaded once and never
// modified after the expected-site pass.
type Store struct {
	anns  map[string][]*Annotation
	trees map[string]*intervalTree
}

// NewStore creates an empty annotation store.
func NewStore() *Store {
	return &Store{
		anns:  make(map[string][]*Annotation),
		trees: make(map[string]*intervalTree),
	}
}

// Add adds an annotation to the store.
func (s *Store) Add(a *Annotation) {
	s.anns[a.SeqID] = append(s.anns[a.SeqID], a)
	delete(s.trees, a.SeqID) // invalidate the lookup index
}

// AddAll adds a batch of annotations.
func (s *Store) AddAll(anns []*Annotation) {
	for _, a := range anns {
		s.Add(a)
	}
}

// HasSeq reports whether any annotation exists for a sequence.
func (s *Store) HasSeq(seqID string) bool {
	return len(s.anns[seqID]) > 0
}

// Overlapping returns the annotations on seqID whose span contains the
// 0-based position. An unknown sequence yields nil.
func (s *Store) Overlapping(seqID string, pos int64) []*Annotation {
	anns, ok := s.anns[seqID]
	if !ok {
		return nil
	}
	tree, ok := s.trees[seqID]
	if !ok {
		tree = buildIntervalTree(anns)
		s.trees[seqID] = tree
	}
	return tree.findOverlaps(pos)
}

// SeqIDs returns the sorted reference sequence names in the store.
func (s *Store) SeqIDs() []string {
	ids := make([]string, 0, len(s.anns))
	for id := range s.anns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Annotations returns every annotation, ordered by sequence then start.
func (s *Store) Annotations() []*Annotation {
	var all []*Annotation
	for _, id := range s.SeqIDs() {
		anns := append([]*Annotation(nil), s.anns[id]...)
		sort.Slice(anns, func(i, j int) bool { return anns[i].Start < anns[j].Start })
		all = append(all, anns...)
	}
	return all
}

// Len returns the number of annotations in the store.
func (s *Store) Len() int {
	n := 0
	for _, anns := range s.anns {
		n += len(anns)
	}
	return n
}

// Samples returns the sorted union of sample names appearing in any
// annotation's coverage map.
func (s *Store) Samples() []string {
	seen := make(map[string]bool)
	for _, anns := range s.anns {
		for _, a := range anns {
			for sample := range a.Coverage {
				seen[sample] = true
			}
		}
	}
	samples := make([]string, 0, len(seen))
	for sample := range seen {
		samples = append(samples, sample)
	}
	sort.Strings(samples)
	return samples
}

// intervalTree provides O(log n + k) overlap queries using a
// sorted-slice approach with a prefix-max array.
type intervalTree struct {
	intervals []interval
	maxEnd    []int64 // maxEnd[i] = max(end) for intervals[:i+1]
}

type interval struct {
	start int64
	end   int64 // exclusive
	ann   *Annotation
}

func buildIntervalTree(anns []*Annotation) *intervalTree {
	if len(anns) == 0 {
		return &intervalTree{}
	}

	intervals := make([]interval, len(anns))
	for i, a := range anns {
		intervals[i] = interval{start: a.Start, end: a.End, ann: a}
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	maxEnd := make([]int64, len(intervals))
	maxEnd[0] = intervals[0].end
	for i := 1; i < len(intervals); i++ {
		maxEnd[i] = intervals[i].end
		if maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &intervalTree{intervals: intervals, maxEnd: maxEnd}
}

// findOverlaps returns all annotations whose [start, end) span contains pos.
func (t *intervalTree) findOverlaps(pos int64) []*Annotation {
	if len(t.intervals) == 0 {
		return nil
	}

	var result []*Annotation

	// Rightmost interval with start <= pos; candidates are [0, hi).
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start > pos
	})

	for i := hi - 1; i >= 0; i-- {
		// Prune: maxEnd[i] covers intervals[:i+1], so once it falls at
		// or below pos nothing further left can contain it.
		if t.maxEnd[i] <= pos {
			break
		}
		if t.intervals[i].end > pos {
			result = append(result, t.intervals[i].ann)
		}
	}

	return result
}
