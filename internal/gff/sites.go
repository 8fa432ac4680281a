package gff

import (
	"runtime"
	"sync"

	"github.com/mgx-tools/pnps/internal/codon"
)

// ComputeExpectedSites computes and attaches expected synonymous and
// nonsynonymous site counts for every annotation in the store that does
// not already carry them. Each annotation is independent, so the work
// is spread over a pool of workers. If workers is 0, runtime.NumCPU()
// is used. Returns the number of annotations skipped because their
// reference sequence is missing.
func ComputeExpectedSites(store *Store, seqs map[string]string, workers int) int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan *Annotation, 2*workers)
	var missing int
	var mu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for a := range items {
				seq, ok := seqs[a.SeqID]
				if !ok {
					mu.Lock()
					missing++
					mu.Unlock()
					continue
				}
				syn, nonsyn := codon.SequenceSites(a.CodingSequence(seq))
				a.SetExpSites(syn, nonsyn)
			}
		}()
	}

	for _, a := range store.Annotations() {
		if a.HasExpSites() {
			continue
		}
		items <- a
	}
	close(items)
	wg.Wait()

	return missing
}
