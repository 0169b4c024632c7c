package scheduler

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

// maxSwapPasses bounds the local search that polishes the greedy seed.
const maxSwapPasses = 50

// randomInitGenome shuffles the whole pool.
func (s *Scheduler) randomInitGenome() *Genome {
	return &Genome{
		perm: s.rng.Perm(s.poolSize),
	}
}

// greedyGenome takes the highest scoring (slot, member) pairs first, fills the
// idle tail in pool order and then polishes the result with pairwise swaps.
// It does not touch the random source.
func (s *Scheduler) greedyGenome() *Genome {
	type candidate struct {
		slot, member int
		score        float64
	}

	candidates := make([]candidate, 0, s.slots*s.poolSize)
	for slot := 0; slot < s.slots; slot++ {
		for member := 0; member < s.poolSize; member++ {
			candidates = append(candidates, candidate{slot: slot, member: member, score: s.slotScore(slot, member)})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})

	perm := make([]int, s.poolSize)
	slotTaken := make([]bool, s.slots)
	memberTaken := make([]bool, s.poolSize)
	for _, c := range candidates {
		if slotTaken[c.slot] || memberTaken[c.member] {
			continue
		}
		perm[c.slot] = c.member
		slotTaken[c.slot] = true
		memberTaken[c.member] = true
	}

	next := s.slots
	for member, taken := range memberTaken {
		if !taken {
			perm[next] = member
			next++
		}
	}

	g := &Genome{perm: perm}
	s.improveBySwaps(g)
	s.calcFitness(g)
	return g
}

// improveBySwaps applies every swap that raises the total until none does.
// One side of each swap is an assigned slot, the other may be idle.
func (s *Scheduler) improveBySwaps(g *Genome) {
	for pass := 0; pass < maxSwapPasses; pass++ {
		improved := false
		for i := 0; i < s.slots; i++ {
			for j := i + 1; j < s.poolSize; j++ {
				before := s.slotScore(i, g.perm[i])
				after := s.slotScore(i, g.perm[j])
				if j < s.slots {
					before += s.slotScore(j, g.perm[j])
					after += s.slotScore(j, g.perm[i])
				}
				if after > before+fitnessEpsilon {
					g.perm[i], g.perm[j] = g.perm[j], g.perm[i]
					improved = true
				}
			}
		}
		if !improved {
			return
		}
	}
}

// slotScore is the score of putting pool member into slot.
func (s *Scheduler) slotScore(slot, member int) float64 {
	if s.workersArePool {
		return s.index.Score(s.workers[member].PersonID, s.stations[slot].ID)
	}
	return s.index.Score(s.workers[slot].PersonID, s.stations[member].ID)
}

// pair resolves slot i of a genome to the (person, station) it assigns.
func (s *Scheduler) pair(g *Genome, slot int) (personID string, stationID string) {
	if s.workersArePool {
		return s.workers[g.perm[slot]].PersonID, s.stations[slot].ID
	}
	return s.workers[slot].PersonID, s.stations[g.perm[slot]].ID
}

// calcFitness sums the qualification score of every assigned slot.
func (s *Scheduler) calcFitness(g *Genome) {
	fitness := 0.0
	for slot := 0; slot < s.slots; slot++ {
		fitness += s.slotScore(slot, g.perm[slot])
	}
	g.fitness = fitness
}

// evaluate computes fitness for every genome. Each goroutine owns a disjoint
// chunk of the slice and the index is read-only, so no locking is needed.
func (s *Scheduler) evaluate(pop []*Genome) error {
	if len(pop) == 0 {
		return nil
	}

	chunk := (len(pop) + s.parallelism - 1) / s.parallelism

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for start := 0; start < len(pop); start += chunk {
		end := min(start+chunk, len(pop))
		part := pop[start:end]
		g.Go(func() error {
			for _, genome := range part {
				s.calcFitness(genome)
			}
			return nil
		})
	}
	return g.Wait()
}

// selectByTournament samples TournamentSize genomes with replacement and
// returns the fittest. Ties go to the genome drawn first.
func (s *Scheduler) selectByTournament(pop []*Genome) *Genome {
	best := pop[s.rng.Intn(len(pop))]
	for i := 1; i < s.parameters.TournamentSize; i++ {
		contender := pop[s.rng.Intn(len(pop))]
		if contender.fitness > best.fitness {
			best = contender
		}
	}
	return best
}

// orderCrossover (OX) copies a random segment of p1 into the child and fills
// the remaining positions with the missing genes in the order they appear in
// p2, starting after the segment. The child is always a permutation.
func (s *Scheduler) orderCrossover(p1, p2 *Genome) *Genome {
	n := len(p1.perm)
	child := &Genome{perm: make([]int, n)}

	a := s.rng.Intn(n)
	b := s.rng.Intn(n)
	if a > b {
		a, b = b, a
	}

	used := make([]bool, n)
	for i := a; i <= b; i++ {
		child.perm[i] = p1.perm[i]
		used[p1.perm[i]] = true
	}

	write := (b + 1) % n
	for k := 0; k < n; k++ {
		gene := p2.perm[(b+1+k)%n]
		if used[gene] {
			continue
		}
		child.perm[write] = gene
		used[gene] = true
		write = (write + 1) % n
	}

	return child
}

// mutate swaps two positions with probability MutationRate. One position is
// always an assigned slot so idle pool members can be swapped in.
func (s *Scheduler) mutate(g *Genome) {
	if s.poolSize < 2 || s.rng.Float64() >= s.parameters.MutationRate {
		return
	}

	i := s.rng.Intn(s.slots)
	j := s.rng.Intn(s.poolSize - 1)
	if j >= i {
		j++
	}
	g.perm[i], g.perm[j] = g.perm[j], g.perm[i]
}
