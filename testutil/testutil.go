package testutil

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/hupe1980/recgo/dataset"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Rand returns an independent generator seeded from this one, for APIs
// that take a *rand.Rand.
func (r *RNG) Rand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewPCG(r.rand.Uint64(), r.rand.Uint64()))
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, s=1.5 gives a heavy head.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// Interactions builds a user/item dataset with two sparse-binary groups.
// Entity i is interned under the key strconv.Itoa(i) in order of first
// appearance. labels may be nil, giving every record label 1.
func Interactions(users, items []int, labels []float64) (*dataset.Dataset, error) {
	if len(users) != len(items) || (labels != nil && len(labels) != len(users)) {
		return nil, fmt.Errorf("testutil: %d users, %d items, %d labels", len(users), len(items), len(labels))
	}
	b := dataset.NewSchemaBuilder()
	ug := b.Group(b.AddGroup("user", dataset.SparseBinary))
	ig := b.Group(b.AddGroup("item", dataset.SparseBinary))

	records := make([]*dataset.Record, len(users))
	for n := range users {
		u, err := ug.Intern(strconv.Itoa(users[n]))
		if err != nil {
			return nil, err
		}
		i, err := ig.Intern(strconv.Itoa(items[n]))
		if err != nil {
			return nil, err
		}
		label := 1.0
		if labels != nil {
			label = labels[n]
		}
		records[n] = dataset.NewRecord(label, dataset.BinaryValue(u), dataset.BinaryValue(i))
	}
	return dataset.New(b.Finalize(), records)
}

// RandomInteractions gives each of numUsers users perUser distinct items
// drawn Zipf-distributed from numItems, with labels in 1..5.
func (r *RNG) RandomInteractions(numUsers, numItems, perUser int, skew float64) (*dataset.Dataset, error) {
	perUser = min(perUser, numItems)
	var users, items []int
	var labels []float64

	r.mu.Lock()
	for u := range numUsers {
		seen := make(map[int]bool, perUser)
		for len(seen) < perUser {
			i := r.zipfLocked(numItems, skew)
			if seen[i] {
				i = r.rand.IntN(numItems)
				if seen[i] {
					continue
				}
			}
			seen[i] = true
			users = append(users, u)
			items = append(items, i)
			labels = append(labels, float64(1+r.rand.IntN(5)))
		}
	}
	r.mu.Unlock()

	return Interactions(users, items, labels)
}

// ClusteredInteractions splits users and items into clusters; users only
// interact with items of their own cluster. Models that learn anything
// should rank same-cluster items first.
func (r *RNG) ClusteredInteractions(numUsers, numItems, clusters, perUser int) (*dataset.Dataset, error) {
	itemsPerCluster := numItems / clusters
	perUser = min(perUser, itemsPerCluster)
	var users, items []int

	r.mu.Lock()
	for u := range numUsers {
		c := u % clusters
		for _, k := range r.rand.Perm(itemsPerCluster)[:perUser] {
			users = append(users, u)
			items = append(items, c*itemsPerCluster+k)
		}
	}
	r.mu.Unlock()

	return Interactions(users, items, nil)
}

// ComputeRecall returns the fraction of relevant ids found in recommended.
func ComputeRecall(relevant, recommended []int) float64 {
	if len(relevant) == 0 {
		if len(recommended) == 0 {
			return 1.0
		}
		return 0.0
	}
	want := make(map[int]struct{}, len(relevant))
	for _, id := range relevant {
		want[id] = struct{}{}
	}
	hits := 0
	for _, id := range recommended {
		if _, ok := want[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}
