package dataset

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/samber/lo"
)

// Shuffle returns a new Dataset with the records in random order.
func (d *Dataset) Shuffle(rng *rand.Rand) *Dataset {
	records := slices.Clone(d.records)
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
	return d.derive(records)
}

// RandomSplit shuffles positions and routes floor((1-ratio)*n) records to
// train and the rest to test.
func (d *Dataset) RandomSplit(ratio float64, rng *rand.Rand) (train, test *Dataset, err error) {
	if ratio < 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("%w: %g", ErrInvalidRatio, ratio)
	}
	n := len(d.records)
	numTrain := int((1 - ratio) * float64(n))
	perm := rng.Perm(n)
	trainRecords := make([]*Record, numTrain)
	testRecords := make([]*Record, n-numTrain)
	for i, pos := range perm {
		if i < numTrain {
			trainRecords[i] = d.records[pos]
		} else {
			testRecords[i-numTrain] = d.records[pos]
		}
	}
	return d.derive(trainRecords), d.derive(testRecords), nil
}

// SplitByGroup stratifies by group g: for every local id of g the records
// carrying it are shuffled and floor(count*ratio) of them go to test.
// Keys are visited in ascending order so a seeded rng gives a stable split.
// Both outputs are shuffled before returning.
func (d *Dataset) SplitByGroup(g int, ratio float64, rng *rand.Rand) (train, test *Dataset, err error) {
	if ratio < 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("%w: %g", ErrInvalidRatio, ratio)
	}
	byValue, err := d.InstancesByValue(g)
	if err != nil {
		return nil, nil, err
	}

	n := len(d.records)
	estTest := int(ratio * float64(n))
	trainRecords := make([]*Record, 0, n-estTest+n/100)
	testRecords := make([]*Record, 0, estTest+n/100)
	routed := bitset.New(uint(n))

	keys := lo.Keys(byValue)
	slices.Sort(keys)
	for _, key := range keys {
		positions := byValue[key]
		rng.Shuffle(len(positions), func(i, j int) {
			positions[i], positions[j] = positions[j], positions[i]
		})
		numTest := int(float64(len(positions)) * ratio)
		for i, pos := range positions {
			if routed.Test(uint(pos)) {
				return nil, nil, fmt.Errorf("record %d routed twice", pos)
			}
			routed.Set(uint(pos))
			if i < numTest {
				testRecords = append(testRecords, d.records[pos])
			} else {
				trainRecords = append(trainRecords, d.records[pos])
			}
		}
	}
	if int(routed.Count()) != n {
		return nil, nil, fmt.Errorf("split routed %d of %d records", routed.Count(), n)
	}

	train = d.derive(trainRecords).Shuffle(rng)
	test = d.derive(testRecords).Shuffle(rng)
	return train, test, nil
}
