package dataset

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

type keyPos struct {
	key int
	pos int
}

// InstancesByValue maps each local id of group g to the ascending positions
// of the records carrying it. Every record must hold exactly one entry of g.
func (d *Dataset) InstancesByValue(g int) (map[int][]int, error) {
	pairs, err := d.sortedPairs(g)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]int)
	for begin := 0; begin < len(pairs); {
		end := begin + 1
		for end < len(pairs) && pairs[end].key == pairs[begin].key {
			end++
		}
		positions := make([]int, end-begin)
		for i := begin; i < end; i++ {
			positions[i-begin] = pairs[i].pos
		}
		out[pairs[begin].key] = positions
		begin = end
	}
	return out, nil
}

// ValueLists maps each local id of group a to the sorted first ids of group b
// over the records carrying it.
func (d *Dataset) ValueLists(a, b int) (map[int][]int, error) {
	byValue, err := d.InstancesByValue(a)
	if err != nil {
		return nil, err
	}
	if err := d.schema.checkGroup(b); err != nil {
		return nil, err
	}
	for key, positions := range byValue {
		ids := make([]int, len(positions))
		for i, pos := range positions {
			id, err := d.firstID(b, pos)
			if err != nil {
				return nil, err
			}
			ids[i] = id
		}
		slices.Sort(ids)
		byValue[key] = ids
	}
	return byValue, nil
}

// ValueSets maps each local id of group a to the set of first ids of group b
// over the records carrying it.
func (d *Dataset) ValueSets(a, b int) (map[int]*roaring.Bitmap, error) {
	byValue, err := d.InstancesByValue(a)
	if err != nil {
		return nil, err
	}
	if err := d.schema.checkGroup(b); err != nil {
		return nil, err
	}
	out := make(map[int]*roaring.Bitmap, len(byValue))
	for key, positions := range byValue {
		set := roaring.New()
		for _, pos := range positions {
			id, err := d.firstID(b, pos)
			if err != nil {
				return nil, err
			}
			set.Add(uint32(id))
		}
		out[key] = set
	}
	return out, nil
}

// PairLabels maps each local id of group a to the labels of its co-occurring
// group b ids. Later records overwrite earlier ones for duplicate pairs.
func (d *Dataset) PairLabels(a, b int) (map[int]map[int]float64, error) {
	byValue, err := d.InstancesByValue(a)
	if err != nil {
		return nil, err
	}
	if err := d.schema.checkGroup(b); err != nil {
		return nil, err
	}
	out := make(map[int]map[int]float64, len(byValue))
	for key, positions := range byValue {
		labels := make(map[int]float64, len(positions))
		for _, pos := range positions {
			id, err := d.firstID(b, pos)
			if err != nil {
				return nil, err
			}
			labels[id] = d.records[pos].Label()
		}
		out[key] = labels
	}
	return out, nil
}

// sortedPairs collects (global index, position) for group g, sorted, and
// translates the keys back to local ids.
func (d *Dataset) sortedPairs(g int) ([]keyPos, error) {
	if err := d.schema.checkGroup(g); err != nil {
		return nil, err
	}
	offset := d.schema.Offset(g)
	limit := offset + d.schema.GroupSize(g)
	pairs := make([]keyPos, 0, len(d.records))
	for pos, r := range d.records {
		v := r.Group(g)
		if v.Len() != 1 {
			return nil, &CardinalityError{Group: g, Position: pos, Count: v.Len()}
		}
		idx := offset + v.ID(0)
		if idx < offset || idx >= limit {
			return nil, fmt.Errorf("%w: group %d index %d outside [%d, %d)", ErrIDOutOfRange, g, idx, offset, limit)
		}
		pairs = append(pairs, keyPos{key: idx, pos: pos})
	}
	slices.SortFunc(pairs, func(x, y keyPos) int {
		if c := cmp.Compare(x.key, y.key); c != 0 {
			return c
		}
		return cmp.Compare(x.pos, y.pos)
	})
	for i := range pairs {
		pairs[i].key -= offset
	}
	return pairs, nil
}

func (d *Dataset) firstID(g, pos int) (int, error) {
	id, ok := d.records[pos].FirstID(g)
	if !ok {
		return 0, &CardinalityError{Group: g, Position: pos, Count: 0}
	}
	return id, nil
}
