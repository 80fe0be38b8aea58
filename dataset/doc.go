// Package dataset provides the feature-group record model used for training
// and evaluating recommenders.
//
// # Feature groups
//
// A Schema is an ordered list of feature groups. Each group is Dense (fixed
// length value array), SparseValued (ids with values) or SparseBinary (ids
// only). Every group owns a contiguous range of one flat coordinate space:
// local id i of group g lives at Offset(g)+i.
//
// Schemas are built mutably with a SchemaBuilder while loading and frozen by
// Finalize. Datasets only accept a finalized *Schema; splits and shuffles
// share it with their parent.
//
// # Indices
//
// InstancesByValue, ValueLists, ValueSets and PairLabels group records by the
// local id of one group. They require exactly one entry of that group per
// record, which holds for "user item rating" data.
//
// # Loading
//
//	loader, _ := dataset.NewLoader(dataset.RecsysColumns(), dataset.WithDelimiter("\t"))
//	sets, err := loader.LoadFiles("train.tsv", "test.tsv")
//
// Both datasets share one schema, so ids agree across them.
package dataset
