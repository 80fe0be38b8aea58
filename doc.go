// Package recgo trains and evaluates collaborative-filtering models.
//
// A typical run loads interaction data, splits it, trains a model with
// periodic evaluation and stores the result:
//
//	loader, _ := dataset.NewLoader(dataset.RecsysColumns())
//	sets, _ := loader.LoadFiles("ratings.tsv")
//	train, test, _ := sets[0].SplitByGroup(0, 0.2, rand.New(rand.NewPCG(1, 1)))
//
//	m, _ := model.New(model.MethodBPR, model.DefaultConfigFor(model.MethodBPR))
//	report, _ := recgo.Train(ctx, m, train, test,
//	    recgo.WithEvaluations(evaluation.KindTopN),
//	    recgo.WithMaxIterations(20),
//	    recgo.WithSGD(0.05),
//	)
//	_, _ = recgo.SaveModel(ctx, store, "models/bpr", report.Model)
//
// # Building Blocks
//
//   - dataset: schemas, records, loaders, splits and inverted indices
//   - model: Popularity, PMF, BPR, WARP, ALS, ItemCF, UserCF and FM
//   - solver: the training loop and its progress table
//   - evaluation: RMSE, MAE, Top-N and ranking metrics
//   - persistence and blobstore: snapshot envelopes and storage backends
//
// # Observability
//
// Train and Evaluate log through a [Logger] and report iterations,
// evaluations, splits and snapshots to a [MetricsCollector].
package recgo
