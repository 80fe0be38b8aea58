// Package model implements the recommendation models driven by the solver.
//
// Every model consumes a [dataset.Dataset] whose records carry one user id
// and one item id (Config.UserGroup and Config.ItemGroup):
//
//   - Popularity ranks items by frequency.
//   - PMF fits labels pointwise with biased matrix factorization.
//   - BPR and WARP learn pairwise rankings against sampled negatives.
//   - ALS alternates closed-form solves of the user and item factors.
//   - ItemCF and UserCF score by co-occurrence neighborhoods.
//   - FM is a factorization machine over all feature groups.
//   - CDAE reconstructs each user's corrupted item set through a hidden
//     layer built from item and user weights.
//
// Negative sampling draws uniformly from the items a user has not rated
// and gives up after Config.MaxSampleAttempts draws.
//
// Trained Popularity, PMF, BPR, WARP and ALS models can be captured with
// [Export] and rebuilt with [Restore].
package model
