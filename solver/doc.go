// Package solver runs the training loop.
//
// A Solver resets its model on the training set, then alternates training
// iterations with evaluation on a validation set, writing one progress row
// per evaluated iteration:
//
//	Iters|    Time|Train Loss|    RMSE|
//	    0|   1e-06|         0|  3.3166|
//	    1|  0.0021|    412.83|  1.2043|
//
// [New] calls the model's TrainOneIteration. [NewSGD] instead feeds every
// training record to UpdateOneStep with an optionally decaying learning
// rate. Training stops after the configured number of iterations or when
// the context is canceled.
package solver
