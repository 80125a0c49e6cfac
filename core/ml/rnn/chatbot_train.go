package rnn

import (
	"context"
	"errors"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TrainOptions controls Fit.
type TrainOptions struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
	Workers      int
}

// DefaultTrainOptions mirrors the production training run.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 5, BatchSize: 128, LearningRate: 0.001, Seed: 42}
}

// EpochStats reports one finished epoch.
type EpochStats struct {
	Epoch         int     `json:"epoch"`
	Loss          float64 `json:"loss"`
	Accuracy      float64 `json:"accuracy"`
	ValLoss       float64 `json:"val_loss"`
	ValAccuracy   float64 `json:"val_accuracy"`
	HasValidation bool    `json:"has_validation"`
}

// Dataset is a set of padded id sequences with class ids.
type Dataset struct {
	X [][]int
	Y []int
}

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d.X) }

var ErrEmptyDataset = errors.New("rnn: empty training set")

// Fit trains the network with mini-batch Adam, evaluating on val after each
// epoch when it is non-empty. onEpoch may be nil.
func (n *Network) Fit(ctx context.Context, train, val Dataset, opts TrainOptions, onEpoch func(EpochStats)) ([]EpochStats, error) {
	if train.Len() == 0 || train.Len() != len(train.Y) {
		return nil, ErrEmptyDataset
	}
	if opts.Epochs <= 0 {
		opts.Epochs = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	opt := NewAdam(opts.LearningRate)
	shuffler := rand.New(rand.NewSource(opts.Seed))
	workerGrads := make([]*grads, workers)
	for w := range workerGrads {
		workerGrads[w] = newGrads(n.Config.EmbedDim)
	}

	order := make([]int, train.Len())
	for i := range order {
		order[i] = i
	}

	history := make([]EpochStats, 0, opts.Epochs)
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		shuffler.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var lossSum float64
		var hits int
		for start := 0; start < len(order); start += opts.BatchSize {
			if err := ctx.Err(); err != nil {
				return history, err
			}
			end := min(start+opts.BatchSize, len(order))
			batch := order[start:end]
			scale := 1.0 / float64(len(batch))

			losses := make([]float64, workers)
			correct := make([]int, workers)
			g, _ := errgroup.WithContext(ctx)
			for w := 0; w < workers; w++ {
				w := w
				g.Go(func() error {
					acc := workerGrads[w]
					acc.reset()
					for k := w; k < len(batch); k += workers {
						idx := batch[k]
						rng := rand.New(rand.NewSource(opts.Seed ^ int64(epoch)<<32 ^ int64(idx)))
						tr := n.forward(train.X[idx], rng)
						losses[w] += crossEntropy(tr.probs, train.Y[idx])
						if argmax(tr.probs) == train.Y[idx] {
							correct[w]++
						}
						n.backward(tr, train.Y[idx], scale, acc)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return history, err
			}

			total := workerGrads[0]
			for w := 1; w < workers; w++ {
				total.merge(workerGrads[w])
			}
			opt.apply(n, total)
			for w := 0; w < workers; w++ {
				lossSum += losses[w]
				hits += correct[w]
			}
		}

		stats := EpochStats{
			Epoch:    epoch,
			Loss:     lossSum / float64(train.Len()),
			Accuracy: float64(hits) / float64(train.Len()),
		}
		if val.Len() > 0 {
			stats.ValLoss, stats.ValAccuracy = n.Evaluate(val)
			stats.HasValidation = true
		}
		history = append(history, stats)
		if onEpoch != nil {
			onEpoch(stats)
		}
	}
	return history, nil
}

// Evaluate returns mean cross-entropy and accuracy on d without dropout.
func (n *Network) Evaluate(d Dataset) (loss, accuracy float64) {
	if d.Len() == 0 {
		return 0, 0
	}
	hits := 0
	for i, x := range d.X {
		probs := n.Predict(x)
		loss += crossEntropy(probs, d.Y[i])
		if argmax(probs) == d.Y[i] {
			hits++
		}
	}
	return loss / float64(d.Len()), float64(hits) / float64(d.Len())
}

func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}

// Split shuffles d with seed and holds out testFraction of it.
func Split(d Dataset, testFraction float64, seed int64) (train, test Dataset) {
	n := d.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testFraction)
	if testFraction > 0 && nTest == 0 && n > 1 {
		nTest = 1
	}
	for i, p := range perm {
		if i < nTest {
			test.X = append(test.X, d.X[p])
			test.Y = append(test.Y, d.Y[p])
			continue
		}
		train.X = append(train.X, d.X[p])
		train.Y = append(train.Y, d.Y[p])
	}
	return train, test
}
