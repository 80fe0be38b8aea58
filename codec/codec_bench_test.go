package codec

import (
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/recgo/model"
)

func benchSnapshot() *model.Snapshot {
	rng := rand.New(rand.NewPCG(1, 2))
	return &model.Snapshot{
		Method:   model.MethodPMF,
		Config:   model.DefaultConfig(),
		NumUsers: 1000,
		NumItems: 500,
		Matrices: map[string]*model.Matrix{
			"user": model.RandomMatrix(rng, 1000, 10, 0.01),
			"item": model.RandomMatrix(rng, 500, 10, 0.01),
		},
	}
}

func BenchmarkCodec_Marshal_Snapshot(b *testing.B) {
	s := benchSnapshot()
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(MustMarshal(c, s))))
			for b.Loop() {
				if _, err := c.Marshal(s); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCodec_Unmarshal_Snapshot(b *testing.B) {
	data := MustMarshal(JSON{}, benchSnapshot())
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				var s model.Snapshot
				if err := c.Unmarshal(data, &s); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
