package flowshop

import "math/rand"

// randomInstance draws integer processing times in [minTime, maxTime].
func randomInstance(jobs, machines, minTime, maxTime int, rng *rand.Rand) *Instance {
	pt := make([]float64, jobs*machines)
	span := maxTime - minTime + 1
	for i := range pt {
		v := minTime
		if span > 1 {
			v += rng.Intn(span)
		}
		pt[i] = float64(v)
	}
	inst, err := NewInstance(jobs, machines, pt)
	if err != nil {
		panic(err)
	}
	return inst
}
