package combat

import "math/rand/v2"

const golden = 0x9e3779b97f4a7c15

// splitmix64 is the standard 64-bit finaliser used to spread seeds.
func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// StepSeed derives the seed of one simulation step from the world seed.
func StepSeed(worldSeed uint64, step Step) uint64 {
	return splitmix64(worldSeed ^ splitmix64(uint64(step)))
}

// StreamFor returns a random stream keyed by (step seed, key). The key is a
// stable id or an event index, never anything derived from iteration order,
// so gameplay draws do not shift when a cosmetic consumer is added or removed.
func StreamFor(stepSeed, key uint64) *rand.Rand {
	return rand.New(rand.NewPCG(stepSeed, splitmix64(key)))
}
