package search

// RNG is a deterministic pseudo-random generator: splitmix64 seeds a
// xorshift128+ stream. Given the same seed it produces byte-for-byte the
// same sequence across processes and platforms (spec §8 scenario 3 requires
// two Nodes with identical seeds to trace identical first steps), which
// rules out math/rand's global-generator-oriented API and go-toolbox's
// pkg/random for this one purpose.
type RNG struct {
	s0, s1 uint64
}

// NewRNG seeds a stream from a single 64-bit value via two rounds of
// splitmix64, the standard way to turn one seed into a full xorshift128+
// state without weak initial correlations.
func NewRNG(seed uint64) *RNG {
	sm := seed
	next := func() uint64 {
		sm += 0x9E3779B97F4A7C15
		z := sm
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	r := &RNG{s0: next(), s1: next()}
	if r.s0 == 0 && r.s1 == 0 {
		r.s1 = 1
	}
	return r
}

// Uint64 returns the next raw 64-bit value from the stream.
func (r *RNG) Uint64() uint64 {
	x := r.s0
	y := r.s1
	r.s0 = y
	x ^= x << 23
	x ^= x >> 17
	x ^= y ^ (y >> 26)
	r.s1 = x
	return x + y
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). Panics if n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("search: Intn called with n <= 0")
	}
	return int(r.Uint64() % uint64(n))
}

// Shuffle permutes n elements in place through swap, using the Fisher-Yates
// algorithm driven by this stream.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}
