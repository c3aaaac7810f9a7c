package sequence

// Sweep yields cell indexes moving back and forth across n cells:
// 0,1,…,n-1,n-2,…,1,0,1,… The end cells are visited once per pass.
type Sweep struct {
	n   int
	pos int
	dir int
}

// NewSweep starts a sweep at cell 0. n < 1 is treated as 1.
func NewSweep(n int) *Sweep {
	if n < 1 {
		n = 1
	}
	return &Sweep{n: n, pos: -1, dir: 1}
}

// Next advances and returns the next index.
func (s *Sweep) Next() int {
	if s.n == 1 {
		s.pos = 0
		return 0
	}
	next := s.pos + s.dir
	if next >= s.n || next < 0 {
		s.dir = -s.dir
		next = s.pos + s.dir
	}
	s.pos = next
	return s.pos
}

// Reset rewinds to before cell 0.
func (s *Sweep) Reset() {
	s.pos = -1
	s.dir = 1
}

// Cycle returns one full period of the sweep, [0..n-1] then [n-2..1].
func Cycle(n int) []int {
	s := NewSweep(n)
	period := 2*s.n - 2
	if period < 1 {
		period = 1
	}
	out := make([]int, period)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}
