package particles

// ring is a fixed-capacity FIFO of particles. Pushing onto a full ring
// overwrites the oldest element.
type ring struct {
	buf  []Particle
	head int
	n    int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]Particle, capacity)}
}

func (r *ring) count() int { return r.n }

func (r *ring) capacity() int { return len(r.buf) }

func (r *ring) idx(i int) int {
	j := r.head + i
	if j >= len(r.buf) {
		j -= len(r.buf)
	}
	return j
}

// at returns the i-th oldest particle.
func (r *ring) at(i int) *Particle {
	return &r.buf[r.idx(i)]
}

func (r *ring) push(p Particle) {
	if r.n < len(r.buf) {
		r.buf[r.idx(r.n)] = p
		r.n++
		return
	}
	r.buf[r.head] = p
	r.head = r.idx(1)
}

// retain keeps the particles for which keep returns true, preserving order.
// keep may mutate the particle it is given.
func (r *ring) retain(keep func(*Particle) bool) {
	w := 0
	for i := 0; i < r.n; i++ {
		p := r.at(i)
		if !keep(p) {
			continue
		}
		if w != i {
			*r.at(w) = *p
		}
		w++
	}
	for i := w; i < r.n; i++ {
		*r.at(i) = Particle{}
	}
	r.n = w
}

func (r *ring) appendTo(dst []Particle) []Particle {
	for i := 0; i < r.n; i++ {
		dst = append(dst, *r.at(i))
	}
	return dst
}

func (r *ring) clear() {
	for i := range r.buf {
		r.buf[i] = Particle{}
	}
	r.head = 0
	r.n = 0
}
