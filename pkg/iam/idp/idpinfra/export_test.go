package idpinfra

// CountHashCompares wraps the provider's hash comparison and returns a
// function reporting how many comparisons ran.
func (p *Provider) CountHashCompares() func() int {
	n := 0
	next := p.compareHash
	p.compareHash = func(hash, password []byte) error {
		n++
		return next(hash, password)
	}
	return func() int { return n }
}
