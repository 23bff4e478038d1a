package orchestrator

// pick returns the pool slot with the most domain votes. Each detected
// domain gives one vote to every specialist that handles it. Ties go to the
// worker matching the earliest detected domain, then to registration order.
// With no votes the generalist is returned, which may be nil.
func (o *Orchestrator) pick(domains []string) *slot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	best, bestVotes, bestFirst := -1, 0, 0
	for i := range o.pool {
		votes, first := 0, -1
		for di, d := range domains {
			if o.pool[i].profile.Handles(d) {
				votes++
				if first < 0 {
					first = di
				}
			}
		}
		if votes == 0 {
			continue
		}
		if best < 0 || votes > bestVotes || (votes == bestVotes && first < bestFirst) {
			best, bestVotes, bestFirst = i, votes, first
		}
	}
	if best >= 0 {
		s := o.pool[best]
		return &s
	}
	return o.generalistSlot()
}

// forDomain returns the first registered worker handling domain, else the
// generalist.
func (o *Orchestrator) forDomain(domain string) *slot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for i := range o.pool {
		if o.pool[i].profile.Handles(domain) {
			s := o.pool[i]
			return &s
		}
	}
	return o.generalistSlot()
}

// generalistSlot must be called with o.mu held.
func (o *Orchestrator) generalistSlot() *slot {
	if o.generalist == nil {
		return nil
	}
	s := *o.generalist
	return &s
}
