package hooks

// ImportanceGate decides at catalog build time which hooks go live. Before
// the data store is installed only Essential hooks participate.
type ImportanceGate struct {
	Installed bool
}

// Allows reports whether hooks of the given importance participate
func (g ImportanceGate) Allows(importance Importance) bool {
	if g.Installed {
		return true
	}
	return importance == Essential
}

// String returns a short description of the gate
func (g ImportanceGate) String() string {
	if g.Installed {
		return "installed"
	}
	return "not-installed"
}
