package view

// Machine holds the current view. Every transition is allowed from every state and none depends
// on the previous one; there is no history. Machine is not safe for concurrent use, the owning
// controller serializes access.
type Machine struct {
	current View
}

// NewMachine returns a machine in the list view.
func NewMachine() *Machine {
	return &Machine{current: List()}
}

// Current returns the active view.
func (m *Machine) Current() View { return m.current }

// GoToList switches to the list view.
func (m *Machine) GoToList() { m.current = List() }

// GoToCreate switches to the create view.
func (m *Machine) GoToCreate() { m.current = Create() }

// GoToDetail switches to the detail view of seriesID.
func (m *Machine) GoToDetail(seriesID string) { m.current = Detail(seriesID) }

// GoToProduction switches to the production view of episodeID.
func (m *Machine) GoToProduction(episodeID string) { m.current = Production(episodeID) }
