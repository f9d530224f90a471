package world

// Actor is a citizen the host exposes to the spawner: the victim, the
// murderer, the player and anyone they are related to.
type Actor struct {
	ID        int
	Name      string
	Home      *Address
	Workplace *Address
	Doctor    *Actor
	Landlord  *Actor
	Employer  *Actor
}

// HasHome reports whether the actor lives at a known address.
func (a *Actor) HasHome() bool {
	return a != nil && a.Home != nil
}

// HasWorkplace reports whether the actor works at a known address.
func (a *Actor) HasWorkplace() bool {
	return a != nil && a.Workplace != nil
}
