package port

type ChargerCommander interface {
	Apply(phaseNew int, currentNew int) (bool, error)
}
