package file

type lockType int

const (
	lockShared lockType = iota
	lockExclusive
)

func (l lockType) String() string {
	if l == lockExclusive {
		return "exclusive"
	}
	return "shared"
}
