package enum

type ConnectionStateEnum string

const (
	CONNECTING ConnectionStateEnum = "CONNECTING"
	OPEN       ConnectionStateEnum = "OPEN"
	CLOSED     ConnectionStateEnum = "CLOSED"
)

func (e ConnectionStateEnum) ToString() string {
	return string(e)
}

func (e ConnectionStateEnum) IsValid() bool {
	switch e {
	case CONNECTING, OPEN, CLOSED:
		return true
	}
	return false
}
