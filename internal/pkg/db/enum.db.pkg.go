package database

/*----------- DirectionEnum -----------*/

type DirectionEnum string

const (
	ASC  DirectionEnum = "asc"
	DESC DirectionEnum = "desc"
)

func (e DirectionEnum) ToString() string {
	return string(e)
}

func (e DirectionEnum) IsValid() bool {
	switch e {
	case ASC, DESC:
		return true
	}
	return false
}

/*----------- DriverEnum -----------*/

type DriverEnum string

const (
	POSTGRES DriverEnum = "postgres"
	MYSQL    DriverEnum = "mysql"
	SQLITE   DriverEnum = "sqlite"
)

func (e DriverEnum) ToString() string {
	return string(e)
}

func (e DriverEnum) IsValid() bool {
	switch e {
	case POSTGRES, MYSQL, SQLITE:
		return true
	}
	return false
}
