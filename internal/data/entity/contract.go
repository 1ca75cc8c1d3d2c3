package entity

type ContractTemplate struct {
	Base
	Code    string `db:"code"`
	Name    string `db:"name"`
	Version string `db:"version"`
	Body    string `db:"body"`
	Active  bool   `db:"active"`
}
