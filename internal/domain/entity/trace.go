package entity

// Trace es una unidad numerada individualmente de un lote trazable.
type Trace struct {
	ID            string
	LotID         string
	PackageID     string
	PackageNumber int
	Number        int
	Active        bool
}
