package entity

// DocumentSequence contador de numeración por (propietario, tipo, serie, año).
type DocumentSequence struct {
	OwnerID      string
	DocumentType DocumentType
	Series       string
	Year         int
	LastValue    int64
}
