package dto

// SAFTExportQuery parámetros de GET /billing/saft-export.
type SAFTExportQuery struct {
	StartDate string `query:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `query:"end_date" validate:"required,datetime=2006-01-02"`
	UserID    string `query:"user_id"`
	Format    string `query:"format" validate:"omitempty,oneof=xml zip"`
}

// SAFTExportResult fichero generado.
type SAFTExportResult struct {
	FileName string
	Content  []byte
	Digest   string // SHA-256 hex del XML canónico (C14N)
	Entries  int
}
