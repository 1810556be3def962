package dto

// PageRequest paginación de listados (query ?limit=&offset=).
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage limit 20 cuando no se informa; offset negativo cuenta como 0.
// Un limit mayor que 100 lo rechaza la validación.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página; Total es el número de registros del propietario.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable (VALIDATION, NOT_FOUND, ...); Message es para personas.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
