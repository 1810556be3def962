package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrStateConflict = errors.New("transición no permitida en el estado actual")

	// ErrOverpayment: el pago dejaría paid_amount por encima del total de la factura.
	ErrOverpayment = errors.New("el pago excede el saldo pendiente de la factura")

	// ErrConfigurationMissing: no existe configuración fiscal de la empresa (datos del emisor).
	ErrConfigurationMissing = errors.New("configuración fiscal de la empresa no encontrada")

	// ErrSerialization: datos incompletos o malformados al construir el SAF-T.
	ErrSerialization = errors.New("error de serialización SAF-T")
)
