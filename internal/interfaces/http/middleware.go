package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"

	idempotencyTTL = 24 * time.Hour
)

// RequestLogger log de acceso con zerolog. Los 5xx incluyen el error original.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		began := time.Now()
		reqID := c.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(HeaderRequestID, reqID)

		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			if fe, ok := chainErr.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
			if err, ok := c.Locals(LocalError).(error); ok {
				ev = ev.Err(err)
			} else if chainErr != nil {
				ev = ev.Err(chainErr)
			}
		}
		ev.Str("request_id", reqID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(began)).
			Str("owner_id", GetOwnerID(c)).
			Msg("http")
		return chainErr
	}
}

// HTTPObserver lo implementa *metrics.Registry.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, duration time.Duration)
}

// Metrics registra latencia y código por patrón de ruta.
func Metrics(obs HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		began := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		obs.ObserveHTTP(c.Method(), c.Route().Path, status, time.Since(began))
		return err
	}
}

// Idempotency rechaza con 409 un segundo POST con el mismo Idempotency-Key mientras el primero
// esté reservado. Si la petición falla se libera la clave para poder reintentar.
func Idempotency(store billing.IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" || c.Method() != fiber.MethodPost {
			return c.Next()
		}
		if len(key) > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado largo"})
		}
		full := "http:" + GetOwnerID(c) + ":" + c.Path() + ":" + key
		ok, err := store.Acquire(c.Context(), full, idempotencyTTL)
		if err != nil {
			return writeError(c, err)
		}
		if !ok {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_REQUEST", Message: "petición ya procesada o en curso con este Idempotency-Key"})
		}
		chainErr := c.Next()
		if chainErr != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			_ = store.Release(c.Context(), full)
		}
		return chainErr
	}
}
