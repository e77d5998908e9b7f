package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Lotes-api/internal/application/dto"
	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/pkg/jwt"
)

// Locals keys para OperatorID y Role en Fiber.
const (
	LocalOperatorID = "operator_id"
	LocalRole       = "role"
)

// AuthMiddleware valida el Bearer Token JWT, deja OperatorID y Role en c.Locals y adjunta
// el operador actuante al contexto de usuario que reciben los casos de uso.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		operatorID, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalOperatorID, operatorID)
		c.Locals(LocalRole, role)
		c.SetUserContext(lot.WithActor(c.UserContext(), lot.Actor{ID: operatorID, Role: entity.Role(role)}))
		return c.Next()
	}
}

// RequireRole autoriza sólo a los roles indicados. Debe usarse DESPUÉS de AuthMiddleware.
//   - 401 MISSING_ROLE si el token no trae rol.
//   - 403 FORBIDDEN si el rol no está entre los permitidos.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetOperatorID devuelve el OperatorID del contexto (después del middleware de auth).
func GetOperatorID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalOperatorID).(string)
	return s
}

// GetRole devuelve el rol del operador (después del middleware de auth).
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}
