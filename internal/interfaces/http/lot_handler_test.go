package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Lotes-api/internal/application/auth"
	"github.com/jhoicas/Lotes-api/internal/application/dto"
	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/application/usecase"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Lotes-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Lotes-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var apiStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type apiFixture struct {
	app   *fiber.App
	clock *lot.FixedClock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Run(context.Background(), func(s lot.Stores) error {
		if err := s.Products.Save(context.Background(), &entity.Product{
			ID: "prod-1", Code: "MP-001", Name: "Paracetamol", Unit: unit.Kilogramo, Active: true, CreatedAt: apiStart,
		}); err != nil {
			return err
		}
		return s.Operators.Save(context.Background(), &entity.Operator{
			ID: testOperatorID, Email: "admin@planta.test", Role: entity.RoleAdmin, Status: entity.OperatorStatusActive,
		})
	}))

	clock := &lot.FixedClock{At: apiStart}
	svc := lot.NewService(store, clock, nil)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		LotService: svc,
		LotSheet:   lot.NewSheetUseCase(svc, infrapdf.NewMarotoPDFGenerator(), "Laboratorio Test"),
		AuthUC:     auth.NewAuthUseCase(store, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		ProductUC:  usecase.NewProductUseCase(store),
		JWTSecret:  testJWTSecret,
	})
	return &apiFixture{app: app, clock: clock}
}

// call envía la petición autenticada como ADMIN y avanza el reloj un minuto.
func (f *apiFixture) call(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", tokenForRole(t, string(entity.RoleAdmin)))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func purchaseBody(code string) map[string]any {
	return map[string]any{
		"codigoLote":     code,
		"producto":       "prod-1",
		"proveedor":      "prov-1",
		"fechaIngreso":   apiStart,
		"cantidadBultos": 2,
		"cantidad":       map[string]any{"cantidad": "10", "unidad": "kg"},
		"cantidadesBultos": []map[string]any{
			{"cantidad": "5", "unidad": "KILOGRAMO"},
			{"cantidad": "5000", "unidad": "g"},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Operaciones sobre lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestLotAPI_IngresoMuestreoYConsulta(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.call(t, http.MethodPost, "/api/lotes/compras", purchaseBody("L-100"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.OperationResponse](t, resp)
	assert.Equal(t, "COMPRA", created.Movimiento.Motivo)
	assert.Equal(t, "RECIBIDO", created.Lote.Dictamen)
	assert.True(t, created.Lote.Cantidad.Equal(mustDecimal("10")), "el lote ingresa con 10 kg")

	resp = f.call(t, http.MethodPost, "/api/lotes/L-100/muestreos", map[string]any{
		"muestra":        map[string]any{"bulto": 2, "cantidad": "500", "unidad": "g"},
		"numeroAnalisis": "A-100",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sampled := decode[dto.OperationResponse](t, resp)
	assert.Equal(t, "CUARENTENA", sampled.Lote.Dictamen)
	require.NotNil(t, sampled.Analisis, "el muestreo abre un análisis")
	assert.True(t, sampled.Analisis.EnCurso)

	resp = f.call(t, http.MethodGet, "/api/lotes/L-100", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[dto.LotResponse](t, resp)
	assert.True(t, view.Cantidad.Equal(mustDecimal("9.5")))
	assert.Equal(t, "Paracetamol", view.ProductoNombre)
	require.Len(t, view.Bultos, 2)
	assert.Equal(t, "GRAMO", view.Bultos[1].Unidad, "el bulto conserva la unidad declarada")
	assert.Equal(t, "KILOGRAMO", view.Bultos[1].UnidadSugerida, "4500 g se muestran como 4.5 kg")
	require.Len(t, view.Analisis, 1)

	resp = f.call(t, http.MethodGet, "/api/lotes/L-100/movimientos", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	movs := decode[[]dto.MovementResponse](t, resp)
	require.Len(t, movs, 2)
	assert.Equal(t, "MUESTREO", movs[1].Motivo)
	require.Len(t, movs[1].Detalles, 1)
	assert.Equal(t, 2, movs[1].Detalles[0].Bulto)
}

func TestLotAPI_ValidacionResponde422ConCampos(t *testing.T) {
	f := newAPIFixture(t)

	body := purchaseBody("L-200")
	body["cantidadesBultos"] = []map[string]any{
		{"cantidad": "5", "unidad": "kg"},
		{"cantidad": "4", "unidad": "kg"},
	}
	resp := f.call(t, http.MethodPost, "/api/lotes/compras", body)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decode[dto.ValidationErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", out.Code)
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, "cantidadesBultos", out.Errors[0].Field, "la suma de bultos no conserva la cantidad")
}

func TestLotAPI_LoteInexistente404(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.call(t, http.MethodGet, "/api/lotes/NO-EXISTE", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLotAPI_ReversoDelUltimoMovimiento(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.call(t, http.MethodPost, "/api/lotes/compras", purchaseBody("L-300"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.call(t, http.MethodPost, "/api/lotes/L-300/muestreos", map[string]any{
		"muestra": map[string]any{"bulto": 1, "cantidad": "1", "unidad": "kg"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sampled := decode[dto.OperationResponse](t, resp)

	resp = f.call(t, http.MethodPost, "/api/movimientos/"+sampled.Movimiento.Codigo+"/reverso", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reversed := decode[dto.OperationResponse](t, resp)
	assert.Equal(t, "REVERSO", reversed.Movimiento.Motivo)
	assert.True(t, reversed.Lote.Cantidad.Equal(mustDecimal("10")), "la reversa devuelve la muestra al lote")

	resp = f.call(t, http.MethodPost, "/api/movimientos/NO-EXISTE/reverso", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "un movimiento inexistente rompe la integridad")
}

func TestLotAPI_FichaPDF(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.call(t, http.MethodPost, "/api/lotes/compras", purchaseBody("L-400"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.call(t, http.MethodGet, "/api/lotes/L-400/ficha.pdf", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ficha-L-400.pdf")
}

func TestLotAPI_SinTokenResponde401(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/lotes", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
