package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Niveles de rol
// ──────────────────────────────────────────────────────────────────────────────

func TestHasSuperiorOrEqualLevel_AdminSobreTodos(t *testing.T) {
	for _, r := range []entity.Role{
		entity.RoleAdmin, entity.RoleDirectorTecnico, entity.RoleGerenteGarantiaCalidad,
		entity.RoleGerenteControlCalidad, entity.RoleSupervisorPlanta,
		entity.RoleAnalistaControlCalidad, entity.RoleAnalistaPlanta, entity.RoleAuditor,
	} {
		assert.True(t, entity.HasSuperiorOrEqualLevel(entity.RoleAdmin, r), "ADMIN >= %s", r)
	}
}

func TestHasSuperiorOrEqualLevel_AuditorNoAlcanzaAdmin(t *testing.T) {
	assert.False(t, entity.HasSuperiorOrEqualLevel(entity.RoleAuditor, entity.RoleAdmin))
}

func TestHasStrictlySuperiorLevel_ExcluyeIgualdad(t *testing.T) {
	assert.True(t, entity.HasSuperiorOrEqualLevel(entity.RoleGerenteControlCalidad, entity.RoleGerenteGarantiaCalidad))
	assert.False(t, entity.HasStrictlySuperiorLevel(entity.RoleGerenteControlCalidad, entity.RoleGerenteGarantiaCalidad))
	assert.True(t, entity.HasStrictlySuperiorLevel(entity.RoleDirectorTecnico, entity.RoleAnalistaPlanta))
}

func TestRoleDesconocidoTieneNivelCero(t *testing.T) {
	assert.Equal(t, 0, entity.Role("INVITADO").Level())
	assert.False(t, entity.Role("INVITADO").Valid())
	assert.False(t, entity.HasSuperiorOrEqualLevel("INVITADO", entity.RoleAuditor))
}

// ──────────────────────────────────────────────────────────────────────────────
// Dictámenes
// ──────────────────────────────────────────────────────────────────────────────

func TestVerdictTransitions(t *testing.T) {
	allowed := [][2]entity.Verdict{
		{entity.VerdictRecibido, entity.VerdictCuarentena},
		{entity.VerdictCuarentena, entity.VerdictAprobado},
		{entity.VerdictCuarentena, entity.VerdictRechazado},
		{entity.VerdictCuarentena, entity.VerdictVencido},
		{entity.VerdictAprobado, entity.VerdictLiberado},
		{entity.VerdictAprobado, entity.VerdictVencido},
		{entity.VerdictLiberado, entity.VerdictRetiroMercado},
		{entity.VerdictLiberado, entity.VerdictDevolucionClientes},
	}
	for _, p := range allowed {
		assert.True(t, p[0].CanTransitionTo(p[1]), "%s -> %s debe estar permitido", p[0], p[1])
	}

	denied := [][2]entity.Verdict{
		{entity.VerdictRecibido, entity.VerdictAprobado},
		{entity.VerdictRechazado, entity.VerdictAprobado},
		{entity.VerdictVencido, entity.VerdictCuarentena},
		{entity.VerdictLiberado, entity.VerdictVencido},
		{entity.VerdictRetiroMercado, entity.VerdictLiberado},
	}
	for _, p := range denied {
		assert.False(t, p[0].CanTransitionTo(p[1]), "%s -> %s no debe estar permitido", p[0], p[1])
	}
}

func TestVerdictTerminales(t *testing.T) {
	assert.True(t, entity.VerdictRechazado.IsTerminal())
	assert.True(t, entity.VerdictVencido.IsTerminal())
	assert.True(t, entity.VerdictRetiroMercado.IsTerminal())
	assert.False(t, entity.VerdictAprobado.IsTerminal())
	assert.False(t, entity.Verdict("OTRO").IsTerminal())
}

// ──────────────────────────────────────────────────────────────────────────────
// Lote y análisis
// ──────────────────────────────────────────────────────────────────────────────

func TestLotEffectiveExpiry(t *testing.T) {
	d := func(day int) *time.Time {
		v := time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
		return &v
	}

	l := &entity.Lot{SupplierReanalysisDate: d(10), SupplierExpiryDate: d(20)}
	assert.Equal(t, d(10), l.EffectiveExpiry(), "sin aprobación rigen las fechas del proveedor")

	l.ReanalysisDate, l.ExpiryDate = d(25), d(15)
	assert.Equal(t, d(15), l.EffectiveExpiry(), "gana la fecha vigente más próxima")

	l.ReanalysisDate = nil
	assert.Equal(t, d(15), l.EffectiveExpiry())

	assert.Nil(t, (&entity.Lot{}).EffectiveExpiry())
}

func TestAnalysisInProgress(t *testing.T) {
	a := &entity.Analysis{Active: true}
	assert.True(t, a.InProgress())

	a.Verdict = entity.VerdictAprobado
	assert.False(t, a.InProgress())

	now := time.Now()
	b := &entity.Analysis{Active: true, RealizedDate: &now}
	assert.False(t, b.InProgress())

	c := &entity.Analysis{Active: false}
	assert.False(t, c.InProgress())
}

func TestMotiveKind(t *testing.T) {
	assert.Equal(t, entity.MovementKindAlta, entity.MotiveCompra.Kind())
	assert.Equal(t, entity.MovementKindBaja, entity.MotiveMuestreo.Kind())
	assert.Equal(t, entity.MovementKindBaja, entity.MotiveAjuste.Kind())
	assert.Equal(t, entity.MovementKindModificacion, entity.MotiveReverso.Kind())
	assert.False(t, entity.Motive("X").Valid())
}
