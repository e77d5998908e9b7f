package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

const catalogoXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<catalogo>
  <productos>
    <producto codigo="MP-001" nombre="Ácido acetilsalicílico" unidad="KILOGRAMO"/>
    <producto codigo="MP-002" nombre="Lactosa D'Or" unidad="gramo" activo="no"/>
    <producto codigo="MP-003" nombre="Sin unidad" unidad="FANEGA"/>
    <producto codigo="" nombre="Huérfano" unidad="GRAMO"/>
  </productos>
  <operadores>
    <operador email="DT@lab.co" nombre="Dirección Técnica" rol="dt" password="secreta"/>
    <operador email="dt@lab.co" nombre="Repetido" rol="DT" password="otra"/>
    <operador email="x@lab.co" nombre="X" rol="PORTERO" password="p"/>
  </operadores>
</catalogo>`

func latin1(t *testing.T, s string) *bytes.Reader {
	t.Helper()
	enc, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return bytes.NewReader([]byte(enc))
}

// ─────────────────────────────────────────────────────────────────────────────
// parseCatalog
// ─────────────────────────────────────────────────────────────────────────────

func TestParseCatalog_DecodesLatin1AndFilters(t *testing.T) {
	products, operators, skipped, err := parseCatalog(latin1(t, catalogoXML))
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "Ácido acetilsalicílico", products[0].name, "los acentos se decodifican desde ISO-8859-1")
	assert.Equal(t, unit.Kilogramo, products[0].unit)
	assert.True(t, products[0].active)
	assert.Equal(t, unit.Gramo, products[1].unit)
	assert.False(t, products[1].active)

	require.Len(t, operators, 1)
	assert.Equal(t, "dt@lab.co", operators[0].email)
	assert.Equal(t, entity.Role("DT"), operators[0].role)

	assert.Len(t, skipped, 4, "unidad inválida, código vacío, email repetido y rol desconocido")
}

func TestParseCatalog_StableIDs(t *testing.T) {
	a, _, _, err := parseCatalog(latin1(t, catalogoXML))
	require.NoError(t, err)
	b, _, _, err := parseCatalog(latin1(t, catalogoXML))
	require.NoError(t, err)
	assert.Equal(t, a[0].id, b[0].id, "el ID se deriva del código")
}

// ─────────────────────────────────────────────────────────────────────────────
// writeSQL
// ─────────────────────────────────────────────────────────────────────────────

func TestWriteSQL_EscapesAndHashes(t *testing.T) {
	products, operators, _, err := parseCatalog(latin1(t, catalogoXML))
	require.NoError(t, err)

	var out strings.Builder
	hash := func(p string) (string, error) { return "hash-" + p, nil }
	require.NoError(t, writeSQL(&out, products, operators, hash))

	sql := out.String()
	assert.Contains(t, sql, "'Lactosa D''Or'", "las comillas simples se duplican")
	assert.Contains(t, sql, "ON CONFLICT (code) DO UPDATE")
	assert.Contains(t, sql, "'hash-secreta'")
	assert.NotContains(t, sql, "'secreta'", "nunca se escribe el password en claro")
}
