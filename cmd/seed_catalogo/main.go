// seed_catalogo genera el script SQL que puebla productos y operadores a partir del
// catálogo XML exportado por el sistema de planta (codificado en ISO-8859-1).
//
// Uso: go run ./cmd/seed_catalogo [ruta/Catalogo.xml]
// Por defecto busca Catalogo.xml en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_catalogo.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// namespace de los IDs derivados del código: regenerar el script no cambia los IDs.
var idNamespace = uuid.MustParse("6f1c1a52-6a0e-4c55-9d7e-3b1f4f0c2a11")

type catalogo struct {
	Productos  []productoXML `xml:"productos>producto"`
	Operadores []operadorXML `xml:"operadores>operador"`
}

type productoXML struct {
	Codigo string `xml:"codigo,attr"`
	Nombre string `xml:"nombre,attr"`
	Unidad string `xml:"unidad,attr"`
	Activo string `xml:"activo,attr"`
}

type operadorXML struct {
	Email    string `xml:"email,attr"`
	Nombre   string `xml:"nombre,attr"`
	Rol      string `xml:"rol,attr"`
	Password string `xml:"password,attr"`
}

type product struct {
	id, code, name string
	unit           unit.Unit
	active         bool
}

type operator struct {
	id, email, name string
	role            entity.Role
	password        string
}

func main() {
	xmlPath := "Catalogo.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	products, operators, skipped, err := parseCatalog(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "omitido: %s\n", s)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_catalogo.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, products, operators, hashPassword); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos, %d operadores\n", outPath, len(products), len(operators))
}

// parseCatalog decodifica el catálogo y descarta las entradas incompletas o inválidas,
// devolviendo el motivo de cada descarte.
func parseCatalog(r io.Reader) ([]product, []operator, []string, error) {
	var c catalogo
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&c); err != nil {
		return nil, nil, nil, err
	}

	var skipped []string
	byCode := make(map[string]product)
	for _, p := range c.Productos {
		code := strings.TrimSpace(p.Codigo)
		name := strings.TrimSpace(p.Nombre)
		if code == "" || name == "" {
			skipped = append(skipped, fmt.Sprintf("producto sin código o nombre (%q)", code))
			continue
		}
		u, err := unit.Parse(p.Unidad)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("producto %s: %v", code, err))
			continue
		}
		byCode[code] = product{
			id:     uuid.NewSHA1(idNamespace, []byte("producto:"+code)).String(),
			code:   code,
			name:   name,
			unit:   u,
			active: !strings.EqualFold(strings.TrimSpace(p.Activo), "no"),
		}
	}
	products := make([]product, 0, len(byCode))
	for _, p := range byCode {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].code < products[j].code })

	var operators []operator
	seen := make(map[string]bool)
	for _, o := range c.Operadores {
		email := strings.ToLower(strings.TrimSpace(o.Email))
		role := entity.Role(strings.ToUpper(strings.TrimSpace(o.Rol)))
		switch {
		case email == "" || o.Password == "":
			skipped = append(skipped, fmt.Sprintf("operador sin email o password (%q)", email))
			continue
		case !role.Valid():
			skipped = append(skipped, fmt.Sprintf("operador %s: rol desconocido %q", email, o.Rol))
			continue
		case seen[email]:
			skipped = append(skipped, fmt.Sprintf("operador %s duplicado", email))
			continue
		}
		seen[email] = true
		name := strings.TrimSpace(o.Nombre)
		if name == "" {
			name = email
		}
		operators = append(operators, operator{
			id:       uuid.NewSHA1(idNamespace, []byte("operador:"+email)).String(),
			email:    email,
			name:     name,
			role:     role,
			password: o.Password,
		})
	}
	sort.Slice(operators, func(i, j int) bool { return operators[i].email < operators[j].email })
	return products, operators, skipped, nil
}

func hashPassword(p string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(h), err
}

func writeSQL(w io.Writer, products []product, operators []operator, hash func(string) (string, error)) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de productos y operadores\n")
	b.WriteString("-- Generado por cmd/seed_catalogo\n\n")

	if len(products) > 0 {
		b.WriteString("-- 1. Productos\n")
		b.WriteString("INSERT INTO products (id, code, name, unit, active) VALUES\n")
		for i, p := range products {
			sep := ","
			if i == len(products)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s', %t)%s\n", p.id, escapeSQL(p.code), escapeSQL(p.name), p.unit, p.active, sep)
		}
		b.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit, active = EXCLUDED.active;\n\n")
	}

	if len(operators) > 0 {
		b.WriteString("-- 2. Operadores (password con bcrypt)\n")
		for _, o := range operators {
			h, err := hash(o.password)
			if err != nil {
				return fmt.Errorf("hash de %s: %w", o.email, err)
			}
			b.WriteString("INSERT INTO operators (id, email, password_hash, name, role)\n")
			fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', '%s')\n", o.id, escapeSQL(o.email), escapeSQL(h), escapeSQL(o.name), o.role)
			b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role;\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
