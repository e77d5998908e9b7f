package entity

// Role es el rol de un operador. Su nivel define un orden total usado para autorizar reversas.
type Role string

const (
	RoleAdmin                  Role = "ADMIN"
	RoleDirectorTecnico        Role = "DT"
	RoleGerenteGarantiaCalidad Role = "GERENTE_GARANTIA_CALIDAD"
	RoleGerenteControlCalidad  Role = "GERENTE_CONTROL_CALIDAD"
	RoleSupervisorPlanta       Role = "SUPERVISOR_PLANTA"
	RoleAnalistaControlCalidad Role = "ANALISTA_CONTROL_CALIDAD"
	RoleAnalistaPlanta         Role = "ANALISTA_PLANTA"
	RoleAuditor                Role = "AUDITOR"
)

var roleLevels = map[Role]int{
	RoleAdmin:                  100,
	RoleDirectorTecnico:        90,
	RoleGerenteGarantiaCalidad: 80,
	RoleGerenteControlCalidad:  80,
	RoleSupervisorPlanta:       60,
	RoleAnalistaControlCalidad: 40,
	RoleAnalistaPlanta:         40,
	RoleAuditor:                10,
}

// Level devuelve el nivel de autorización (0 para roles desconocidos).
func (r Role) Level() int { return roleLevels[r] }

// Valid indica si el rol es conocido.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// HasSuperiorOrEqualLevel indica si a está al nivel de b o por encima.
func HasSuperiorOrEqualLevel(a, b Role) bool { return a.Level() >= b.Level() }

// HasStrictlySuperiorLevel indica si a está estrictamente por encima de b.
func HasStrictlySuperiorLevel(a, b Role) bool { return a.Level() > b.Level() }
