package model

// Letter identifies one of the six Art. 11 entry conditions of Ley 19.300.
type Letter string

const (
	LetterA Letter = "a" // risk to population health
	LetterB Letter = "b" // significant effects on renewable natural resources
	LetterC Letter = "c" // resettlement or significant alteration of life systems
	LetterD Letter = "d" // proximity to protected areas and prioritized sites
	LetterE Letter = "e" // alteration of cultural heritage
	LetterF Letter = "f" // alteration of landscape or tourist value
)

// Letters returns all Art. 11 letters in statutory order. Detection results
// are always emitted in this order.
func Letters() []Letter {
	return []Letter{LetterA, LetterB, LetterC, LetterD, LetterE, LetterF}
}

// letterDescriptions holds the short statutory description per letter.
var letterDescriptions = map[Letter]string{
	LetterA: "Riesgo para la salud de la población",
	LetterB: "Efectos adversos significativos sobre recursos naturales renovables",
	LetterC: "Reasentamiento de comunidades humanas o alteración de sistemas de vida",
	LetterD: "Localización próxima a áreas protegidas o sitios prioritarios",
	LetterE: "Alteración del patrimonio cultural",
	LetterF: "Alteración significativa del valor paisajístico o turístico",
}

// Description returns the statutory description of l, or "" for unknown
// letters.
func (l Letter) Description() string {
	return letterDescriptions[l]
}

// Valid reports whether l is one of the six Art. 11 letters.
func (l Letter) Valid() bool {
	_, ok := letterDescriptions[l]
	return ok
}

// LegalBasis returns the citation string for l.
func (l Letter) LegalBasis() string {
	if !l.Valid() {
		return ""
	}
	return "Ley 19.300, Art. 11 letra " + string(l)
}
