package exactode

// Step titles, explanations and formula templates.
const (
	titleCheck   = "1. Verificar Exactitud"
	textCheck    = "Calculamos las derivadas parciales cruzadas para verificar si es exacta."
	formulaCheck = `\frac{\partial M}{\partial y} = %s \quad \text{y} \quad \frac{\partial N}{\partial x} = %s`

	titleNotExact   = "No es Exacta"
	textNotExact    = "Las derivadas son diferentes. Buscaremos un Factor Integrante (μ) para convertirla en exacta."
	formulaNotExact = `\frac{\partial M}{\partial y} \neq \frac{\partial N}{\partial x}`

	titleFactor     = "1.1 Factor Integrante Hallado"
	textFactorX     = `Encontramos que \frac{M_y - N_x}{N} depende solo de x. El factor integrante es: \mu(x) = e^{\int (%s) dx}`
	textFactorY     = `Encontramos que \frac{N_x - M_y}{M} depende solo de y. El factor integrante es: \mu(y) = e^{\int (%s) dy}`
	formulaFactor   = `\mu = %s`
	titleNewExact   = "1.2 Nueva Ecuación Exacta"
	textNewExact    = "Multiplicamos M y N por el factor integrante (μ). Ahora la ecuación es exacta."
	formulaNewExact = `\tilde{M} = %s, \quad \tilde{N} = %s`

	titleNoFactor   = "Error"
	textNoFactor    = "No se encontró un factor integrante sencillo (dependiente solo de x o y)."
	formulaNoFactor = `\text{Método no aplicable}`

	titleIntegrateM   = "2. Integrar M respecto a x"
	textIntegrateM    = "Integramos la función M (actual) con respecto a x. Añadimos g(y)."
	formulaIntegrateM = `F(x, y) = \int (%s) dx = %s + g(y)`

	titleGPrime   = "3. Encontrar g'(y)"
	textGPrime    = "Derivamos el resultado anterior respecto a 'y' e igualamos a N. Despejamos g'(y)."
	formulaGPrime = `g'(y) = N - \frac{\partial F}{\partial y} = %s`

	titleG   = "4. Obtener g(y)"
	textG    = "Integramos g'(y) para hallar la función constante."
	formulaG = `g(y) = \int (%s) dy = %s`

	titleSolution = "5. Solución General"
	textSolution  = "Unimos las partes para formar la solución implícita F(x,y) = C."

	titleMathError = "Error Matemático"
	textMathError  = "No se pudo procesar: "
)

// Exported titles for callers that classify a trail.
const (
	TitleNotExact  = titleNotExact
	TitleNoFactor  = titleNoFactor
	TitleMathError = titleMathError
	TitleSolution  = titleSolution
)

// stepLog is the append-only derivation trail of one solve.
type stepLog struct {
	entries []Step
}

func newStepLog() *stepLog { return &stepLog{} }

func (l *stepLog) add(title, text, formula string) {
	l.entries = append(l.entries, Step{Title: title, Text: text, Formula: formula})
}

// mathError appends the terminal step for an engine failure.
func (l *stepLog) mathError(err error) {
	l.add(titleMathError, textMathError+err.Error(), "")
}

// steps returns a copy of the trail.
func (l *stepLog) steps() []Step {
	out := make([]Step, len(l.entries))
	copy(out, l.entries)
	return out
}
