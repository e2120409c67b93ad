package domain

// Advice es la recomendación completa de un símbolo: todo lo que la consola
// necesita para pintar el panel de decisión de un tick del desk.
type Advice struct {
	Symbol    string
	Quote     Quote
	Freshness Freshness
	AgeSecs   *int

	Evaluation Evaluation
	Confidence Confidence

	IndexPCR   *float64
	Bias       OptionsBias
	BiasDetail string

	Risk     RiskStatus
	Decision Decision

	MarketOpen bool
	Session    string // countdown HH:MM:SS hasta cierre o próxima apertura

	MLScore *float64
}
