// Package ml puntúa la calidad del setup con un modelo logístico entrenado
// offline. El score es consultivo: si el modelo no está o el schema no
// cuadra, el pipeline sigue sin él.
package ml

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/alejandrodnm/intrabot/internal/domain"
)

// modelFile es el artefacto que exporta el pipeline de entrenamiento.
type modelFile struct {
	SchemaVersion string    `json:"schema_version"`
	Features      []string  `json:"features"`
	Intercept     float64   `json:"intercept"`
	Weights       []float64 `json:"weights"`
	Means         []float64 `json:"means"`
	Stds          []float64 `json:"stds"`
}

// Scorer implementa ports.SetupScorer. Un Scorer sin modelo cargado es
// válido: Score devuelve siempre nil.
type Scorer struct {
	model *modelFile
}

// NewScorer carga el modelo de la ruta dada. Cualquier fallo (fichero
// ausente, JSON roto, schema desalineado) deja el scorer deshabilitado con
// un warn en el log; nunca es un error fatal.
func NewScorer(path string) *Scorer {
	model, err := load(path)
	if err != nil {
		slog.Warn("ml: modelo no disponible, score deshabilitado", "path", path, "err", err)
		return &Scorer{}
	}
	slog.Info("ml: modelo de setup cargado", "path", path, "schema", model.SchemaVersion)
	return &Scorer{model: model}
}

// Score devuelve la probabilidad [0,1] de que el setup sea de calidad, o nil
// si el modelo no está disponible.
func (s *Scorer) Score(features domain.SetupFeatures) *float64 {
	if s.model == nil {
		return nil
	}

	vector := features.Vector()
	z := s.model.Intercept
	for i, w := range s.model.Weights {
		x := vector[i]
		if std := s.model.Stds[i]; std > 0 {
			x = (x - s.model.Means[i]) / std
		}
		z += w * x
	}

	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return nil
	}
	p = math.Min(1, math.Max(0, p))
	return &p
}

// Enabled indica si hay modelo cargado.
func (s *Scorer) Enabled() bool {
	return s.model != nil
}

func load(path string) (*modelFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var model modelFile
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	// El schema de features está bloqueado: cualquier desviación respecto a
	// lo que produce el builder invalida el modelo entero.
	if model.SchemaVersion != domain.FeatureSchemaVersion {
		return nil, fmt.Errorf("schema %q, se esperaba %q", model.SchemaVersion, domain.FeatureSchemaVersion)
	}
	if len(model.Features) != len(domain.FeatureNames) {
		return nil, fmt.Errorf("%d features, se esperaban %d", len(model.Features), len(domain.FeatureNames))
	}
	for i, name := range domain.FeatureNames {
		if model.Features[i] != name {
			return nil, fmt.Errorf("feature %d es %q, se esperaba %q", i, model.Features[i], name)
		}
	}
	if len(model.Weights) != len(model.Features) ||
		len(model.Means) != len(model.Features) ||
		len(model.Stds) != len(model.Features) {
		return nil, fmt.Errorf("weights/means/stds no casan con las %d features", len(model.Features))
	}
	return &model, nil
}
