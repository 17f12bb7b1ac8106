package scorer

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/resilience"
	"github.com/sells-group/reconcile-cli/internal/store"
)

// ErrInvalidInput marks a structurally invalid scoring request.
var ErrInvalidInput = eris.New("scorer: invalid input")

// Config holds the scoring constants.
type Config struct {
	// Lambda is the time-decay rate applied to stored scores.
	Lambda float64 `yaml:"lambda" mapstructure:"lambda"`
	// Kappa is the sensitivity of the score to aggregated risk.
	Kappa float64 `yaml:"kappa" mapstructure:"kappa"`
	// VectorLen is the fixed conceptual length of the discrepancy vector;
	// shorter inputs are zero-padded, longer ones truncated.
	VectorLen int `yaml:"vector_len" mapstructure:"vector_len"`
	// DefaultPersona is used when a request names an unknown persona.
	DefaultPersona string `yaml:"default_persona" mapstructure:"default_persona"`
	// ProfilesPath optionally points at a YAML persona profile file.
	ProfilesPath string `yaml:"profiles_path" mapstructure:"profiles_path"`
}

// DefaultConfig returns the standard scoring constants.
func DefaultConfig() Config {
	return Config{
		Lambda:         0.05,
		Kappa:          0.1,
		VectorLen:      82,
		DefaultPersona: "margin",
	}
}

// Scorer computes persona-weighted risk from discrepancy vectors and blends
// it into the stored per-(vendor, persona) record with exponential decay.
type Scorer struct {
	store   store.Store
	cfg     Config
	weights *WeightTable
	retry   resilience.RetryConfig

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New creates a Scorer over the given store and weight table.
func New(st store.Store, cfg Config, weights *WeightTable) *Scorer {
	return &Scorer{
		store:   st,
		cfg:     cfg,
		weights: weights,
		retry:   resilience.DefaultRetryConfig(),
		now:     time.Now,
	}
}

// Snapshot computes the fresh (pre-blend) aggregated risk and score for a
// discrepancy vector under the given persona, without touching the store.
// The vector is zero-padded or truncated to the configured length; the
// decayed per-slot value at evaluation time is the flag itself (elapsed time
// zero). The returned persona is the one actually applied after fallback.
func (s *Scorer) Snapshot(persona string, vector []int) (risk, score float64, applied string) {
	weights, applied := s.weights.For(persona)

	v := normalize(vector, s.cfg.VectorLen)
	for i, flag := range v {
		risk += weights[i] * float64(flag)
	}
	score = round2(100 * math.Exp(-s.cfg.Kappa*risk))
	return risk, score, applied
}

// Score validates the request, computes the fresh snapshot, and folds it into
// the stored record inside one transaction. The first call for a (vendor,
// persona) pair creates the record; later calls decay the prior by
// e^(-lambda*deltaDays) (deltaDays floored, minimum 1) and average it with
// the fresh value. Store conflicts are retried; persistent failures are
// returned to the caller, since a dropped update would corrupt the decay
// chain for every subsequent call.
func (s *Scorer) Score(ctx context.Context, vendorID, persona string, vector []int) (*model.VendorScore, error) {
	if vendorID == "" {
		return nil, eris.Wrap(ErrInvalidInput, "vendor id required")
	}
	if vector == nil {
		return nil, eris.Wrap(ErrInvalidInput, "discrepancy vector required")
	}

	freshRisk, freshScore, applied := s.Snapshot(persona, vector)
	if applied != persona {
		zap.L().Warn("scorer: unknown persona, using default",
			zap.String("persona", persona),
			zap.String("default", applied),
		)
	}

	var result *model.VendorScore
	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		updated, err := s.store.UpdateVendorScore(ctx, vendorID, applied,
			func(prior *model.VendorScore) (*model.VendorScore, error) {
				return s.blend(prior, vendorID, applied, freshScore, freshRisk), nil
			})
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: update %s/%s", vendorID, applied)
	}

	zap.L().Info("scorer: scored vendor",
		zap.String("vendor_id", vendorID),
		zap.String("persona", applied),
		zap.Float64("score", result.Score),
		zap.Float64("aggregated_risk", result.AggregatedRisk),
	)
	return result, nil
}

// blend produces the next record from the prior one and a fresh snapshot.
func (s *Scorer) blend(prior *model.VendorScore, vendorID, persona string, freshScore, freshRisk float64) *model.VendorScore {
	now := s.now().UTC()
	event := model.ScoreEvent{Timestamp: now, Score: freshScore, Risk: freshRisk}

	if prior == nil {
		return &model.VendorScore{
			VendorID:       vendorID,
			Persona:        persona,
			Score:          round2(freshScore),
			AggregatedRisk: round4(freshRisk),
			LastUpdated:    now,
			History:        []model.ScoreEvent{event},
		}
	}

	deltaDays := int(now.Sub(prior.LastUpdated).Hours() / 24)
	if deltaDays < 1 {
		deltaDays = 1
	}
	decay := math.Exp(-s.cfg.Lambda * float64(deltaDays))

	next := *prior
	next.Score = round2((prior.Score*decay + freshScore) / 2)
	next.AggregatedRisk = round4((prior.AggregatedRisk*decay + freshRisk) / 2)
	next.LastUpdated = now
	next.DecayWeight = decay
	next.History = append(append([]model.ScoreEvent{}, prior.History...), event)
	return &next
}

// normalize pads with zeros or truncates v to length n.
func normalize(v []int, n int) []int {
	out := make([]int, n)
	copy(out, v)
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
