package predictor

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/features"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

const versionHashLen = 12

// Params are the hyper-parameters that, together with the training rows,
// determine a ModelSet.
type Params struct {
	Ridge           float64 `json:"ridge"`
	MinTrainingRows int     `json:"min_training_rows"`
}

// ModelSet is one immutable, versioned set of role models.
type ModelSet struct {
	Version        string                   `json:"version"`
	Family         string                   `json:"family"`
	Params         Params                   `json:"params"`
	Models         map[model.Role]RoleModel `json:"models"`
	TrainedThrough int                      `json:"trained_through"`
	Rows           int                      `json:"rows"`
	// Parent is set on fine-tuned sets and names the base version.
	Parent      string    `json:"parent,omitempty"`
	BlendWeight float64   `json:"blend_weight,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Model returns the model for role. Missing roles come back heuristic.
func (s *ModelSet) Model(role model.Role) RoleModel {
	if s == nil {
		return RoleModel{Heuristic: true}
	}
	m, ok := s.Models[role]
	if !ok {
		return RoleModel{Heuristic: true, Features: features.Names(role)}
	}
	return m
}

// Heuristic reports whether no role has a fitted model.
func (s *ModelSet) Heuristic() bool {
	for _, m := range s.Models {
		if !m.Heuristic {
			return false
		}
	}
	return true
}

// Baseline returns the all-heuristic set used before any training.
func Baseline(family string, params Params) *ModelSet {
	models := make(map[model.Role]RoleModel, len(model.Roles))
	for _, role := range model.Roles {
		models[role] = RoleModel{Heuristic: true, Features: features.Names(role)}
	}
	return &ModelSet{
		Version: trainingVersion(family, params, nil),
		Family:  family,
		Params:  params,
		Models:  models,
	}
}

// trainingVersion hashes the family, the parameters and every training
// row. Creation time is not part of the hash.
func trainingVersion(family string, params Params, rows []features.Row) string {
	h := sha256.New()
	p, _ := json.Marshal(params) //nolint:errchkjson // plain struct
	h.Write([]byte(family))
	h.Write(p)
	var buf [8]byte
	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	for _, r := range rows {
		putInt(r.AthleteID)
		putInt(r.Period)
		putInt(int(r.Role))
		putInt(len(r.Features))
		for _, f := range r.Features {
			putFloat(f)
		}
		putFloat(r.Target)
	}
	return formatVersion(family, h.Sum(nil))
}

func blendVersion(family, base, tuned string, weight float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%x", family, base, tuned, math.Float64bits(weight))
	return formatVersion(family, h.Sum(nil))
}

func formatVersion(family string, sum []byte) string {
	return family + "-" + hex.EncodeToString(sum)[:versionHashLen]
}
