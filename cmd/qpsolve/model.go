package main

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	qp "github.com/goqp/goqp"
)

// modelFile is the on-disk YAML schema. Omitted bounds default to +/-Inf.
type modelFile struct {
	Minimize struct {
		Quadratic [][]float64 `yaml:"quadratic"`
		Linear    []float64   `yaml:"linear"`
	} `yaml:"minimize"`
	Variables []struct {
		Name  string   `yaml:"name"`
		Lower *float64 `yaml:"lower"`
		Upper *float64 `yaml:"upper"`
	} `yaml:"variables"`
	Constraints []struct {
		Name         string    `yaml:"name"`
		Coefficients []float64 `yaml:"coefficients"`
		Lower        *float64  `yaml:"lower"`
		Upper        *float64  `yaml:"upper"`
	} `yaml:"constraints"`
}

func bound(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func loadModel(path string) (*qp.Instance, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var mf modelFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, nil, fmt.Errorf("cannot parse model file: %w", err)
	}

	numVar := len(mf.Variables)
	if numVar == 0 {
		return nil, nil, fmt.Errorf("model declares no variables")
	}
	if len(mf.Minimize.Linear) != numVar {
		return nil, nil, fmt.Errorf("linear objective has %d entries for %d variables", len(mf.Minimize.Linear), numVar)
	}

	inst := &qp.Instance{
		NumVar:   numVar,
		NumCon:   len(mf.Constraints),
		C:        mf.Minimize.Linear,
		VarLower: make([]float64, numVar),
		VarUpper: make([]float64, numVar),
	}
	names := make([]string, numVar)
	for j, v := range mf.Variables {
		names[j] = v.Name
		if names[j] == "" {
			names[j] = fmt.Sprintf("x%d", j+1)
		}
		inst.VarLower[j] = bound(v.Lower, math.Inf(-1))
		inst.VarUpper[j] = bound(v.Upper, math.Inf(1))
	}

	if len(mf.Minimize.Quadratic) > 0 {
		if len(mf.Minimize.Quadratic) != numVar {
			return nil, nil, fmt.Errorf("quadratic objective has %d rows for %d variables", len(mf.Minimize.Quadratic), numVar)
		}
		q := mat.NewDense(numVar, numVar, nil)
		for i, row := range mf.Minimize.Quadratic {
			if len(row) != numVar {
				return nil, nil, fmt.Errorf("quadratic objective row %d has %d entries for %d variables", i, len(row), numVar)
			}
			for j, val := range row {
				q.Set(i, j, val)
			}
		}
		inst.Q = q
	}

	if len(mf.Constraints) > 0 {
		a := mat.NewDense(len(mf.Constraints), numVar, nil)
		inst.ConLower = make([]float64, len(mf.Constraints))
		inst.ConUpper = make([]float64, len(mf.Constraints))
		for i, c := range mf.Constraints {
			if len(c.Coefficients) != numVar {
				return nil, nil, fmt.Errorf("constraint %d has %d coefficients for %d variables", i, len(c.Coefficients), numVar)
			}
			for j, val := range c.Coefficients {
				a.Set(i, j, val)
			}
			inst.ConLower[i] = bound(c.Lower, math.Inf(-1))
			inst.ConUpper[i] = bound(c.Upper, math.Inf(1))
		}
		inst.A = a
	}

	if err := inst.Validate(); err != nil {
		return nil, nil, err
	}
	return inst, names, nil
}
