package xgb

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/cmdguard/internal/filestore"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
)

const stumpTrees = `[
  {"id":0,"left_children":[1,-1,-1],"right_children":[2,-1,-1],"split_indices":[0,0,0],
   "split_conditions":[0.5,0.4,-0.4],"default_left":[1,0,0],"split_type":[0,0,0]},
  {"id":1,"left_children":[1,-1,-1],"right_children":[2,-1,-1],"split_indices":[1,0,0],
   "split_conditions":[1.0,0.2,-0.2],"default_left":[false,false,false],"split_type":[0,0,0]}
]`

func gbtreeModel(baseScore, objective, numClass string) string {
	return fmt.Sprintf(`{"learner":{
  "feature_names":[],
  "gradient_booster":{"name":"gbtree","model":{"gbtree_model_param":{"num_trees":"2"},"tree_info":[0,0],"trees":%s}},
  "learner_model_param":{"base_score":%q,"num_class":%q,"num_feature":"2","num_target":"1"},
  "objective":{"name":%q}},
  "version":[1,7,6]}`, stumpTrees, baseScore, numClass, objective)
}

func dartModel() string {
	return fmt.Sprintf(`{"learner":{
  "gradient_booster":{"name":"dart","gbtree":{"model":{"tree_info":[0,0],"trees":%s}},"weight_drop":[0.5,1.0]},
  "learner_model_param":{"base_score":"5E-1","num_class":"0","num_feature":"2"},
  "objective":{"name":"binary:logistic"}},
  "version":[2,0,3]}`, stumpTrees)
}

func TestParse_PredictProba(t *testing.T) {
	m, err := Parse([]byte(gbtreeModel("5E-1", ObjectiveBinaryLogistic, "0")))
	require.NoError(t, err)
	require.Equal(t, 2, m.NumFeature())
	require.Equal(t, 2, m.NumTrees())
	require.Equal(t, ObjectiveBinaryLogistic, m.Objective())

	nan := float32(math.NaN())
	tests := []struct {
		name   string
		x      []float32
		margin float64
	}{
		{name: "both left", x: []float32{0, 0}, margin: 0.6},
		{name: "both right", x: []float32{1, 2}, margin: -0.6},
		{name: "split boundary goes right", x: []float32{0.5, 1.0}, margin: -0.6},
		{name: "missing follows default", x: []float32{nan, nan}, margin: 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			margin, err := m.Margin(tt.x)
			require.NoError(t, err)
			require.InDelta(t, tt.margin, margin, 1e-6)

			p, err := m.PredictProba(tt.x)
			require.NoError(t, err)
			require.InDelta(t, 1/(1+math.Exp(-tt.margin)), p, 1e-6)

			res, err := m.Predict(tt.x)
			require.NoError(t, err)
			require.GreaterOrEqual(t, res.Probability, 0.0)
			require.LessOrEqual(t, res.Probability, 1.0)
			require.Equal(t, res.Probability >= 0.5, res.IsMalicious)
			require.Equal(t, 0.5, res.Threshold)
		})
	}
}

func TestParse_BracketedBaseScore(t *testing.T) {
	m, err := Parse([]byte(gbtreeModel("[2.5E-1]", ObjectiveBinaryLogistic, "0")))
	require.NoError(t, err)
	margin, err := m.Margin([]float32{0, 0})
	require.NoError(t, err)
	require.InDelta(t, 0.6+math.Log(0.25/0.75), margin, 1e-6)
}

func TestParse_LogitRaw(t *testing.T) {
	m, err := Parse([]byte(gbtreeModel("0", ObjectiveBinaryLogitRaw, "0")))
	require.NoError(t, err)
	margin, err := m.Margin([]float32{0, 0})
	require.NoError(t, err)
	require.InDelta(t, 0.6, margin, 1e-6)
}

func TestParse_Dart(t *testing.T) {
	m, err := Parse([]byte(dartModel()))
	require.NoError(t, err)
	margin, err := m.Margin([]float32{0, 0})
	require.NoError(t, err)
	require.InDelta(t, 0.4, margin, 1e-6)
}

func TestPredict_ThresholdIsInclusive(t *testing.T) {
	data := `{"learner":{
  "gradient_booster":{"name":"gbtree","model":{"tree_info":[0],"trees":[
    {"left_children":[-1],"right_children":[-1],"split_indices":[0],"split_conditions":[0.0],"default_left":[0]}]}},
  "learner_model_param":{"base_score":"5E-1","num_feature":"3"},
  "objective":{"name":"binary:logistic"}}}`
	m, err := Parse([]byte(data))
	require.NoError(t, err)

	res, err := m.Predict([]float32{1, 2, 3})
	require.NoError(t, err)
	require.InDelta(t, 0.5, res.Probability, 1e-12)
	require.True(t, res.IsMalicious)

	m.SetThreshold(0.7)
	res, err = m.Predict([]float32{1, 2, 3})
	require.NoError(t, err)
	require.False(t, res.IsMalicious)
	require.Equal(t, 0.7, m.Threshold())

	m.SetThreshold(1.5)
	require.Equal(t, 0.7, m.Threshold())
}

func TestPredict_LengthMismatch(t *testing.T) {
	m, err := Parse([]byte(gbtreeModel("5E-1", ObjectiveBinaryLogistic, "0")))
	require.NoError(t, err)
	_, err = m.Predict([]float32{1, 2, 3})
	require.Error(t, err)
	require.True(t, appErr.IsValidation(err))
	_, err = m.Predict(nil)
	require.True(t, appErr.IsValidation(err))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "xgboost"},
		{name: "multi class", data: gbtreeModel("5E-1", "multi:softprob", "3")},
		{name: "unknown objective", data: gbtreeModel("5E-1", "reg:squarederror", "0")},
		{name: "base score out of range", data: gbtreeModel("1", ObjectiveBinaryLogistic, "0")},
		{name: "unknown booster", data: `{"learner":{"gradient_booster":{"name":"gblinear"},"learner_model_param":{"num_feature":"2"},"objective":{"name":"binary:logistic"}}}`},
		{name: "no features", data: `{"learner":{"gradient_booster":{"name":"gbtree","model":{"trees":[]}},"learner_model_param":{"num_feature":"0"},"objective":{"name":"binary:logistic"}}}`},
		{name: "bad child", data: `{"learner":{"gradient_booster":{"name":"gbtree","model":{"trees":[
			{"left_children":[0,-1],"right_children":[1,-1],"split_indices":[0,0],"split_conditions":[1,1],"default_left":[0,0]}]}},
			"learner_model_param":{"num_feature":"1"},"objective":{"name":"binary:logistic"}}}`},
		{name: "split feature out of range", data: `{"learner":{"gradient_booster":{"name":"gbtree","model":{"trees":[
			{"left_children":[1,-1,-1],"right_children":[2,-1,-1],"split_indices":[5,0,0],"split_conditions":[1,1,1],"default_left":[0,0,0]}]}},
			"learner_model_param":{"num_feature":"1"},"objective":{"name":"binary:logistic"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte(gbtreeModel("5E-1", ObjectiveBinaryLogistic, "0")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	store := filestore.NewLocal(dir)

	m, err := Load(context.Background(), store, "model.json")
	require.NoError(t, err)
	require.Equal(t, 2, m.NumTrees())

	_, err = Load(context.Background(), store, "xgboost_model_11122023.json")
	require.Error(t, err)
	require.True(t, appErr.IsInitialization(err))

	_, err = Load(context.Background(), store, "broken.json")
	require.True(t, appErr.IsInitialization(err))
}
