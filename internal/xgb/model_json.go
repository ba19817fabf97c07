package xgb

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

type modelFile struct {
	Learner learnerJSON `json:"learner"`
	Version []int       `json:"version"`
}

type learnerJSON struct {
	FeatureNames      []string              `json:"feature_names"`
	GradientBooster   boosterJSON           `json:"gradient_booster"`
	LearnerModelParam learnerModelParamJSON `json:"learner_model_param"`
	Objective         objectiveJSON         `json:"objective"`
}

type learnerModelParamJSON struct {
	BaseScore  string `json:"base_score"`
	NumClass   string `json:"num_class"`
	NumFeature string `json:"num_feature"`
	NumTarget  string `json:"num_target"`
}

type objectiveJSON struct {
	Name string `json:"name"`
}

// boosterJSON covers both layouts: gbtree keeps the trees under "model",
// dart nests a gbtree under "gbtree" and adds per tree weights.
type boosterJSON struct {
	Name       string         `json:"name"`
	Model      *gbtreeJSON    `json:"model"`
	GBTree     *dartInnerJSON `json:"gbtree"`
	WeightDrop []float64      `json:"weight_drop"`
}

type dartInnerJSON struct {
	Model gbtreeJSON `json:"model"`
}

type gbtreeJSON struct {
	Trees    []treeJSON `json:"trees"`
	TreeInfo []int      `json:"tree_info"`
}

type treeJSON struct {
	ID              int       `json:"id"`
	LeftChildren    []int32   `json:"left_children"`
	RightChildren   []int32   `json:"right_children"`
	SplitIndices    []int32   `json:"split_indices"`
	SplitConditions []float32 `json:"split_conditions"`
	DefaultLeft     flexBools `json:"default_left"`
	SplitType       []int     `json:"split_type"`
}

// flexBools accepts default_left written either as 0/1 or as booleans.
type flexBools []bool

func (f *flexBools) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, v := range raw {
		switch t := v.(type) {
		case bool:
			out[i] = t
		case float64:
			out[i] = t != 0
		default:
			return fmt.Errorf("default_left[%d]: unexpected %T", i, v)
		}
	}
	*f = out
	return nil
}

// parseParam reads the stringly typed numbers of learner_model_param,
// including the bracketed "[5E-1]" form newer releases write.
func parseParam(raw string, def float64) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}
