package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/diegoholiveira/jsonlogic/v3"
)

// JsonLogicExecutor evaluates the `guardas` of the knowledge base.
type JsonLogicExecutor struct{}

func NewJsonLogicExecutor() *JsonLogicExecutor {
	return &JsonLogicExecutor{}
}

func (j *JsonLogicExecutor) Execute(ctx context.Context, logic map[string]interface{}, data map[string]interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ruleJSON, err := json.Marshal(logic)
	if err != nil {
		return nil, fmt.Errorf("invalid guard logic: %w", err)
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("invalid guard data: %w", err)
	}

	var resultBuffer bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &resultBuffer); err != nil {
		return nil, fmt.Errorf("guard execution failed: %w", err)
	}

	resultStr := bytes.TrimSpace(resultBuffer.Bytes())
	if len(resultStr) == 0 || string(resultStr) == "null" {
		return nil, nil
	}

	var res interface{}
	decoder := json.NewDecoder(bytes.NewReader(resultStr))
	decoder.UseNumber()
	if err := decoder.Decode(&res); err != nil {
		return nil, fmt.Errorf("guard result is not JSON: %w", err)
	}
	return finalizeValue(res), nil
}

func finalizeValue(val interface{}) interface{} {
	if n, ok := val.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return val
}
