package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"finch/internal/pkg/jsonutil"
)

// 中文说明：
// 把模型原始输出解析成 Opinion。解析链路上任何失败（没有 JSON、schema 不符、
// ok=false）都折叠成 OK=false 的意见，绝不向上抛错——融合阶段靠过滤兜底。

// opinionSchema 约束分析师回复的最小结构；decision 值不在这里限制，
// 非法值由计票阶段按零票处理。
const opinionSchemaJSON = `{
  "type": "object",
  "required": ["ok"],
  "properties": {
    "ok": {"type": "boolean"},
    "focus": {"type": "string"},
    "decision": {"type": "string"},
    "summary": {"type": "string"},
    "confidence": {"type": ["string", "number"]},
    "notes": {
      "anyOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}}
      ]
    }
  }
}`

var opinionSchema = mustCompileOpinionSchema()

func mustCompileOpinionSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("opinion.json", strings.NewReader(opinionSchemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("opinion.json")
}

// ParseOpinion 从模型输出中抽取一条意见。
func ParseOpinion(role Role, raw string) Opinion {
	block, ok := jsonutil.ExtractObject(raw)
	if !ok {
		return Unavailable(role, "no JSON object in model output")
	}
	if !gjson.Valid(block) {
		return Unavailable(role, "invalid JSON in model output")
	}
	if err := validateOpinionJSON(block); err != nil {
		return Unavailable(role, err.Error())
	}

	parsed := gjson.Parse(block)
	if !parsed.Get("ok").Bool() {
		return Unavailable(role, "analyst reported ok=false")
	}

	return Opinion{
		Role:       role,
		OK:         true,
		Decision:   strings.TrimSpace(parsed.Get("decision").String()),
		Summary:    strings.TrimSpace(parsed.Get("summary").String()),
		Notes:      parseNotes(parsed.Get("notes")),
		Confidence: strings.TrimSpace(parsed.Get("confidence").String()),
	}
}

func validateOpinionJSON(block string) error {
	var doc any
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		return fmt.Errorf("decode opinion failed: %w", err)
	}
	if err := opinionSchema.Validate(doc); err != nil {
		return fmt.Errorf("opinion schema violation: %w", err)
	}
	return nil
}

// parseNotes 接受字符串或字符串数组；单个字符串按单元素列表处理。
func parseNotes(res gjson.Result) []string {
	switch {
	case res.IsArray():
		var out []string
		res.ForEach(func(_, item gjson.Result) bool {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
			return true
		})
		return out
	case res.Type == gjson.String:
		if s := strings.TrimSpace(res.String()); s != "" {
			return []string{s}
		}
		return nil
	default:
		return nil
	}
}
