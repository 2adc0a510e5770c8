package provider

import "context"

// ModelProvider 抽象一个可调用的文本生成模型。
type ModelProvider interface {
	ID() string
	Enabled() bool

	// Call 发送 system+user prompt，返回模型原始文本。
	// 实现方必须尊重 ctx 取消。
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
