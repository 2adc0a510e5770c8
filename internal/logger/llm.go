package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 中文说明：
// LLM 调用日志：把发给模型的 prompt 与模型原始回复落到独立文件，便于排查解析失败。

var (
	llmMu  sync.Mutex
	llmLog *log.Logger
)

func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

func llmLogger() *log.Logger {
	llmMu.Lock()
	defer llmMu.Unlock()
	return llmLog
}

// LogLLMRequest 记录一次模型调用的输入（system + user prompt）。
func LogLLMRequest(role, providerID, system, user string) {
	writeLLMBlock(role, providerID, []llmSection{
		{title: "SYSTEM", body: system},
		{title: "USER", body: user},
	})
}

// LogLLMResponse 记录模型原始输出或错误。
func LogLLMResponse(role, providerID, raw string, err error) {
	secs := []llmSection{{title: "RAW", body: raw}}
	if err != nil {
		secs = append(secs, llmSection{title: "ERROR", body: err.Error()})
	}
	writeLLMBlock(role, providerID, secs)
}

type llmSection struct {
	title string
	body  string
}

func writeLLMBlock(role, providerID string, sections []llmSection) {
	lg := llmLogger()
	if lg == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM]")
	if role != "" {
		b.WriteString("[" + role + "]")
	}
	if providerID != "" {
		b.WriteString("[" + providerID + "]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("--- " + sec.title + " ---\n")
		b.WriteString(sec.body)
		if !strings.HasSuffix(sec.body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	lg.Print(b.String())
}
