package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取 yaml 配置并应用默认值与校验。
// 顶层 include 列出的文件先合并，后写入的键覆盖先写入的，
// 即被 include 的文件提供基底，主文件最终说了算。
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	chain, err := newIncludeResolver().expand(abs)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for _, node := range chain {
		if err := v.MergeConfigMap(node.settings); err != nil {
			return nil, fmt.Errorf("merging config failed (%s): %w", node.path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}

	setKeys := make(keySet)
	setKeys.collect("", v.AllSettings())
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configNode 是一份已读入内存的配置文件，settings 同时用于
// 提取 include 列表和最终合并，文件只读一次。
type configNode struct {
	path     string
	settings map[string]any
}

type includeResolver struct {
	done   map[string]bool
	onPath map[string]bool
}

func newIncludeResolver() *includeResolver {
	return &includeResolver{
		done:   make(map[string]bool),
		onPath: make(map[string]bool),
	}
}

// expand 深度优先展开 include 链，返回合并顺序（被包含者在前）。
func (r *includeResolver) expand(path string) ([]configNode, error) {
	path = filepath.Clean(path)
	if r.onPath[path] {
		return nil, fmt.Errorf("include cycle detected: %s", path)
	}
	if r.done[path] {
		return nil, nil
	}
	r.onPath[path] = true
	defer delete(r.onPath, path)

	node, err := readConfigNode(path)
	if err != nil {
		return nil, err
	}
	includes, err := includeListOf(node)
	if err != nil {
		return nil, err
	}

	var chain []configNode
	baseDir := filepath.Dir(path)
	for _, inc := range includes {
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(baseDir, incPath)
		}
		sub, err := r.expand(incPath)
		if err != nil {
			return nil, err
		}
		chain = append(chain, sub...)
	}

	r.done[path] = true
	return append(chain, node), nil
}

func readConfigNode(path string) (configNode, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return configNode{}, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	return configNode{path: path, settings: v.AllSettings()}, nil
}

func includeListOf(node configNode) ([]string, error) {
	raw, ok := node.settings["include"]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		// viper 的 AllSettings 会把 yaml 数组统一成 []any，
		// 其他形态一律按配置错误处理。
		if strs, isStrs := raw.([]string); isStrs {
			items = make([]any, len(strs))
			for i, s := range strs {
				items[i] = s
			}
		} else {
			return nil, fmt.Errorf("parsing include failed (%s): include must be a string array", node.path)
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, isStr := item.(string)
		if !isStr {
			return nil, fmt.Errorf("parsing include failed (%s): include only supports strings", node.path)
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

// collect 把实际出现过的配置键摊平成小写点号路径，
// 供 applyDefaults 区分"显式写了零值"与"没写"。数组按整体记一个键。
func (k keySet) collect(prefix string, node any) {
	switch val := node.(type) {
	case map[string]any:
		for key, child := range val {
			k.collect(joinKeyPath(prefix, key), child)
		}
	case map[any]any:
		for key, child := range val {
			if str, ok := key.(string); ok {
				k.collect(joinKeyPath(prefix, str), child)
			}
		}
	case []any:
		if prefix != "" {
			k.mark(prefix)
		}
		for _, item := range val {
			k.collect(prefix, item)
		}
	default:
		if prefix != "" {
			k.mark(prefix)
		}
	}
}

func joinKeyPath(prefix, key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return prefix
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
