package advisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"finch/internal/intent"
	"finch/internal/logger"
)

// 中文说明：
// 意图权重表加载器：从 YAML 文件读 intent_weights 并监听文件变更。
// 重载前先校验，非法表保留旧值，保证运行期永远有一张可用的表。

type weightsFile struct {
	IntentWeights map[string]RoleWeights `yaml:"intent_weights"`
}

// WeightRegistry 持有当前生效的权重表。
type WeightRegistry struct {
	path string
	v    *viper.Viper

	mu    sync.RWMutex
	table WeightTable
}

// NewWeightRegistry 读取权重文件并开始监听。path 为空时使用内置默认表，不监听。
func NewWeightRegistry(path string) (*WeightRegistry, error) {
	r := &WeightRegistry{path: strings.TrimSpace(path), table: DefaultWeights()}
	if r.path == "" {
		return r, nil
	}
	if _, err := os.Stat(r.path); err != nil {
		return nil, fmt.Errorf("weights profile not readable: %w", err)
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(r.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read weights profile failed: %w", err)
	}
	r.v = v
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("weights profile reload failed (%s): %v", evt.Name, err)
			return
		}
		logger.Infof("weights profile reloaded from %s", filepath.Base(r.path))
	})
	v.WatchConfig()
	return r, nil
}

// Table 返回当前权重表的副本。
func (r *WeightRegistry) Table() WeightTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(WeightTable, len(r.table))
	for k, v := range r.table {
		out[k] = v
	}
	return out
}

func (r *WeightRegistry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}
	var file weightsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse weights profile failed: %w", err)
	}

	// 文件只需覆盖想改的意图，其余沿用默认值。
	table := DefaultWeights()
	for name, w := range file.IntentWeights {
		it := intent.Intent(strings.ToLower(strings.TrimSpace(name)))
		if !intent.Valid(it) {
			return fmt.Errorf("weights profile has unknown intent %q", name)
		}
		table[it] = w
	}
	if err := table.Validate(); err != nil {
		return fmt.Errorf("weights profile rejected: %w", err)
	}

	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
	return nil
}
